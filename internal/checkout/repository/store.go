package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/scistore-service/internal/checkout"
	"github.com/fekuna/scistore-service/pkg/cache"
)

const keyPrefix = "checkout:session:"

type StoreRepository struct {
	store cache.Store
	ttl   time.Duration
}

func NewStoreRepository(store cache.Store, ttl time.Duration) *StoreRepository {
	return &StoreRepository{store: store, ttl: ttl}
}

func (r *StoreRepository) Get(ctx context.Context, id string) (*checkout.Session, error) {
	var s checkout.Session
	if err := r.store.GetJSON(ctx, keyPrefix+id, &s); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *StoreRepository) Save(ctx context.Context, s *checkout.Session) error {
	return r.store.SetJSON(ctx, keyPrefix+s.ID, s, r.ttl)
}
