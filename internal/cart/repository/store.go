package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/scistore-service/internal/cart"
	"github.com/fekuna/scistore-service/pkg/cache"
)

const keyPrefix = "cart:"

// StoreRepository keeps carts as JSON in the cache store, so carts live in
// redis in production and in memory during development.
type StoreRepository struct {
	store cache.Store
	ttl   time.Duration
}

func NewStoreRepository(store cache.Store, ttl time.Duration) *StoreRepository {
	return &StoreRepository{store: store, ttl: ttl}
}

func (r *StoreRepository) Get(ctx context.Context, id string) (*cart.Cart, error) {
	var c cart.Cart
	if err := r.store.GetJSON(ctx, keyPrefix+id, &c); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Save refreshes the TTL on every write.
func (r *StoreRepository) Save(ctx context.Context, c *cart.Cart) error {
	return r.store.SetJSON(ctx, keyPrefix+c.ID, c, r.ttl)
}

func (r *StoreRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, keyPrefix+id)
}
