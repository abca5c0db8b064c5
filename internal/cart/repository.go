package cart

import "context"

type Repository interface {
	// Get returns nil, nil for unknown or expired carts.
	Get(ctx context.Context, id string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
}
