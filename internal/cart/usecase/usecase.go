package usecase

import (
	"context"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/cart"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Catalog is the part of the product usecase the cart reads from.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]model.Product, error)
}

// maxLines bounds a cart so a single key cannot grow without limit.
const maxLines = 100

type cartUseCase struct {
	repo    cart.Repository
	catalog Catalog
	policy  cart.ShippingPolicy
	logger  logger.ZapLogger
	now     func() time.Time
}

func NewCartUseCase(repo cart.Repository, catalog Catalog, policy cart.ShippingPolicy, log logger.ZapLogger) cart.UseCase {
	return &cartUseCase{
		repo:    repo,
		catalog: catalog,
		policy:  policy,
		logger:  log,
		now:     time.Now,
	}
}

func (uc *cartUseCase) Policy() cart.ShippingPolicy { return uc.policy }

func (uc *cartUseCase) view(c *cart.Cart, adj []cart.Adjustment) *cart.View {
	if c.Items == nil {
		c.Items = []cart.Item{}
	}
	return &cart.View{Cart: c, Totals: cart.ComputeTotals(c.Items, uc.policy), Adjustments: adj}
}

// load returns the stored cart, or a new empty one for an unknown id.
func (uc *cartUseCase) load(ctx context.Context, id string) (*cart.Cart, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.Invalid("cart.invalid_id")
	}
	c, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if c == nil {
		c = &cart.Cart{ID: id, Items: []cart.Item{}, UpdatedAt: uc.now()}
	}
	return c, nil
}

func (uc *cartUseCase) save(ctx context.Context, c *cart.Cart) error {
	c.UpdatedAt = uc.now()
	if err := uc.repo.Save(ctx, c); err != nil {
		uc.logger.Error("failed to save cart", zap.String("cart_id", c.ID), zap.Error(err))
		return apperr.Internal(err)
	}
	return nil
}

func (uc *cartUseCase) Create(ctx context.Context) (*cart.View, error) {
	c := &cart.Cart{ID: uuid.New().String(), Items: []cart.Item{}}
	if err := uc.save(ctx, c); err != nil {
		return nil, err
	}
	return uc.view(c, nil), nil
}

func (uc *cartUseCase) Get(ctx context.Context, id string) (*cart.View, error) {
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.view(c, nil), nil
}

// sellable fetches a product and checks it can be put in a cart.
func (uc *cartUseCase) sellable(ctx context.Context, productID string) (*model.Product, error) {
	p, err := uc.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperr.Precondition("product.inactive")
	}
	if !p.InStock() {
		return nil, apperr.Precondition("product.out_of_stock")
	}
	return p, nil
}

func (uc *cartUseCase) AddItem(ctx context.Context, id, productID string, quantity int) (*cart.View, error) {
	if quantity < 1 {
		return nil, apperr.Invalid("validation.min_quantity")
	}
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := uc.sellable(ctx, productID)
	if err != nil {
		return nil, err
	}

	var adj []cart.Adjustment
	if i := c.Find(productID); i >= 0 {
		quantity += c.Items[i].Quantity
		c.Items[i] = cart.ItemFromProduct(p, quantity)
	} else {
		if len(c.Items) >= maxLines {
			return nil, apperr.Precondition("cart.too_many_items")
		}
		c.Items = append(c.Items, cart.ItemFromProduct(p, quantity))
	}
	if i := c.Find(productID); c.Items[i].Quantity > p.Stock {
		c.Items[i].Quantity = p.Stock
		adj = append(adj, cart.Adjustment{ProductID: productID, Reason: cart.AdjustQuantityCap})
	}

	if err := uc.save(ctx, c); err != nil {
		return nil, err
	}
	return uc.view(c, adj), nil
}

func (uc *cartUseCase) SetQuantity(ctx context.Context, id, productID string, quantity int) (*cart.View, error) {
	if quantity < 0 {
		return nil, apperr.Invalid("validation.non_negative")
	}
	if quantity == 0 {
		return uc.RemoveItem(ctx, id, productID)
	}
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	i := c.Find(productID)
	if i < 0 {
		return nil, apperr.NotFound("cart.item_not_found")
	}
	p, err := uc.sellable(ctx, productID)
	if err != nil {
		return nil, err
	}

	var adj []cart.Adjustment
	if quantity > p.Stock {
		quantity = p.Stock
		adj = append(adj, cart.Adjustment{ProductID: productID, Reason: cart.AdjustQuantityCap})
	}
	c.Items[i] = cart.ItemFromProduct(p, quantity)

	if err := uc.save(ctx, c); err != nil {
		return nil, err
	}
	return uc.view(c, adj), nil
}

func (uc *cartUseCase) RemoveItem(ctx context.Context, id, productID string) (*cart.View, error) {
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.Remove(productID) {
		return nil, apperr.NotFound("cart.item_not_found")
	}
	if err := uc.save(ctx, c); err != nil {
		return nil, err
	}
	return uc.view(c, nil), nil
}

func (uc *cartUseCase) Clear(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Invalid("cart.invalid_id")
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (uc *cartUseCase) Refresh(ctx context.Context, id string) (*cart.View, error) {
	c, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return uc.view(c, nil), nil
	}

	ids := make([]string, len(c.Items))
	for i, it := range c.Items {
		ids[i] = it.ProductID
	}
	products, err := uc.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var adj []cart.Adjustment
	kept := c.Items[:0]
	for _, it := range c.Items {
		p, ok := products[it.ProductID]
		if !ok || !p.IsActive || !p.InStock() {
			adj = append(adj, cart.Adjustment{ProductID: it.ProductID, Reason: cart.AdjustRemoved})
			continue
		}
		fresh := cart.ItemFromProduct(&p, it.Quantity)
		if fresh.UnitPrice != it.UnitPrice {
			adj = append(adj, cart.Adjustment{ProductID: it.ProductID, Reason: cart.AdjustPriceChanged})
		}
		if fresh.Quantity > p.Stock {
			fresh.Quantity = p.Stock
			adj = append(adj, cart.Adjustment{ProductID: it.ProductID, Reason: cart.AdjustQuantityCap})
		}
		kept = append(kept, fresh)
	}
	c.Items = kept

	if err := uc.save(ctx, c); err != nil {
		return nil, err
	}
	if len(adj) > 0 {
		uc.logger.Info("cart refreshed with changes", zap.String("cart_id", c.ID), zap.Int("adjustments", len(adj)))
	}
	return uc.view(c, adj), nil
}
