package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/cart"
	cartrepo "github.com/fekuna/scistore-service/internal/cart/repository"
	cartuc "github.com/fekuna/scistore-service/internal/cart/usecase"
	"github.com/fekuna/scistore-service/internal/checkout"
	"github.com/fekuna/scistore-service/internal/checkout/dto"
	"github.com/fekuna/scistore-service/internal/checkout/repository"
	"github.com/fekuna/scistore-service/internal/events"
	"github.com/fekuna/scistore-service/internal/inventory"
	invdto "github.com/fekuna/scistore-service/internal/inventory/dto"
	"github.com/fekuna/scistore-service/internal/metrics"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/order"
	orderdto "github.com/fekuna/scistore-service/internal/order/dto"
	"github.com/fekuna/scistore-service/pkg/cache"
	"github.com/fekuna/scistore-service/pkg/database/postgres"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

type catalog map[string]model.Product

func (c catalog) GetProduct(_ context.Context, id string) (*model.Product, error) {
	p, ok := c[id]
	if !ok {
		return nil, apperr.NotFound("product.not_found")
	}
	return &p, nil
}

func (c catalog) GetProductsByIDs(_ context.Context, ids []string) (map[string]model.Product, error) {
	out := map[string]model.Product{}
	for _, id := range ids {
		if p, ok := c[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type orderRepo struct {
	mu     sync.Mutex
	orders map[string]model.Order
	// collisions makes the next n inserts fail with a taken order number.
	collisions int
	numbers    []string
}

func (r *orderRepo) Create(_ context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.numbers = append(r.numbers, o.OrderNumber)
	if r.collisions > 0 {
		r.collisions--
		return order.ErrDuplicateNumber
	}
	r.orders[o.ID] = *o
	return nil
}

func (r *orderRepo) FindByID(_ context.Context, id string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (r *orderRepo) FindByIdempotencyKey(_ context.Context, key string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			return &o, nil
		}
	}
	return nil, nil
}

func (r *orderRepo) FindAll(context.Context, *orderdto.OrderFilters) ([]model.Order, int, error) {
	return nil, 0, nil
}

func (r *orderRepo) UpdateStatus(context.Context, string, model.OrderStatus, model.OrderStatus) (bool, error) {
	return false, nil
}

type stock struct {
	inventory.UseCase
	levels   map[string]int
	reserved []invdto.StockLine
}

func (s *stock) Reserve(_ context.Context, _ string, lines []invdto.StockLine) error {
	for _, l := range lines {
		if s.levels[l.ProductID] < l.Quantity {
			return apperr.Precondition("inventory.insufficient_stock").WithData(map[string]any{"Name": l.Name})
		}
	}
	for _, l := range lines {
		s.levels[l.ProductID] -= l.Quantity
	}
	s.reserved = append(s.reserved, lines...)
	return nil
}

type profiles map[string]model.Profile

func (p profiles) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	pr, ok := p[userID]
	if !ok {
		return nil, apperr.NotFound("error.not_found")
	}
	return &pr, nil
}

type publisher struct {
	mu     sync.Mutex
	events []*events.Envelope
}

func (p *publisher) Publish(_ context.Context, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.(*events.Envelope))
	return nil
}

type fixture struct {
	uc      checkout.UseCase
	carts   cart.UseCase
	orders  *orderRepo
	stock   *stock
	pub     *publisher
	locks   *cache.MemoryStore
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p := model.Product{SKU: "MIC-100", NameEn: "Microscope", Price: 4000, Stock: 5, IsActive: true}
	p.ID = "p1"
	q := model.Product{SKU: "SLD-50", NameEn: "Slides", Price: 250, Stock: 50, IsActive: true}
	q.ID = "p2"

	store := cache.NewMemoryStore()
	carts := cartuc.NewCartUseCase(
		cartrepo.NewStoreRepository(store, time.Hour),
		catalog{"p1": p, "p2": q},
		cart.ShippingPolicy{Fee: 150, FreeThreshold: 10000, Currency: "BDT"},
		logger.NewNop(),
	)
	f := &fixture{
		carts:   carts,
		orders:  &orderRepo{orders: map[string]model.Order{}},
		stock:   &stock{levels: map[string]int{"p1": 5, "p2": 50}},
		pub:     &publisher{},
		locks:   store,
		metrics: metrics.New(),
	}
	f.uc = NewCheckoutUseCase(Deps{
		Sessions:  repository.NewStoreRepository(store, time.Hour),
		Carts:     carts,
		Orders:    f.orders,
		Inventory: f.stock,
		Profiles: profiles{"u1": {ID: "u1", FullName: "Dr. Karim", Email: "karim@buet.ac.bd",
			Phone: strPtr("+8801812345678"), Address: strPtr("ECE Building, BUET"), City: strPtr("Dhaka")}},
		Tx:        postgres.NopTransactor{},
		Locks:     store,
		Publisher: f.pub,
		Metrics:   f.metrics,
	}, Options{Currency: "BDT"}, logger.NewNop())
	return f
}

func strPtr(s string) *string { return &s }

func (f *fixture) cartWith(t *testing.T, items map[string]int) string {
	t.Helper()
	id := uuid.New().String()
	for pid, qty := range items {
		_, err := f.carts.AddItem(context.Background(), id, pid, qty)
		require.NoError(t, err)
	}
	return id
}

func guestShipping() dto.ShippingInput {
	return dto.ShippingInput{
		FullName: "Nasrin Akter", Email: "nasrin@example.com", Phone: "01912345678",
		Address: "House 12, Road 5, Dhanmondi", City: "Dhaka", PostalCode: "1205",
	}
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	cartID := f.cartWith(t, map[string]int{"p1": 2, "p2": 4})

	o, err := f.uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		CartID: cartID, Shipping: guestShipping(), PaymentMethod: model.PaymentCashOnDelivery,
		IdempotencyKey: "key-1", Language: "bn-BD",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{6}$`, o.OrderNumber)
	assert.Nil(t, o.UserID)
	assert.Equal(t, model.OrderPending, o.Status)
	assert.Equal(t, 9000.0, o.Subtotal)
	assert.Equal(t, 150.0, o.ShippingFee)
	assert.Equal(t, 9150.0, o.Total)
	assert.Equal(t, "BDT", o.Currency)
	assert.Equal(t, "bn", o.Language)
	assert.Len(t, o.Items, 2)

	assert.Equal(t, 3, f.stock.levels["p1"])
	assert.Equal(t, 46, f.stock.levels["p2"])
	require.Len(t, f.pub.events, 1)
	assert.Equal(t, events.OrderCreated, f.pub.events[0].EventType)
	n, err := testutil.GatherAndCount(f.metrics.Registry(), "storefront_orders_created_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	view, err := f.carts.Get(context.Background(), cartID)
	require.NoError(t, err)
	assert.Empty(t, view.Items, "cart is cleared")
}

func TestCreateOrderReplaysCompletedKey(t *testing.T) {
	f := newFixture(t)
	cartID := f.cartWith(t, map[string]int{"p1": 1})
	in := &dto.CreateOrderInput{CartID: cartID, Shipping: guestShipping(), PaymentMethod: model.PaymentBankTransfer, IdempotencyKey: "same"}

	first, err := f.uc.CreateOrder(context.Background(), in)
	require.NoError(t, err)
	second, err := f.uc.CreateOrder(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.orders.orders, 1)
	assert.Len(t, f.pub.events, 1)
	assert.Equal(t, 4, f.stock.levels["p1"])
}

func TestCreateOrderKeyIsScopedToCartAndCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cartID := f.cartWith(t, map[string]int{"p1": 1})
	first, err := f.uc.CreateOrder(ctx, &dto.CreateOrderInput{
		CartID: cartID, Shipping: guestShipping(), PaymentMethod: model.PaymentCashOnDelivery, IdempotencyKey: "shared",
	})
	require.NoError(t, err)
	require.NotNil(t, first.CartID)
	assert.Equal(t, cartID, *first.CartID)

	other := f.cartWith(t, map[string]int{"p2": 1})
	_, err = f.uc.CreateOrder(ctx, &dto.CreateOrderInput{
		CartID: other, Shipping: guestShipping(), PaymentMethod: model.PaymentCashOnDelivery, IdempotencyKey: "shared",
	})
	assert.Equal(t, codes.AlreadyExists, apperr.CodeOf(err))
	assert.Equal(t, "checkout.idempotency_conflict", apperr.From(err).MessageID)

	_, err = f.uc.CreateOrder(ctx, &dto.CreateOrderInput{
		CartID: cartID, UserID: "u1", Shipping: guestShipping(), PaymentMethod: model.PaymentCashOnDelivery, IdempotencyKey: "shared",
	})
	assert.Equal(t, "checkout.idempotency_conflict", apperr.From(err).MessageID)
	assert.Len(t, f.orders.orders, 1)
}

func TestCreateOrderRetriesOrderNumberCollision(t *testing.T) {
	f := newFixture(t)
	f.orders.collisions = 1
	cartID := f.cartWith(t, map[string]int{"p1": 2})

	o, err := f.uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		CartID: cartID, Shipping: guestShipping(), PaymentMethod: model.PaymentCashOnDelivery, IdempotencyKey: "retry",
	})
	require.NoError(t, err)
	require.Len(t, f.orders.numbers, 2)
	assert.Equal(t, f.orders.numbers[1], o.OrderNumber)
	assert.Contains(t, f.orders.orders, o.ID)
	assert.Equal(t, 3, f.stock.levels["p1"], "stock is reserved once")
	assert.Len(t, f.pub.events, 1)
}

func TestCreateOrderGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)
	f.orders.collisions = orderNumberAttempts
	cartID := f.cartWith(t, map[string]int{"p1": 1})

	_, err := f.uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		CartID: cartID, Shipping: guestShipping(), PaymentMethod: model.PaymentCashOnDelivery, IdempotencyKey: "unlucky",
	})
	assert.Equal(t, codes.Internal, apperr.CodeOf(err))
	assert.Len(t, f.orders.numbers, orderNumberAttempts)
	assert.Empty(t, f.orders.orders)
	assert.Equal(t, 5, f.stock.levels["p1"])
}

func TestCreateOrderRejectsConcurrentDuplicate(t *testing.T) {
	f := newFixture(t)
	cartID := f.cartWith(t, map[string]int{"p1": 1})
	ok, err := f.locks.AcquireLock(context.Background(), "checkout:lock:busy", "other-request", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		CartID: cartID, Shipping: guestShipping(), PaymentMethod: model.PaymentCashOnDelivery, IdempotencyKey: "busy",
	})
	assert.Equal(t, codes.Aborted, apperr.CodeOf(err))
	assert.Equal(t, "checkout.duplicate_submission", apperr.From(err).MessageID)
	assert.Empty(t, f.orders.orders)
}

func TestCreateOrderFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.CreateOrder(ctx, &dto.CreateOrderInput{CartID: uuid.New().String(), Shipping: guestShipping(), PaymentMethod: model.PaymentCashOnDelivery})
	assert.Equal(t, "checkout.idempotency_required", apperr.From(err).MessageID)

	_, err = f.uc.CreateOrder(ctx, &dto.CreateOrderInput{CartID: uuid.New().String(), Shipping: dto.ShippingInput{}, PaymentMethod: model.PaymentCashOnDelivery, IdempotencyKey: "k"})
	assert.Equal(t, codes.InvalidArgument, apperr.CodeOf(err))
	assert.Len(t, apperr.From(err).Fields, 5)

	_, err = f.uc.CreateOrder(ctx, &dto.CreateOrderInput{CartID: uuid.New().String(), Shipping: guestShipping(), PaymentMethod: model.PaymentCashOnDelivery, IdempotencyKey: "k"})
	assert.Equal(t, "cart.empty", apperr.From(err).MessageID)

	cartID := f.cartWith(t, map[string]int{"p1": 5})
	f.stock.levels["p1"] = 2
	_, err = f.uc.CreateOrder(ctx, &dto.CreateOrderInput{CartID: cartID, Shipping: guestShipping(), PaymentMethod: model.PaymentCashOnDelivery, IdempotencyKey: "k2"})
	assert.Equal(t, codes.FailedPrecondition, apperr.CodeOf(err))
	assert.Equal(t, "inventory.insufficient_stock", apperr.From(err).MessageID)
	assert.Empty(t, f.pub.events)

	view, err := f.carts.Get(ctx, cartID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1, "cart survives a failed order")

	ok, err := f.locks.AcquireLock(ctx, "checkout:lock:k2", "x", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "lock is released after failure")
}

func TestGuestCheckoutFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cartID := f.cartWith(t, map[string]int{"p1": 3})

	s, err := f.uc.StartSession(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepLogin, s.Step)

	_, _, err = f.uc.PlaceOrder(ctx, &dto.PlaceOrderInput{SessionID: s.ID, IdempotencyKey: "g1"})
	assert.Equal(t, "checkout.invalid_step", apperr.From(err).MessageID)

	s, err = f.uc.ContinueAsGuest(ctx, s.ID, "nasrin@example.com")
	require.NoError(t, err)
	assert.Equal(t, checkout.StepDetails, s.Step)

	sh := guestShipping()
	sh.Email = ""
	s, o, err := f.uc.PlaceOrder(ctx, &dto.PlaceOrderInput{
		SessionID: s.ID, Shipping: sh, PaymentMethod: model.PaymentMobileBanking, IdempotencyKey: "g1",
	})
	require.NoError(t, err)
	assert.Equal(t, checkout.StepConfirmation, s.Step)
	assert.Equal(t, o.ID, s.OrderID)
	assert.Equal(t, "nasrin@example.com", o.CustomerEmail)
	assert.Equal(t, 12000.0, o.Total, "free shipping at the threshold")

	again, o2, err := f.uc.PlaceOrder(ctx, &dto.PlaceOrderInput{SessionID: s.ID, IdempotencyKey: "g1"})
	require.NoError(t, err)
	assert.Equal(t, o.ID, o2.ID)
	assert.Equal(t, checkout.StepConfirmation, again.Step)

	_, err = f.uc.Back(ctx, s.ID)
	assert.Equal(t, codes.FailedPrecondition, apperr.CodeOf(err))
}

func TestAuthenticatedCheckoutPrefillsProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cartID := f.cartWith(t, map[string]int{"p2": 1})

	s, err := f.uc.StartSession(ctx, cartID)
	require.NoError(t, err)
	s, err = f.uc.Login(ctx, s.ID, "u1", "karim@buet.ac.bd")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Karim", s.Shipping.FullName)
	assert.Equal(t, "Dhaka", s.Shipping.City)

	_, _, err = f.uc.PlaceOrder(ctx, &dto.PlaceOrderInput{
		SessionID: s.ID, CallerID: "intruder", PaymentMethod: model.PaymentCashOnDelivery, IdempotencyKey: "a1",
	})
	assert.Equal(t, codes.PermissionDenied, apperr.CodeOf(err))

	_, o, err := f.uc.PlaceOrder(ctx, &dto.PlaceOrderInput{
		SessionID: s.ID, CallerID: "u1", PaymentMethod: model.PaymentCashOnDelivery, IdempotencyKey: "a1",
	})
	require.NoError(t, err)
	require.NotNil(t, o.UserID)
	assert.Equal(t, "u1", *o.UserID)
	assert.Equal(t, "Dr. Karim", o.CustomerName)
	assert.Equal(t, "+8801812345678", o.CustomerPhone)
	assert.Equal(t, 400.0, o.Total)
}

func TestStartSessionNeedsItems(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.StartSession(context.Background(), uuid.New().String())
	assert.Equal(t, "cart.empty", apperr.From(err).MessageID)

	_, err = f.uc.GetSession(context.Background(), "missing")
	assert.Equal(t, codes.NotFound, apperr.CodeOf(err))
}
