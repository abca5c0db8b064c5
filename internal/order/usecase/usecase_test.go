package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/events"
	invdto "github.com/fekuna/scistore-service/internal/inventory/dto"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/order/dto"
	"github.com/fekuna/scistore-service/pkg/database/postgres"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

type fakeRepo struct {
	mu     sync.Mutex
	orders map[string]model.Order
}

func (r *fakeRepo) Create(_ context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = *o
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (r *fakeRepo) FindByIdempotencyKey(_ context.Context, key string) (*model.Order, error) {
	return nil, nil
}

func (r *fakeRepo) FindAll(_ context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if f.UserID != "" && (o.UserID == nil || *o.UserID != f.UserID) {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, from, to model.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	r.orders[id] = o
	return true, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Envelope
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event.(*events.Envelope))
	return nil
}

type restocker struct {
	calls map[string][]invdto.StockLine
	err   error
}

func (r *restocker) Restock(_ context.Context, orderID string, lines []invdto.StockLine) error {
	if r.err != nil {
		return r.err
	}
	if r.calls == nil {
		r.calls = map[string][]invdto.StockLine{}
	}
	r.calls[orderID] = lines
	return nil
}

func newUseCase(repo *fakeRepo, p perms, pub *recordingPublisher) (*orderUseCase, *restocker) {
	stock := &restocker{}
	return NewOrderUseCase(repo, p, stock, postgres.NopTransactor{}, pub, logger.NewNop()).(*orderUseCase), stock
}

type perms map[string]bool

func (p perms) HasPermission(_ context.Context, userID, perm string) (bool, error) {
	return p[userID+":"+perm], nil
}

func seed() *fakeRepo {
	owner := "u1"
	pid := "p1"
	o := model.Order{OrderNumber: "ORD-20250101-ABCDEF", UserID: &owner, Status: model.OrderPending,
		Items: []model.OrderItem{{ProductID: &pid, ProductName: "Beaker", Quantity: 3}}}
	o.ID = "o1"
	guest := model.Order{OrderNumber: "ORD-20250101-000001", Status: model.OrderPending}
	guest.ID = "o2"
	return &fakeRepo{orders: map[string]model.Order{"o1": o, "o2": guest}}
}

func TestGetOrderFor(t *testing.T) {
	uc, _ := newUseCase(seed(), perms{"staff:orders.view": true}, &recordingPublisher{})
	ctx := context.Background()

	o, err := uc.GetOrderFor(ctx, "u1", "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)

	_, err = uc.GetOrderFor(ctx, "u2", "o1")
	assert.Equal(t, codes.NotFound, apperr.CodeOf(err))

	_, err = uc.GetOrderFor(ctx, "staff", "o2")
	assert.NoError(t, err)

	_, err = uc.GetOrderFor(ctx, "u1", "missing")
	assert.Equal(t, codes.NotFound, apperr.CodeOf(err))
}

func TestUpdateStatusPublishesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	repo := seed()
	uc, _ := newUseCase(repo, perms{}, pub)

	o, err := uc.UpdateStatus(context.Background(), "o1", model.OrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.OrderConfirmed, o.Status)
	assert.Equal(t, model.OrderConfirmed, repo.orders["o1"].Status)

	_, err = uc.UpdateStatus(context.Background(), "o1", model.OrderConfirmed)
	assert.Equal(t, codes.FailedPrecondition, apperr.CodeOf(err))

	_, err = uc.UpdateStatus(context.Background(), "o1", model.OrderDelivered)
	ae := apperr.From(err)
	assert.Equal(t, "order.invalid_transition", ae.MessageID)
	assert.Equal(t, "confirmed", ae.Data["From"])

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.OrderStatusChanged, pub.events[0].EventType)
	var payload events.StatusChangedPayload
	require.NoError(t, json.Unmarshal(pub.events[0].Payload, &payload))
	assert.Equal(t, "pending", payload.From)
	assert.Equal(t, "confirmed", payload.To)
	assert.Equal(t, 3, payload.Items[0].Quantity)
}

func TestCancelMine(t *testing.T) {
	pub := &recordingPublisher{}
	repo := seed()
	uc, _ := newUseCase(repo, perms{}, pub)
	ctx := context.Background()

	_, err := uc.CancelMine(ctx, "u2", "o1")
	assert.Equal(t, codes.NotFound, apperr.CodeOf(err))
	_, err = uc.CancelMine(ctx, "", "o2")
	assert.Equal(t, codes.NotFound, apperr.CodeOf(err))

	o, err := uc.CancelMine(ctx, "u1", "o1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, o.Status)

	_, err = uc.CancelMine(ctx, "u1", "o1")
	assert.Equal(t, codes.FailedPrecondition, apperr.CodeOf(err))
	assert.Len(t, pub.events, 1)
}

func TestCancelRestocksWithoutBroker(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("kafka down")}
	repo := seed()
	uc, stock := newUseCase(repo, perms{}, pub)

	o, err := uc.UpdateStatus(context.Background(), "o1", model.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, o.Status)
	assert.Empty(t, pub.events)
	assert.Equal(t, []invdto.StockLine{{ProductID: "p1", Name: "Beaker", Quantity: 3}}, stock.calls["o1"])
}

func TestOnlyCancellationRestocks(t *testing.T) {
	repo := seed()
	uc, stock := newUseCase(repo, perms{}, &recordingPublisher{})

	_, err := uc.UpdateStatus(context.Background(), "o1", model.OrderConfirmed)
	require.NoError(t, err)
	assert.Empty(t, stock.calls)
}

func TestCancelFailsWhenRestockFails(t *testing.T) {
	pub := &recordingPublisher{}
	uc, stock := newUseCase(seed(), perms{}, pub)
	stock.err = apperr.Internal(errors.New("db down"))

	_, err := uc.UpdateStatus(context.Background(), "o1", model.OrderCancelled)
	assert.Equal(t, codes.Internal, apperr.CodeOf(err))
	assert.Empty(t, pub.events)
}

func TestConcurrentUpdateIsAborted(t *testing.T) {
	repo := seed()
	uc, _ := newUseCase(repo, perms{}, &recordingPublisher{})

	stale, err := uc.GetOrder(context.Background(), "o1")
	require.NoError(t, err)
	_, err = uc.UpdateStatus(context.Background(), "o1", model.OrderCancelled)
	require.NoError(t, err)

	_, err = uc.transition(context.Background(), stale, model.OrderConfirmed)
	assert.Equal(t, codes.Aborted, apperr.CodeOf(err))
}

func TestListOrders(t *testing.T) {
	uc, _ := newUseCase(seed(), perms{}, &recordingPublisher{})

	mine, total, err := uc.ListMine(context.Background(), "u1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "o1", mine[0].ID)

	_, _, err = uc.ListMine(context.Background(), "", 1, 10)
	assert.Equal(t, codes.Unauthenticated, apperr.CodeOf(err))

	_, _, err = uc.ListOrders(context.Background(), &dto.OrderFilters{Status: "bogus"})
	assert.Equal(t, codes.InvalidArgument, apperr.CodeOf(err))
}
