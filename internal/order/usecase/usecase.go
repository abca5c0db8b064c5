package usecase

import (
	"context"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/events"
	invdto "github.com/fekuna/scistore-service/internal/inventory/dto"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/order"
	"github.com/fekuna/scistore-service/internal/order/dto"
	"github.com/fekuna/scistore-service/pkg/broker"
	"github.com/fekuna/scistore-service/pkg/database/postgres"
	"github.com/fekuna/scistore-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
)

// PermissionChecker is satisfied by the access usecase.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID, permission string) (bool, error)
}

// Restocker is satisfied by the inventory usecase. Restock must be safe to
// repeat for the same order.
type Restocker interface {
	Restock(ctx context.Context, orderID string, lines []invdto.StockLine) error
}

type orderUseCase struct {
	repo      order.Repository
	perms     PermissionChecker
	stock     Restocker
	tx        postgres.Transactor
	publisher broker.Publisher
	logger    logger.ZapLogger
}

func NewOrderUseCase(repo order.Repository, perms PermissionChecker, stock Restocker, tx postgres.Transactor, publisher broker.Publisher, log logger.ZapLogger) order.UseCase {
	return &orderUseCase{
		repo:      repo,
		perms:     perms,
		stock:     stock,
		tx:        tx,
		publisher: publisher,
		logger:    log,
	}
}

func (uc *orderUseCase) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if o == nil {
		return nil, apperr.NotFound("order.not_found")
	}
	return o, nil
}

func owns(o *model.Order, userID string) bool {
	return userID != "" && o.UserID != nil && *o.UserID == userID
}

func (uc *orderUseCase) GetOrderFor(ctx context.Context, userID, id string) (*model.Order, error) {
	o, err := uc.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if owns(o, userID) {
		return o, nil
	}
	ok, err := uc.perms.HasPermission(ctx, userID, model.PermOrdersView)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Someone else's order looks the same as a missing one.
		return nil, apperr.NotFound("order.not_found")
	}
	return o, nil
}

func (uc *orderUseCase) ListMine(ctx context.Context, userID string, page, pageSize int) ([]model.Order, int, error) {
	if userID == "" {
		return nil, 0, apperr.Unauthenticated()
	}
	return uc.ListOrders(ctx, &dto.OrderFilters{UserID: userID, Page: page, PageSize: pageSize})
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		v := apperr.NewValidator()
		v.Add("status", "validation.enum")
		return nil, 0, v.Err()
	}
	orders, total, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return orders, total, nil
}

func (uc *orderUseCase) UpdateStatus(ctx context.Context, id string, to model.OrderStatus) (*model.Order, error) {
	o, err := uc.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.transition(ctx, o, to)
}

func (uc *orderUseCase) CancelMine(ctx context.Context, userID, id string) (*model.Order, error) {
	o, err := uc.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owns(o, userID) {
		return nil, apperr.NotFound("order.not_found")
	}
	if o.Status != model.OrderPending {
		return nil, apperr.Precondition("order.invalid_transition").
			WithData(map[string]any{"From": string(o.Status), "To": string(model.OrderCancelled)})
	}
	return uc.transition(ctx, o, model.OrderCancelled)
}

func (uc *orderUseCase) transition(ctx context.Context, o *model.Order, to model.OrderStatus) (*model.Order, error) {
	from := o.Status
	if err := order.CheckTransition(from, to); err != nil {
		return nil, err
	}

	// Cancellation returns the stock in the same transaction as the status.
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := uc.repo.UpdateStatus(ctx, o.ID, from, to)
		if err != nil {
			return apperr.Internal(err)
		}
		if !ok {
			return apperr.Aborted("order.concurrent_update")
		}
		if to != model.OrderCancelled {
			return nil
		}
		return uc.stock.Restock(ctx, o.ID, stockLines(o.Items))
	})
	if err != nil {
		if apperr.CodeOf(err) == codes.Internal {
			uc.logger.Error("failed to update order status", zap.String("order_id", o.ID), zap.Error(err))
		}
		return nil, err
	}
	o.Status = to
	o.UpdatedAt = time.Now()

	uc.logger.Info("order status changed",
		zap.String("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	uc.publishStatusChanged(ctx, o, from)
	return o, nil
}

func stockLines(items []model.OrderItem) []invdto.StockLine {
	lines := make([]invdto.StockLine, 0, len(items))
	for _, it := range items {
		if it.ProductID == nil {
			continue
		}
		lines = append(lines, invdto.StockLine{ProductID: *it.ProductID, Name: it.ProductName, Quantity: it.Quantity})
	}
	return lines
}

func (uc *orderUseCase) publishStatusChanged(ctx context.Context, o *model.Order, from model.OrderStatus) {
	payload := events.StatusChangedPayload{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		From:        string(from),
		To:          string(o.Status),
		Items:       order.EventItems(o.Items),
	}
	env, err := events.New(events.OrderStatusChanged, payload)
	if err == nil {
		err = uc.publisher.Publish(ctx, o.ID, env)
	}
	if err != nil {
		// The status change is already committed.
		uc.logger.Error("failed to publish order status change", zap.String("order_id", o.ID), zap.Error(err))
	}
}
