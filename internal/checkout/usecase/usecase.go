package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/cart"
	"github.com/fekuna/scistore-service/internal/checkout"
	"github.com/fekuna/scistore-service/internal/checkout/dto"
	"github.com/fekuna/scistore-service/internal/events"
	"github.com/fekuna/scistore-service/internal/inventory"
	invdto "github.com/fekuna/scistore-service/internal/inventory/dto"
	"github.com/fekuna/scistore-service/internal/metrics"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/order"
	"github.com/fekuna/scistore-service/pkg/broker"
	"github.com/fekuna/scistore-service/pkg/cache"
	"github.com/fekuna/scistore-service/pkg/database/postgres"
	"github.com/fekuna/scistore-service/pkg/i18n"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
)

// orderNumberAttempts bounds retries on order number collisions.
const orderNumberAttempts = 5

// ProfileReader prefills checkout details for signed-in customers.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
}

type Deps struct {
	Sessions  checkout.SessionRepository
	Carts     cart.UseCase
	Orders    order.Repository
	Inventory inventory.UseCase
	Profiles  ProfileReader
	Tx        postgres.Transactor
	Locks     cache.Store
	Publisher broker.Publisher
	Metrics   *metrics.Metrics
}

type Options struct {
	Currency string
	LockTTL  time.Duration
}

type checkoutUseCase struct {
	Deps
	opts   Options
	logger logger.ZapLogger
	now    func() time.Time
}

func NewCheckoutUseCase(deps Deps, opts Options, log logger.ZapLogger) checkout.UseCase {
	if opts.Currency == "" {
		opts.Currency = "BDT"
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	return &checkoutUseCase{
		Deps:   deps,
		opts:   opts,
		logger: log,
		now:    time.Now,
	}
}

func (uc *checkoutUseCase) load(ctx context.Context, id string) (*checkout.Session, error) {
	s, err := uc.Sessions.Get(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if s == nil {
		return nil, apperr.NotFound("checkout.session_not_found")
	}
	return s, nil
}

func (uc *checkoutUseCase) save(ctx context.Context, s *checkout.Session) error {
	s.UpdatedAt = uc.now()
	if err := uc.Sessions.Save(ctx, s); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (uc *checkoutUseCase) StartSession(ctx context.Context, cartID string) (*checkout.Session, error) {
	view, err := uc.Carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, apperr.Precondition("cart.empty")
	}
	s := checkout.NewSession(view.ID, uc.now())
	if err := uc.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (uc *checkoutUseCase) GetSession(ctx context.Context, id string) (*checkout.Session, error) {
	return uc.load(ctx, id)
}

func (uc *checkoutUseCase) Login(ctx context.Context, id, userID, email string) (*checkout.Session, error) {
	s, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.AuthenticatedAs(userID, email); err != nil {
		return nil, err
	}
	s.Shipping = uc.prefill(ctx, userID, s.Shipping)
	if err := uc.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (uc *checkoutUseCase) ContinueAsGuest(ctx context.Context, id, email string) (*checkout.Session, error) {
	s, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ContinueAsGuest(email); err != nil {
		return nil, err
	}
	if err := uc.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (uc *checkoutUseCase) Back(ctx context.Context, id string) (*checkout.Session, error) {
	s, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Back(); err != nil {
		return nil, err
	}
	if err := uc.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// prefill fills blank shipping fields from the customer's profile.
func (uc *checkoutUseCase) prefill(ctx context.Context, userID string, sh checkout.Shipping) checkout.Shipping {
	if userID == "" || uc.Profiles == nil {
		return sh
	}
	p, err := uc.Profiles.GetProfile(ctx, userID)
	if err != nil {
		if apperr.CodeOf(err) != codes.NotFound {
			uc.logger.Warn("failed to load profile for checkout", zap.String("user_id", userID), zap.Error(err))
		}
		return sh
	}
	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = src
		}
	}
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	fill(&sh.FullName, p.FullName)
	fill(&sh.Email, p.Email)
	fill(&sh.Phone, deref(p.Phone))
	fill(&sh.Institution, deref(p.Institution))
	fill(&sh.Address, deref(p.Address))
	fill(&sh.City, deref(p.City))
	return sh
}

func toShipping(in dto.ShippingInput) checkout.Shipping {
	return checkout.Shipping{
		FullName:    in.FullName,
		Email:       in.Email,
		Phone:       in.Phone,
		Institution: in.Institution,
		Address:     in.Address,
		City:        in.City,
		PostalCode:  in.PostalCode,
		Notes:       in.Notes,
	}
}

func (uc *checkoutUseCase) PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*checkout.Session, *model.Order, error) {
	s, err := uc.load(ctx, input.SessionID)
	if err != nil {
		return nil, nil, err
	}

	// A retried submit after success lands on the confirmation step.
	if s.Step == checkout.StepConfirmation && s.OrderID != "" {
		o, err := uc.Orders.FindByID(ctx, s.OrderID)
		if err != nil {
			return nil, nil, apperr.Internal(err)
		}
		if o == nil {
			return nil, nil, apperr.NotFound("order.not_found")
		}
		return s, o, nil
	}
	if s.Step != checkout.StepDetails {
		return nil, nil, apperr.Precondition("checkout.invalid_step")
	}
	if !s.Guest && s.UserID != input.CallerID {
		return nil, nil, apperr.Forbidden()
	}

	sh := input.Shipping
	if s.Guest && strings.TrimSpace(sh.Email) == "" {
		sh.Email = s.Shipping.Email
	}

	o, err := uc.CreateOrder(ctx, &dto.CreateOrderInput{
		CartID:         s.CartID,
		UserID:         s.UserID,
		Shipping:       sh,
		PaymentMethod:  input.PaymentMethod,
		IdempotencyKey: input.IdempotencyKey,
		Language:       input.Language,
	})
	if err != nil {
		return nil, nil, err
	}

	s.Shipping = toShipping(sh).Normalize()
	s.PaymentMethod = input.PaymentMethod
	if err := s.Confirm(o); err != nil {
		return nil, nil, err
	}
	if err := uc.save(ctx, s); err != nil {
		// The order exists; the client still gets it.
		uc.logger.Error("failed to save confirmed checkout session", zap.String("session_id", s.ID), zap.Error(err))
	}
	return s, o, nil
}

// findByKey returns the order already placed under key. Only the same cart
// and caller may replay it.
func (uc *checkoutUseCase) findByKey(ctx context.Context, key string, input *dto.CreateOrderInput) (*model.Order, error) {
	o, err := uc.Orders.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if o == nil {
		return nil, nil
	}
	sameCart := o.CartID != nil && *o.CartID == input.CartID
	sameCaller := (o.UserID == nil && input.UserID == "") || (o.UserID != nil && *o.UserID == input.UserID)
	if !sameCart || !sameCaller {
		uc.logger.Warn("idempotency key reused by another checkout", zap.String("order_id", o.ID))
		return nil, apperr.Conflict("checkout.idempotency_conflict")
	}
	return o, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (uc *checkoutUseCase) CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error) {
	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" || len(key) > 128 {
		return nil, apperr.Invalid("checkout.idempotency_required")
	}

	sh := uc.prefill(ctx, input.UserID, toShipping(input.Shipping)).Normalize()
	if err := checkout.ValidateDetails(sh, input.PaymentMethod); err != nil {
		return nil, err
	}

	if o, err := uc.findByKey(ctx, key, input); err != nil || o != nil {
		return o, err
	}

	lockKey := "checkout:lock:" + key
	lockValue := uuid.New().String()
	ok, err := uc.Locks.AcquireLock(ctx, lockKey, lockValue, uc.opts.LockTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.Aborted("checkout.duplicate_submission")
	}
	defer func() {
		if err := uc.Locks.ReleaseLock(context.WithoutCancel(ctx), lockKey, lockValue); err != nil {
			uc.logger.Warn("failed to release checkout lock", zap.String("key", key), zap.Error(err))
		}
	}()

	// The previous holder may have finished between the lookup and the lock.
	if o, err := uc.findByKey(ctx, key, input); err != nil || o != nil {
		return o, err
	}

	view, err := uc.Carts.Refresh(ctx, input.CartID)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, apperr.Precondition("cart.empty")
	}

	o := uc.buildOrder(input, sh, key, view)
	lines := make([]invdto.StockLine, len(o.Items))
	for i, it := range o.Items {
		lines[i] = invdto.StockLine{ProductID: *it.ProductID, Name: it.ProductName, Quantity: it.Quantity}
	}

	err = uc.insert(ctx, o, lines)
	if err != nil {
		if apperr.CodeOf(err) == codes.Internal {
			uc.logger.Error("failed to create order", zap.String("cart_id", input.CartID), zap.Error(err))
		}
		return nil, err
	}

	uc.logger.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("payment_method", string(o.PaymentMethod)),
		zap.Float64("total", o.Total),
	)
	uc.Metrics.OrderCreated(string(o.PaymentMethod))
	uc.publishCreated(ctx, o)
	if err := uc.Carts.Clear(ctx, input.CartID); err != nil {
		uc.logger.Warn("failed to clear cart after order", zap.String("cart_id", input.CartID), zap.Error(err))
	}
	return o, nil
}

// insert stores the order and reserves its stock in one transaction. A taken
// order number rolls the transaction back and is retried with a fresh one.
func (uc *checkoutUseCase) insert(ctx context.Context, o *model.Order, lines []invdto.StockLine) error {
	for attempt := 1; ; attempt++ {
		err := uc.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := uc.Orders.Create(ctx, o); err != nil {
				return err
			}
			return uc.Inventory.Reserve(ctx, o.ID, lines)
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, order.ErrDuplicateNumber) && attempt < orderNumberAttempts:
			uc.logger.Warn("order number collided, retrying", zap.String("order_number", o.OrderNumber))
			o.OrderNumber = checkout.OrderNumber(uc.now())
		default:
			return apperr.From(err)
		}
	}
}

func (uc *checkoutUseCase) buildOrder(input *dto.CreateOrderInput, sh checkout.Shipping, key string, view *cart.View) *model.Order {
	now := uc.now()
	o := &model.Order{
		OrderNumber:        checkout.OrderNumber(now),
		UserID:             optional(input.UserID),
		CustomerName:       sh.FullName,
		CustomerEmail:      sh.Email,
		CustomerPhone:      sh.Phone,
		Institution:        optional(sh.Institution),
		ShippingAddress:    sh.Address,
		ShippingCity:       sh.City,
		ShippingPostalCode: optional(sh.PostalCode),
		Notes:              optional(sh.Notes),
		PaymentMethod:      input.PaymentMethod,
		Status:             model.OrderPending,
		Subtotal:           view.Totals.Subtotal,
		ShippingFee:        view.Totals.ShippingFee,
		Total:              view.Totals.Total,
		Currency:           uc.opts.Currency,
		Language:           i18n.Normalize(input.Language),
		IdempotencyKey:     &key,
		CartID:             optional(input.CartID),
	}
	o.ID = uuid.New().String()
	o.CreatedAt = now
	o.UpdatedAt = now

	o.Items = make([]model.OrderItem, len(view.Items))
	for i, it := range view.Items {
		pid := it.ProductID
		o.Items[i] = model.OrderItem{
			ID:          uuid.New().String(),
			OrderID:     o.ID,
			ProductID:   &pid,
			ProductName: it.NameEn,
			SKU:         it.SKU,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal(),
		}
	}
	return o
}

func (uc *checkoutUseCase) publishCreated(ctx context.Context, o *model.Order) {
	env, err := events.New(events.OrderCreated, events.OrderPayload{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		CustomerEmail: o.CustomerEmail,
		PaymentMethod: string(o.PaymentMethod),
		Total:         o.Total,
		Currency:      o.Currency,
		Items:         order.EventItems(o.Items),
	})
	if err == nil {
		err = uc.Publisher.Publish(ctx, o.ID, env)
	}
	if err != nil {
		uc.logger.Error("failed to publish order created", zap.String("order_id", o.ID), zap.Error(err))
	}
}
