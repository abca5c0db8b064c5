package handler

import (
	"net/http"
	"strings"

	"github.com/fekuna/scistore-service/internal/auth"
	"github.com/fekuna/scistore-service/internal/checkout"
	"github.com/fekuna/scistore-service/internal/checkout/dto"
	"github.com/fekuna/scistore-service/internal/httpapi"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/logger"
)

type CheckoutHandler struct {
	uc     checkout.UseCase
	resp   *httpapi.Responder
	logger logger.ZapLogger
}

func NewCheckoutHandler(uc checkout.UseCase, resp *httpapi.Responder, log logger.ZapLogger) *CheckoutHandler {
	return &CheckoutHandler{
		uc:     uc,
		resp:   resp,
		logger: log,
	}
}

func (h *CheckoutHandler) Register(rt *httpapi.Router) {
	rt.Public("POST /api/checkout/sessions", h.StartSession)
	rt.Public("GET /api/checkout/sessions/{id}", h.GetSession)
	rt.Authed("POST /api/checkout/sessions/{id}/login", h.Login)
	rt.Public("POST /api/checkout/sessions/{id}/guest", h.ContinueAsGuest)
	rt.Public("POST /api/checkout/sessions/{id}/back", h.Back)
	rt.Public("POST /api/checkout/sessions/{id}/place-order", h.PlaceOrder)
	rt.Public("POST /api/functions/create-order", h.CreateOrder)
}

type shippingRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Institution string `json:"institution"`
	Address     string `json:"address"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	Notes       string `json:"notes"`
}

func (s shippingRequest) input() dto.ShippingInput {
	return dto.ShippingInput{
		FullName:    s.FullName,
		Email:       s.Email,
		Phone:       s.Phone,
		Institution: s.Institution,
		Address:     s.Address,
		City:        s.City,
		PostalCode:  s.PostalCode,
		Notes:       s.Notes,
	}
}

type orderRequest struct {
	CartID         string          `json:"cart_id"`
	Shipping       shippingRequest `json:"shipping"`
	PaymentMethod  string          `json:"payment_method"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// idempotencyKey prefers the Idempotency-Key header over the body field.
func idempotencyKey(r *http.Request, body string) string {
	if k := strings.TrimSpace(r.Header.Get("Idempotency-Key")); k != "" {
		return k
	}
	return body
}

func (h *CheckoutHandler) session(w http.ResponseWriter, r *http.Request, code int, s *checkout.Session, err error) {
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, code, s)
}

func (h *CheckoutHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CartID string `json:"cart_id"`
	}
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	s, err := h.uc.StartSession(r.Context(), req.CartID)
	h.session(w, r, http.StatusCreated, s, err)
}

func (h *CheckoutHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.uc.GetSession(r.Context(), r.PathValue("id"))
	h.session(w, r, http.StatusOK, s, err)
}

func (h *CheckoutHandler) Login(w http.ResponseWriter, r *http.Request) {
	u := auth.FromContext(r.Context())
	s, err := h.uc.Login(r.Context(), r.PathValue("id"), u.UserID, u.Email)
	h.session(w, r, http.StatusOK, s, err)
}

func (h *CheckoutHandler) ContinueAsGuest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	s, err := h.uc.ContinueAsGuest(r.Context(), r.PathValue("id"), req.Email)
	h.session(w, r, http.StatusOK, s, err)
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	s, err := h.uc.Back(r.Context(), r.PathValue("id"))
	h.session(w, r, http.StatusOK, s, err)
}

func (h *CheckoutHandler) placed(r *http.Request, o *model.Order) string {
	return h.resp.Message(r, "order.placed", map[string]any{"OrderNumber": o.OrderNumber})
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	s, o, err := h.uc.PlaceOrder(r.Context(), &dto.PlaceOrderInput{
		SessionID:      r.PathValue("id"),
		CallerID:       auth.GetUserID(r.Context()),
		Shipping:       req.Shipping.input(),
		PaymentMethod:  model.PaymentMethod(req.PaymentMethod),
		IdempotencyKey: idempotencyKey(r, req.IdempotencyKey),
		Language:       auth.GetLang(r.Context()),
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusCreated, map[string]any{
		"session": s,
		"order":   o,
		"message": h.placed(r, o),
	})
}

func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	o, err := h.uc.CreateOrder(r.Context(), &dto.CreateOrderInput{
		CartID:         req.CartID,
		UserID:         auth.GetUserID(r.Context()),
		Shipping:       req.Shipping.input(),
		PaymentMethod:  model.PaymentMethod(req.PaymentMethod),
		IdempotencyKey: idempotencyKey(r, req.IdempotencyKey),
		Language:       auth.GetLang(r.Context()),
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusCreated, map[string]any{
		"order":   o,
		"message": h.placed(r, o),
	})
}
