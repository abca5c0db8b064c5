package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/auth"
	"github.com/fekuna/scistore-service/internal/httpapi"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/order"
	"github.com/fekuna/scistore-service/internal/order/dto"
	"github.com/fekuna/scistore-service/pkg/logger"
)

type OrderHandler struct {
	uc     order.UseCase
	resp   *httpapi.Responder
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, resp *httpapi.Responder, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		uc:     uc,
		resp:   resp,
		logger: log,
	}
}

func (h *OrderHandler) Register(rt *httpapi.Router) {
	rt.Authed("GET /api/me/orders", h.ListMine)
	rt.Authed("GET /api/me/orders/{id}", h.GetMine)
	rt.Authed("POST /api/me/orders/{id}/cancel", h.CancelMine)

	rt.Admin("GET /api/admin/orders", model.PermOrdersView, h.ListOrders)
	rt.Admin("GET /api/admin/orders/{id}", model.PermOrdersView, h.GetOrder)
	rt.Admin("PUT /api/admin/orders/{id}/status", model.PermOrdersManage, h.UpdateStatus)
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request, orders []model.Order, total, page, size int) {
	if orders == nil {
		orders = []model.Order{}
	}
	h.resp.JSON(w, http.StatusOK, httpapi.ListResponse[model.Order]{
		Items: orders, Total: total, Page: page, Size: size,
	})
}

func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	page := httpapi.IntParam(r, "page", 1, 1, 1<<20)
	size := httpapi.IntParam(r, "page_size", 10, 1, 50)
	orders, total, err := h.uc.ListMine(r.Context(), auth.GetUserID(r.Context()), page, size)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.list(w, r, orders, total, page, size)
}

func (h *OrderHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	o, err := h.uc.GetOrderFor(r.Context(), auth.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) CancelMine(w http.ResponseWriter, r *http.Request) {
	o, err := h.uc.CancelMine(r.Context(), auth.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, o)
}

func parseDay(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, apperr.Invalid("error.invalid_request")
	}
	return &t, nil
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := &dto.OrderFilters{
		Status:   model.OrderStatus(strings.ToLower(q.Get("status"))),
		Search:   strings.TrimSpace(q.Get("q")),
		Page:     httpapi.IntParam(r, "page", 1, 1, 1<<20),
		PageSize: httpapi.IntParam(r, "page_size", 20, 1, 100),
	}
	var err error
	if filters.From, err = parseDay(q.Get("from")); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if filters.To, err = parseDay(q.Get("to")); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if filters.To != nil {
		// "to" is inclusive of the whole day.
		end := filters.To.AddDate(0, 0, 1)
		filters.To = &end
	}

	orders, total, err := h.uc.ListOrders(r.Context(), filters)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.list(w, r, orders, total, filters.Page, filters.PageSize)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.uc.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, o)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	o, err := h.uc.UpdateStatus(r.Context(), r.PathValue("id"), model.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status))))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, o)
}
