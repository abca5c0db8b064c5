package handler

import (
	"net/http"

	"github.com/fekuna/scistore-service/internal/cart"
	"github.com/fekuna/scistore-service/internal/httpapi"
	"github.com/fekuna/scistore-service/pkg/logger"
)

type CartHandler struct {
	uc     cart.UseCase
	resp   *httpapi.Responder
	logger logger.ZapLogger
}

func NewCartHandler(uc cart.UseCase, resp *httpapi.Responder, log logger.ZapLogger) *CartHandler {
	return &CartHandler{
		uc:     uc,
		resp:   resp,
		logger: log,
	}
}

func (h *CartHandler) Register(rt *httpapi.Router) {
	rt.Public("POST /api/carts", h.Create)
	rt.Public("GET /api/carts/{id}", h.Get)
	rt.Public("DELETE /api/carts/{id}", h.Clear)
	rt.Public("POST /api/carts/{id}/refresh", h.Refresh)
	rt.Public("POST /api/carts/{id}/items", h.AddItem)
	rt.Public("PATCH /api/carts/{id}/items/{product_id}", h.SetQuantity)
	rt.Public("DELETE /api/carts/{id}/items/{product_id}", h.RemoveItem)
}

type itemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

func (h *CartHandler) write(w http.ResponseWriter, r *http.Request, code int, v *cart.View, err error) {
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, code, v)
}

func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	v, err := h.uc.Create(r.Context())
	h.write(w, r, http.StatusCreated, v, err)
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.uc.Get(r.Context(), r.PathValue("id"))
	h.write(w, r, http.StatusOK, v, err)
}

func (h *CartHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	v, err := h.uc.Refresh(r.Context(), r.PathValue("id"))
	h.write(w, r, http.StatusOK, v, err)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	v, err := h.uc.AddItem(r.Context(), r.PathValue("id"), req.ProductID, qty)
	h.write(w, r, http.StatusOK, v, err)
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	qty := 0
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	v, err := h.uc.SetQuantity(r.Context(), r.PathValue("id"), r.PathValue("product_id"), qty)
	h.write(w, r, http.StatusOK, v, err)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	v, err := h.uc.RemoveItem(r.Context(), r.PathValue("id"), r.PathValue("product_id"))
	h.write(w, r, http.StatusOK, v, err)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.Clear(r.Context(), r.PathValue("id")); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.NoContent(w)
}
