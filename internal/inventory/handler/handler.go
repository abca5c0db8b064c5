package handler

import (
	"net/http"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/auth"
	"github.com/fekuna/scistore-service/internal/httpapi"
	"github.com/fekuna/scistore-service/internal/inventory"
	"github.com/fekuna/scistore-service/internal/inventory/dto"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/logger"
)

type InventoryHandler struct {
	uc                inventory.UseCase
	resp              *httpapi.Responder
	lowStockThreshold int
	logger            logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, resp *httpapi.Responder, lowStockThreshold int, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:                uc,
		resp:              resp,
		lowStockThreshold: lowStockThreshold,
		logger:            log,
	}
}

func (h *InventoryHandler) Register(rt *httpapi.Router) {
	rt.Admin("POST /api/admin/inventory/adjust", model.PermProductsManage, h.AdjustInventory)
	rt.Admin("GET /api/admin/inventory/movements", model.PermProductsManage, h.ListMovements)
	rt.Admin("GET /api/admin/inventory/low-stock", model.PermProductsManage, h.ListLowStock)
	rt.Admin("GET /api/admin/inventory/{product_id}", model.PermProductsManage, h.GetStock)
}

type adjustRequest struct {
	ProductID      string `json:"product_id"`
	QuantityChange int    `json:"quantity_change"`
	MovementType   string `json:"movement_type"`
	Reason         string `json:"reason"`
	ReferenceType  string `json:"reference_type"`
	ReferenceID    string `json:"reference_id"`
}

func (h *InventoryHandler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	movement, err := h.uc.AdjustInventory(r.Context(), &dto.AdjustInventoryInput{
		ProductID:      req.ProductID,
		QuantityChange: req.QuantityChange,
		MovementType:   req.MovementType,
		Reason:         req.Reason,
		ReferenceType:  req.ReferenceType,
		ReferenceID:    req.ReferenceID,
		UserID:         auth.GetUserID(r.Context()),
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, movement)
}

func (h *InventoryHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	level, err := h.uc.GetStock(r.Context(), r.PathValue("product_id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, level)
}

func (h *InventoryHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	page := httpapi.IntParam(r, "page", 1, 1, 1<<20)
	size := httpapi.IntParam(r, "page_size", 20, 1, 100)
	threshold := httpapi.IntParam(r, "threshold", h.lowStockThreshold, 0, 1<<20)

	items, total, err := h.uc.ListLowStock(r.Context(), threshold, page, size)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if items == nil {
		items = []model.StockLevel{}
	}
	h.resp.JSON(w, http.StatusOK, httpapi.ListResponse[model.StockLevel]{
		Items: items, Total: total, Page: page, Size: size,
	})
}

func parseDate(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, apperr.Invalid("error.invalid_request")
		}
	}
	return &t, nil
}

func (h *InventoryHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := &dto.MovementFilters{
		ProductID:    q.Get("product_id"),
		MovementType: q.Get("movement_type"),
		ReferenceID:  q.Get("reference_id"),
		Page:         httpapi.IntParam(r, "page", 1, 1, 1<<20),
		PageSize:     httpapi.IntParam(r, "page_size", 50, 1, 200),
	}
	var err error
	if filters.StartDate, err = parseDate(r, "from"); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if filters.EndDate, err = parseDate(r, "to"); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	items, total, err := h.uc.ListMovements(r.Context(), filters)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if items == nil {
		items = []model.InventoryMovement{}
	}
	h.resp.JSON(w, http.StatusOK, httpapi.ListResponse[model.InventoryMovement]{
		Items: items, Total: total, Page: filters.Page, Size: filters.PageSize,
	})
}
