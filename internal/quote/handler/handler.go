package handler

import (
	"net/http"
	"strings"

	"github.com/fekuna/scistore-service/internal/auth"
	"github.com/fekuna/scistore-service/internal/httpapi"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/quote"
	"github.com/fekuna/scistore-service/internal/quote/dto"
	"github.com/fekuna/scistore-service/pkg/logger"
)

type QuoteHandler struct {
	uc     quote.UseCase
	resp   *httpapi.Responder
	logger logger.ZapLogger
}

func NewQuoteHandler(uc quote.UseCase, resp *httpapi.Responder, log logger.ZapLogger) *QuoteHandler {
	return &QuoteHandler{
		uc:     uc,
		resp:   resp,
		logger: log,
	}
}

func (h *QuoteHandler) Register(rt *httpapi.Router) {
	rt.Public("POST /api/quotes/validate", h.ValidateStep)
	rt.Public("POST /api/quotes", h.Submit)

	rt.Admin("GET /api/admin/quotes", model.PermQuotesManage, h.ListQuotes)
	rt.Admin("GET /api/admin/quotes/{id}", model.PermQuotesManage, h.GetQuote)
	rt.Admin("PUT /api/admin/quotes/{id}/status", model.PermQuotesManage, h.UpdateStatus)
	rt.Admin("POST /api/admin/quotes/{id}/notify", model.PermQuotesManage, h.Resend)
	rt.Admin("POST /api/functions/send-quote-notification", model.PermQuotesManage, h.SendNotification)
}

type validateRequest struct {
	Step  string      `json:"step"`
	Draft quote.Draft `json:"draft"`
}

func (h *QuoteHandler) ValidateStep(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	step := quote.Step(strings.ToLower(strings.TrimSpace(req.Step)))
	if err := h.uc.ValidateStep(r.Context(), step, req.Draft); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, map[string]any{"step": step, "valid": true})
}

func (h *QuoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var draft quote.Draft
	if err := httpapi.DecodeJSON(r, &draft); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	q, err := h.uc.Submit(r.Context(), &quote.SubmitInput{
		Draft:    draft,
		UserID:   auth.GetUserID(r.Context()),
		Language: auth.GetLang(r.Context()),
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusCreated, map[string]any{
		"quote":   q,
		"message": h.resp.Message(r, "quote.submitted", map[string]any{"Reference": q.ReferenceNumber}),
	})
}

func (h *QuoteHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := &dto.QuoteFilters{
		Status:   model.QuoteStatus(strings.ToLower(q.Get("status"))),
		Search:   strings.TrimSpace(q.Get("q")),
		Page:     httpapi.IntParam(r, "page", 1, 1, 1<<20),
		PageSize: httpapi.IntParam(r, "page_size", 20, 1, 100),
	}
	quotes, total, err := h.uc.ListQuotes(r.Context(), filters)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if quotes == nil {
		quotes = []model.QuoteRequest{}
	}
	h.resp.JSON(w, http.StatusOK, httpapi.ListResponse[model.QuoteRequest]{
		Items: quotes, Total: total, Page: filters.Page, Size: filters.PageSize,
	})
}

func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.uc.GetQuote(r.Context(), r.PathValue("id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	q, err := h.uc.UpdateStatus(r.Context(), r.PathValue("id"), model.QuoteStatus(strings.ToLower(strings.TrimSpace(req.Status))))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) Resend(w http.ResponseWriter, r *http.Request) {
	h.notify(w, r, r.PathValue("id"))
}

// SendNotification is the function-style endpoint; the id comes in the body.
func (h *QuoteHandler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuoteID string `json:"quote_id"`
	}
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.notify(w, r, req.QuoteID)
}

func (h *QuoteHandler) notify(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.uc.SendNotification(r.Context(), id); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, map[string]any{"quote_id": id, "sent": true})
}
