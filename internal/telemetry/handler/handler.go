package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/auth"
	"github.com/fekuna/scistore-service/internal/httpapi"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/telemetry"
	"github.com/fekuna/scistore-service/internal/telemetry/dto"
	"github.com/fekuna/scistore-service/pkg/logger"
)

type TelemetryHandler struct {
	uc     telemetry.UseCase
	resp   *httpapi.Responder
	logger logger.ZapLogger
}

func NewTelemetryHandler(uc telemetry.UseCase, resp *httpapi.Responder, log logger.ZapLogger) *TelemetryHandler {
	return &TelemetryHandler{
		uc:     uc,
		resp:   resp,
		logger: log,
	}
}

func (h *TelemetryHandler) Register(rt *httpapi.Router) {
	rt.Public("POST /api/telemetry", h.Record)
	rt.Admin("GET /api/admin/telemetry/summary", model.PermTelemetryView, h.Summary)
}

type eventRequest struct {
	EventType string          `json:"event_type"`
	SessionID string          `json:"session_id"`
	Path      string          `json:"path"`
	ProductID string          `json:"product_id"`
	Payload   json.RawMessage `json:"payload"`
}

func (h *TelemetryHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	e, err := h.uc.Record(r.Context(), &dto.EventInput{
		EventType: req.EventType,
		SessionID: req.SessionID,
		Path:      req.Path,
		ProductID: req.ProductID,
		Payload:   req.Payload,
		UserID:    auth.GetUserID(r.Context()),
		Language:  auth.GetLang(r.Context()),
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusAccepted, map[string]string{"id": e.ID})
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, apperr.Invalid("error.invalid_request")
	}
	return t, nil
}

func (h *TelemetryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseTime(q.Get("from"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	to, err := parseTime(q.Get("to"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	s, err := h.uc.Summary(r.Context(), &dto.SummaryFilter{From: from, To: to})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, s)
}
