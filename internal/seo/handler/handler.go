package handler

import (
	"net/http"

	"github.com/fekuna/scistore-service/internal/auth"
	"github.com/fekuna/scistore-service/internal/httpapi"
	"github.com/fekuna/scistore-service/internal/seo"
	"github.com/fekuna/scistore-service/pkg/logger"
	"go.uber.org/zap"
)

type SEOHandler struct {
	uc     seo.UseCase
	resp   *httpapi.Responder
	logger logger.ZapLogger
}

func NewSEOHandler(uc seo.UseCase, resp *httpapi.Responder, log logger.ZapLogger) *SEOHandler {
	return &SEOHandler{
		uc:     uc,
		resp:   resp,
		logger: log,
	}
}

func (h *SEOHandler) Register(rt *httpapi.Router) {
	rt.Public("GET /api/seo/meta", h.Meta)
	rt.Public("GET /sitemap.xml", h.Sitemap)
	rt.Public("POST /api/functions/generate-sitemap", h.GenerateSitemap)
}

type metaResponse struct {
	*seo.Meta
	Head string `json:"head"`
}

// Meta answers ?route=&slug=; the language comes from ?lang= or Accept-Language.
func (h *SEOHandler) Meta(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	m, err := h.uc.Meta(r.Context(), q.Get("route"), q.Get("slug"), auth.GetLang(r.Context()))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	head, err := seo.RenderHead(m)
	if err != nil {
		h.logger.Error("failed to render head", zap.Error(err))
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, metaResponse{Meta: m, Head: head})
}

func (h *SEOHandler) writeXML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	body, err := h.uc.Sitemap(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.writeXML(w, body)
}

func (h *SEOHandler) GenerateSitemap(w http.ResponseWriter, r *http.Request) {
	body, err := h.uc.GenerateSitemap(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.writeXML(w, body)
}
