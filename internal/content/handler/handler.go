package handler

import (
	"net/http"

	"github.com/fekuna/scistore-service/internal/auth"
	"github.com/fekuna/scistore-service/internal/content"
	"github.com/fekuna/scistore-service/internal/content/dto"
	"github.com/fekuna/scistore-service/internal/httpapi"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/logger"
)

type ContentHandler struct {
	uc     content.UseCase
	resp   *httpapi.Responder
	logger logger.ZapLogger
}

func NewContentHandler(uc content.UseCase, resp *httpapi.Responder, log logger.ZapLogger) *ContentHandler {
	return &ContentHandler{
		uc:     uc,
		resp:   resp,
		logger: log,
	}
}

func (h *ContentHandler) Register(rt *httpapi.Router) {
	rt.Public("GET /api/testimonials", h.publicTestimonials)
	rt.Public("GET /api/institution-logos", h.publicLogos)

	rt.Authed("GET /api/me/wishlist", h.Wishlist)
	rt.Authed("POST /api/me/wishlist", h.AddToWishlist)
	rt.Authed("DELETE /api/me/wishlist/{product_id}", h.RemoveFromWishlist)

	rt.Admin("GET /api/admin/testimonials", model.PermContentManage, h.allTestimonials)
	rt.Admin("POST /api/admin/testimonials", model.PermContentManage, h.CreateTestimonial)
	rt.Admin("PUT /api/admin/testimonials/{id}", model.PermContentManage, h.UpdateTestimonial)
	rt.Admin("DELETE /api/admin/testimonials/{id}", model.PermContentManage, h.DeleteTestimonial)

	rt.Admin("GET /api/admin/institution-logos", model.PermContentManage, h.allLogos)
	rt.Admin("POST /api/admin/institution-logos", model.PermContentManage, h.CreateLogo)
	rt.Admin("PUT /api/admin/institution-logos/{id}", model.PermContentManage, h.UpdateLogo)
	rt.Admin("DELETE /api/admin/institution-logos/{id}", model.PermContentManage, h.DeleteLogo)
}

func (h *ContentHandler) Wishlist(w http.ResponseWriter, r *http.Request) {
	items, err := h.uc.Wishlist(r.Context(), auth.GetUserID(r.Context()))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, items)
}

func (h *ContentHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	item, err := h.uc.AddToWishlist(r.Context(), auth.GetUserID(r.Context()), req.ProductID)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, item)
}

func (h *ContentHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.RemoveFromWishlist(r.Context(), auth.GetUserID(r.Context()), r.PathValue("product_id")); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.NoContent(w)
}

func (h *ContentHandler) testimonials(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	out, err := h.uc.Testimonials(r.Context(), activeOnly)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if out == nil {
		out = []model.Testimonial{}
	}
	h.resp.JSON(w, http.StatusOK, out)
}

func (h *ContentHandler) publicTestimonials(w http.ResponseWriter, r *http.Request) {
	h.testimonials(w, r, true)
}

func (h *ContentHandler) allTestimonials(w http.ResponseWriter, r *http.Request) {
	h.testimonials(w, r, false)
}

type testimonialRequest struct {
	AuthorName   string `json:"author_name"`
	AuthorTitle  string `json:"author_title"`
	Institution  string `json:"institution"`
	ContentEn    string `json:"content_en"`
	ContentBn    string `json:"content_bn"`
	Rating       int    `json:"rating"`
	IsActive     *bool  `json:"is_active"`
	DisplayOrder int    `json:"display_order"`
}

func (req testimonialRequest) input() *dto.TestimonialInput {
	return &dto.TestimonialInput{
		AuthorName:   req.AuthorName,
		AuthorTitle:  req.AuthorTitle,
		Institution:  req.Institution,
		ContentEn:    req.ContentEn,
		ContentBn:    req.ContentBn,
		Rating:       req.Rating,
		IsActive:     req.IsActive,
		DisplayOrder: req.DisplayOrder,
	}
}

func (h *ContentHandler) CreateTestimonial(w http.ResponseWriter, r *http.Request) {
	var req testimonialRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	t, err := h.uc.CreateTestimonial(r.Context(), req.input())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusCreated, t)
}

func (h *ContentHandler) UpdateTestimonial(w http.ResponseWriter, r *http.Request) {
	var req testimonialRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	t, err := h.uc.UpdateTestimonial(r.Context(), r.PathValue("id"), req.input())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, t)
}

func (h *ContentHandler) DeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteTestimonial(r.Context(), r.PathValue("id")); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.NoContent(w)
}

func (h *ContentHandler) logos(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	out, err := h.uc.Logos(r.Context(), activeOnly)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if out == nil {
		out = []model.InstitutionLogo{}
	}
	h.resp.JSON(w, http.StatusOK, out)
}

func (h *ContentHandler) publicLogos(w http.ResponseWriter, r *http.Request) {
	h.logos(w, r, true)
}

func (h *ContentHandler) allLogos(w http.ResponseWriter, r *http.Request) {
	h.logos(w, r, false)
}

type logoRequest struct {
	Name         string `json:"name"`
	LogoURL      string `json:"logo_url"`
	WebsiteURL   string `json:"website_url"`
	IsActive     *bool  `json:"is_active"`
	DisplayOrder int    `json:"display_order"`
}

func (req logoRequest) input() *dto.LogoInput {
	return &dto.LogoInput{
		Name:         req.Name,
		LogoURL:      req.LogoURL,
		WebsiteURL:   req.WebsiteURL,
		IsActive:     req.IsActive,
		DisplayOrder: req.DisplayOrder,
	}
}

func (h *ContentHandler) CreateLogo(w http.ResponseWriter, r *http.Request) {
	var req logoRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	l, err := h.uc.CreateLogo(r.Context(), req.input())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusCreated, l)
}

func (h *ContentHandler) UpdateLogo(w http.ResponseWriter, r *http.Request) {
	var req logoRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	l, err := h.uc.UpdateLogo(r.Context(), r.PathValue("id"), req.input())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, l)
}

func (h *ContentHandler) DeleteLogo(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteLogo(r.Context(), r.PathValue("id")); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.NoContent(w)
}
