package handler

import (
	"net/http"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/category"
	"github.com/fekuna/scistore-service/internal/category/dto"
	"github.com/fekuna/scistore-service/internal/httpapi"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/logger"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	uc     category.UseCase
	resp   *httpapi.Responder
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, resp *httpapi.Responder, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		resp:   resp,
		logger: log,
	}
}

func (h *CategoryHandler) Register(rt *httpapi.Router) {
	rt.Public("GET /api/categories/tree", h.PublicTree)
	rt.Public("GET /api/categories/menu", h.Menu)
	rt.Public("GET /api/categories/{slug}", h.GetBySlug)

	rt.Admin("GET /api/admin/categories", model.PermCategoriesManage, h.AdminTree)
	rt.Admin("POST /api/admin/categories", model.PermCategoriesManage, h.CreateCategory)
	rt.Admin("POST /api/admin/categories/reorder", model.PermCategoriesManage, h.Reorder)
	rt.Admin("GET /api/admin/categories/{id}", model.PermCategoriesManage, h.GetCategory)
	rt.Admin("PUT /api/admin/categories/{id}", model.PermCategoriesManage, h.UpdateCategory)
	rt.Admin("DELETE /api/admin/categories/{id}", model.PermCategoriesManage, h.DeleteCategory)
}

type categoryRequest struct {
	Slug            string  `json:"slug"`
	NameEn          string  `json:"name_en"`
	NameBn          string  `json:"name_bn"`
	DescriptionEn   string  `json:"description_en"`
	DescriptionBn   string  `json:"description_bn"`
	ParentGroup     string  `json:"parent_group"`
	ParentID        *string `json:"parent_id"`
	DisplayOrder    *int    `json:"display_order"`
	ImageURL        string  `json:"image_url"`
	IsActive        *bool   `json:"is_active"`
	MetaTitle       string  `json:"meta_title"`
	MetaDescription string  `json:"meta_description"`
}

func (h *CategoryHandler) PublicTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.uc.Tree(r.Context(), false)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, map[string]any{"categories": tree})
}

func (h *CategoryHandler) AdminTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.uc.Tree(r.Context(), true)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, map[string]any{"categories": tree})
}

func (h *CategoryHandler) Menu(w http.ResponseWriter, r *http.Request) {
	groups, err := h.uc.Menu(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (h *CategoryHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	cat, err := h.uc.GetCategoryBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if !cat.IsActive {
		h.resp.Error(w, r, apperr.NotFound("category.not_found"))
		return
	}
	h.resp.JSON(w, http.StatusOK, cat)
}

func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := h.uc.GetCategory(r.Context(), r.PathValue("id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, cat)
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	cat, err := h.uc.CreateCategory(r.Context(), &dto.CreateCategoryInput{
		Slug:            req.Slug,
		NameEn:          req.NameEn,
		NameBn:          req.NameBn,
		DescriptionEn:   req.DescriptionEn,
		DescriptionBn:   req.DescriptionBn,
		ParentGroup:     req.ParentGroup,
		ParentID:        req.ParentID,
		DisplayOrder:    req.DisplayOrder,
		ImageURL:        req.ImageURL,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.logger.Info("category created", zap.String("category_id", cat.ID), zap.String("slug", cat.Slug))
	h.resp.JSON(w, http.StatusCreated, cat)
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	input := &dto.UpdateCategoryInput{
		ID:              r.PathValue("id"),
		Slug:            req.Slug,
		NameEn:          req.NameEn,
		NameBn:          req.NameBn,
		DescriptionEn:   req.DescriptionEn,
		DescriptionBn:   req.DescriptionBn,
		ParentGroup:     req.ParentGroup,
		ParentID:        req.ParentID,
		ImageURL:        req.ImageURL,
		IsActive:        true,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
	}
	if req.DisplayOrder != nil {
		input.DisplayOrder = *req.DisplayOrder
	}
	if req.IsActive != nil {
		input.IsActive = *req.IsActive
	}

	cat, err := h.uc.UpdateCategory(r.Context(), input)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, cat)
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.NoContent(w)
}

func (h *CategoryHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var move dto.MoveInput
	if err := httpapi.DecodeJSON(r, &move); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	tree, err := h.uc.Reorder(r.Context(), &move)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, map[string]any{"categories": tree})
}
