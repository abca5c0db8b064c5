package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fekuna/scistore-service/internal/httpapi"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/product"
	"github.com/fekuna/scistore-service/internal/product/dto"
	"github.com/fekuna/scistore-service/pkg/logger"
	"go.uber.org/zap"
)

type ProductHandler struct {
	uc          product.UseCase
	resp        *httpapi.Responder
	maxPageSize int
	logger      logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, resp *httpapi.Responder, maxPageSize int, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:          uc,
		resp:        resp,
		maxPageSize: maxPageSize,
		logger:      log,
	}
}

func (h *ProductHandler) Register(rt *httpapi.Router) {
	rt.Public("GET /api/products", h.Browse)
	rt.Public("GET /api/products/{slug}", h.GetBySlug)
	rt.Public("GET /api/search/suggest", h.Suggest)

	rt.Admin("GET /api/admin/products", model.PermProductsManage, h.ListProducts)
	rt.Admin("POST /api/admin/products", model.PermProductsManage, h.CreateProduct)
	rt.Admin("GET /api/admin/products/{id}", model.PermProductsManage, h.GetProduct)
	rt.Admin("PUT /api/admin/products/{id}", model.PermProductsManage, h.UpdateProduct)
	rt.Admin("DELETE /api/admin/products/{id}", model.PermProductsManage, h.DeleteProduct)
}

type productRequest struct {
	CategoryID      string          `json:"category_id"`
	SKU             string          `json:"sku"`
	Slug            string          `json:"slug"`
	NameEn          string          `json:"name_en"`
	NameBn          string          `json:"name_bn"`
	DescriptionEn   string          `json:"description_en"`
	DescriptionBn   string          `json:"description_bn"`
	Brand           string          `json:"brand"`
	ModelNumber     string          `json:"model_number"`
	Price           float64         `json:"price"`
	CompareAtPrice  *float64        `json:"compare_at_price"`
	Stock           int             `json:"stock"`
	IsActive        *bool           `json:"is_active"`
	IsFeatured      bool            `json:"is_featured"`
	DisplayOrder    int             `json:"display_order"`
	ImageURL        string          `json:"image_url"`
	Specifications  json.RawMessage `json:"specifications"`
	MetaTitle       string          `json:"meta_title"`
	MetaDescription string          `json:"meta_description"`
	MetaKeywords    string          `json:"meta_keywords"`
}

func (h *ProductHandler) Browse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := &dto.ListingQuery{
		Search:       q.Get("q"),
		CategorySlug: q.Get("category"),
		MinPrice:     httpapi.FloatParam(r, "min_price"),
		MaxPrice:     httpapi.FloatParam(r, "max_price"),
		Sort:         q.Get("sort"),
		Mode:         strings.ToLower(q.Get("mode")),
		Page:         httpapi.IntParam(r, "page", 1, 1, 1<<20),
		PerPage:      httpapi.IntParam(r, "per_page", 0, 0, h.maxPageSize),
		Cursor:       httpapi.IntParam(r, "cursor", 0, 0, 1<<30),
	}
	if b := httpapi.BoolParam(r, "in_stock"); b != nil {
		in.InStockOnly = *b
	}

	res, err := h.uc.Browse(r.Context(), in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, res)
}

func (h *ProductHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	detail, err := h.uc.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, detail)
}

func (h *ProductHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	out, err := h.uc.Suggest(r.Context(), r.URL.Query().Get("q"), httpapi.IntParam(r, "limit", 8, 1, 10))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, map[string]any{"suggestions": out})
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := &dto.ProductFilters{
		CategoryID:  q.Get("category_id"),
		IsActive:    httpapi.BoolParam(r, "is_active"),
		SearchQuery: strings.TrimSpace(q.Get("q")),
		SortBy:      q.Get("sort_by"),
		SortOrder:   q.Get("sort_order"),
		Page:        httpapi.IntParam(r, "page", 1, 1, 1<<20),
		PageSize:    httpapi.IntParam(r, "page_size", 20, 1, 100),
	}

	products, total, err := h.uc.ListProducts(r.Context(), filters)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	h.resp.JSON(w, http.StatusOK, httpapi.ListResponse[model.Product]{
		Items: products, Total: total, Page: filters.Page, Size: filters.PageSize,
	})
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	p, err := h.uc.CreateProduct(r.Context(), &dto.CreateProductInput{
		CategoryID:      req.CategoryID,
		SKU:             req.SKU,
		Slug:            req.Slug,
		NameEn:          req.NameEn,
		NameBn:          req.NameBn,
		DescriptionEn:   req.DescriptionEn,
		DescriptionBn:   req.DescriptionBn,
		Brand:           req.Brand,
		ModelNumber:     req.ModelNumber,
		Price:           req.Price,
		CompareAtPrice:  req.CompareAtPrice,
		Stock:           req.Stock,
		IsFeatured:      req.IsFeatured,
		DisplayOrder:    req.DisplayOrder,
		ImageURL:        req.ImageURL,
		Specifications:  req.Specifications,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		MetaKeywords:    req.MetaKeywords,
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.logger.Info("product created", zap.String("product_id", p.ID), zap.String("sku", p.SKU))
	h.resp.JSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	input := &dto.UpdateProductInput{
		ID:              r.PathValue("id"),
		CategoryID:      req.CategoryID,
		SKU:             req.SKU,
		Slug:            req.Slug,
		NameEn:          req.NameEn,
		NameBn:          req.NameBn,
		DescriptionEn:   req.DescriptionEn,
		DescriptionBn:   req.DescriptionBn,
		Brand:           req.Brand,
		ModelNumber:     req.ModelNumber,
		Price:           req.Price,
		CompareAtPrice:  req.CompareAtPrice,
		IsActive:        true,
		IsFeatured:      req.IsFeatured,
		DisplayOrder:    req.DisplayOrder,
		ImageURL:        req.ImageURL,
		Specifications:  req.Specifications,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		MetaKeywords:    req.MetaKeywords,
	}
	if req.IsActive != nil {
		input.IsActive = *req.IsActive
	}

	p, err := h.uc.UpdateProduct(r.Context(), input)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.NoContent(w)
}
