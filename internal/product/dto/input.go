package dto

import "encoding/json"

type CreateProductInput struct {
	CategoryID      string
	SKU             string
	Slug            string
	NameEn          string
	NameBn          string
	DescriptionEn   string
	DescriptionBn   string
	Brand           string
	ModelNumber     string
	Price           float64
	CompareAtPrice  *float64
	Stock           int
	IsFeatured      bool
	DisplayOrder    int
	ImageURL        string
	Specifications  json.RawMessage
	MetaTitle       string
	MetaDescription string
	MetaKeywords    string
}

type UpdateProductInput struct {
	ID              string
	CategoryID      string
	SKU             string
	Slug            string
	NameEn          string
	NameBn          string
	DescriptionEn   string
	DescriptionBn   string
	Brand           string
	ModelNumber     string
	Price           float64
	CompareAtPrice  *float64
	IsActive        bool
	IsFeatured      bool
	DisplayOrder    int
	ImageURL        string
	Specifications  json.RawMessage
	MetaTitle       string
	MetaDescription string
	MetaKeywords    string
}
