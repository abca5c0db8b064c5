package dto

import "github.com/fekuna/scistore-service/internal/model"

type CreateCategoryInput struct {
	Slug            string
	NameEn          string
	NameBn          string
	DescriptionEn   string
	DescriptionBn   string
	ParentGroup     string
	ParentID        *string
	DisplayOrder    *int // nil appends after the last sibling
	ImageURL        string
	MetaTitle       string
	MetaDescription string
}

type UpdateCategoryInput struct {
	ID              string
	Slug            string
	NameEn          string
	NameBn          string
	DescriptionEn   string
	DescriptionBn   string
	ParentGroup     string
	ParentID        *string
	DisplayOrder    int
	ImageURL        string
	IsActive        bool
	MetaTitle       string
	MetaDescription string
}

// MoveInput is one drag-and-drop gesture from the admin tree.
type MoveInput struct {
	ID          string  `json:"id"`
	NewParentID *string `json:"new_parent_id"`
	NewIndex    int     `json:"new_index"`
}

// OrderUpdate is a row whose position changed after a move.
type OrderUpdate struct {
	ID           string  `db:"id"`
	ParentID     *string `db:"parent_id"`
	DisplayOrder int     `db:"display_order"`
}

// MenuGroup is one navigation column keyed by parent_group.
type MenuGroup struct {
	Key        string           `json:"key"`
	Categories []model.Category `json:"categories"`
}
