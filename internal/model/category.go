package model

type Category struct {
	BaseModel
	Slug            string     `db:"slug" json:"slug"`
	NameEn          string     `db:"name_en" json:"name_en"`
	NameBn          string     `db:"name_bn" json:"name_bn"`
	DescriptionEn   *string    `db:"description_en" json:"description_en"`
	DescriptionBn   *string    `db:"description_bn" json:"description_bn"`
	ParentGroup     *string    `db:"parent_group" json:"parent_group"`
	ParentID        *string    `db:"parent_id" json:"parent_id"` // Nullable
	DisplayOrder    int        `db:"display_order" json:"display_order"`
	ImageURL        *string    `db:"image_url" json:"image_url"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	MetaTitle       *string    `db:"meta_title" json:"meta_title"`
	MetaDescription *string    `db:"meta_description" json:"meta_description"`
	Children        []Category `db:"-" json:"children,omitempty"` // For tree structure, not in DB
}
