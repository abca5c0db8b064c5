package model

import "time"

type Profile struct {
	ID                string    `db:"id" json:"id"`
	FullName          string    `db:"full_name" json:"full_name"`
	Email             string    `db:"email" json:"email"`
	Phone             *string   `db:"phone" json:"phone"`
	Institution       *string   `db:"institution" json:"institution"`
	Address           *string   `db:"address" json:"address"`
	City              *string   `db:"city" json:"city"`
	PreferredLanguage string    `db:"preferred_language" json:"preferred_language"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

type Role struct {
	ID          string   `db:"id" json:"id"`
	Name        string   `db:"name" json:"name"`
	Description string   `db:"description" json:"description"`
	Permissions []string `db:"-" json:"permissions"`
}

type Permission struct {
	ID          string `db:"id" json:"id"`
	Code        string `db:"code" json:"code"`
	Description string `db:"description" json:"description"`
}

type UserRole struct {
	UserID    string    `db:"user_id" json:"user_id"`
	RoleID    string    `db:"role_id" json:"role_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const RoleAdmin = "admin"

// Permission codes checked by the admin API.
const (
	PermProductsManage   = "products.manage"
	PermCategoriesManage = "categories.manage"
	PermOrdersView       = "orders.view"
	PermOrdersManage     = "orders.manage"
	PermQuotesManage     = "quotes.manage"
	PermContentManage    = "content.manage"
	PermUsersManage      = "users.manage"
	PermMediaUpload      = "media.upload"
	PermTelemetryView    = "telemetry.view"
)
