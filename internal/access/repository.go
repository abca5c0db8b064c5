package access

import (
	"context"

	"github.com/fekuna/scistore-service/internal/model"
)

// Grants is what a user holds through their roles.
type Grants struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

type Repository interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpsertProfile(ctx context.Context, p *model.Profile) error
	Grants(ctx context.Context, userID string) (*Grants, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
	FindRoleByName(ctx context.Context, name string) (*model.Role, error)
	UserRoles(ctx context.Context, userID string) ([]model.Role, error)
	AssignRole(ctx context.Context, userID, roleID string) error
	// RevokeRole reports whether the user held the role.
	RevokeRole(ctx context.Context, userID, roleID string) (bool, error)
}
