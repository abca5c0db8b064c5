// Package access owns customer profiles and role based permissions.
package access

import (
	"context"

	"github.com/fekuna/scistore-service/internal/access/dto"
	"github.com/fekuna/scistore-service/internal/model"
)

type UseCase interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	// MyProfile returns the stored profile or an unsaved blank one.
	MyProfile(ctx context.Context, userID, email string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, userID string, input *dto.ProfileInput) (*model.Profile, error)

	HasPermission(ctx context.Context, userID, permission string) (bool, error)
	Grants(ctx context.Context, userID string) (*Grants, error)

	ListRoles(ctx context.Context) ([]model.Role, error)
	UserRoles(ctx context.Context, userID string) ([]model.Role, error)
	AssignRole(ctx context.Context, actorID, userID, roleName string) error
	RevokeRole(ctx context.Context, actorID, userID, roleName string) error
}
