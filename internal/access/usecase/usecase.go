package usecase

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/fekuna/scistore-service/internal/access"
	"github.com/fekuna/scistore-service/internal/access/dto"
	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/cache"
	"github.com/fekuna/scistore-service/pkg/i18n"
	"github.com/fekuna/scistore-service/pkg/logger"
	"go.uber.org/zap"
)

const grantsTTL = 5 * time.Minute

func grantsKey(userID string) string {
	return "access:grants:" + userID
}

type accessUseCase struct {
	repo   access.Repository
	cache  cache.Store
	logger logger.ZapLogger
	now    func() time.Time
}

func NewAccessUseCase(repo access.Repository, store cache.Store, log logger.ZapLogger) access.UseCase {
	return &accessUseCase{
		repo:   repo,
		cache:  store,
		logger: log,
		now:    time.Now,
	}
}

func (uc *accessUseCase) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := uc.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if p == nil {
		return nil, apperr.NotFound("error.not_found")
	}
	return p, nil
}

func (uc *accessUseCase) MyProfile(ctx context.Context, userID, email string) (*model.Profile, error) {
	if userID == "" {
		return nil, apperr.Unauthenticated()
	}
	p, err := uc.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if p == nil {
		p = &model.Profile{ID: userID, Email: email, PreferredLanguage: i18n.English}
	}
	return p, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (uc *accessUseCase) UpdateProfile(ctx context.Context, userID string, input *dto.ProfileInput) (*model.Profile, error) {
	if userID == "" {
		return nil, apperr.Unauthenticated()
	}
	fullName := strings.TrimSpace(input.FullName)
	email := strings.TrimSpace(input.Email)
	phone := apperr.NormalizePhone(input.Phone)
	lang := strings.ToLower(strings.TrimSpace(input.PreferredLanguage))
	if lang == "" {
		lang = i18n.English
	}

	v := apperr.NewValidator()
	v.Required("full_name", fullName)
	v.MaxLen("full_name", fullName, 120)
	v.Email("email", email)
	if phone != "" {
		v.Phone("phone", phone)
	}
	v.OneOf("preferred_language", lang, i18n.English, i18n.Bengali)
	v.MaxLen("address", input.Address, 500)
	if err := v.Err(); err != nil {
		return nil, err
	}

	existing, err := uc.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	now := uc.now()
	p := &model.Profile{
		ID:                userID,
		FullName:          fullName,
		Email:             email,
		Phone:             optional(phone),
		Institution:       optional(strings.TrimSpace(input.Institution)),
		Address:           optional(strings.TrimSpace(input.Address)),
		City:              optional(strings.TrimSpace(input.City)),
		PreferredLanguage: lang,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if existing != nil {
		p.CreatedAt = existing.CreatedAt
	}
	if err := uc.repo.UpsertProfile(ctx, p); err != nil {
		uc.logger.Error("failed to save profile", zap.String("user_id", userID), zap.Error(err))
		return nil, apperr.Internal(err)
	}
	return p, nil
}

// Grants are cached per user; role changes drop the entry.
func (uc *accessUseCase) Grants(ctx context.Context, userID string) (*access.Grants, error) {
	if userID == "" {
		return &access.Grants{Roles: []string{}, Permissions: []string{}}, nil
	}
	var g access.Grants
	err := uc.cache.GetJSON(ctx, grantsKey(userID), &g)
	if err == nil {
		return &g, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		uc.logger.Warn("failed to read grants from cache", zap.String("user_id", userID), zap.Error(err))
	}

	fresh, err := uc.repo.Grants(ctx, userID)
	if err != nil {
		uc.logger.Error("failed to load grants", zap.String("user_id", userID), zap.Error(err))
		return nil, apperr.Internal(err)
	}
	if err := uc.cache.SetJSON(ctx, grantsKey(userID), fresh, grantsTTL); err != nil {
		uc.logger.Warn("failed to cache grants", zap.String("user_id", userID), zap.Error(err))
	}
	return fresh, nil
}

// HasPermission treats the admin role as holding every permission.
func (uc *accessUseCase) HasPermission(ctx context.Context, userID, permission string) (bool, error) {
	g, err := uc.Grants(ctx, userID)
	if err != nil {
		return false, err
	}
	if slices.Contains(g.Roles, model.RoleAdmin) {
		return true, nil
	}
	return slices.Contains(g.Permissions, permission), nil
}

func (uc *accessUseCase) ListRoles(ctx context.Context) ([]model.Role, error) {
	roles, err := uc.repo.ListRoles(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return roles, nil
}

func (uc *accessUseCase) UserRoles(ctx context.Context, userID string) ([]model.Role, error) {
	roles, err := uc.repo.UserRoles(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return roles, nil
}

func (uc *accessUseCase) role(ctx context.Context, name string) (*model.Role, error) {
	role, err := uc.repo.FindRoleByName(ctx, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if role == nil {
		return nil, apperr.NotFound("access.role_not_found")
	}
	return role, nil
}

func (uc *accessUseCase) AssignRole(ctx context.Context, actorID, userID, roleName string) error {
	if strings.TrimSpace(userID) == "" {
		v := apperr.NewValidator()
		v.Add("user_id", "validation.required")
		return v.Err()
	}
	role, err := uc.role(ctx, roleName)
	if err != nil {
		return err
	}
	if err := uc.repo.AssignRole(ctx, userID, role.ID); err != nil {
		uc.logger.Error("failed to assign role", zap.String("user_id", userID), zap.String("role", role.Name), zap.Error(err))
		return apperr.Internal(err)
	}
	uc.logger.Info("role assigned", zap.String("actor_id", actorID), zap.String("user_id", userID), zap.String("role", role.Name))
	uc.invalidate(ctx, userID)
	return nil
}

func (uc *accessUseCase) RevokeRole(ctx context.Context, actorID, userID, roleName string) error {
	role, err := uc.role(ctx, roleName)
	if err != nil {
		return err
	}
	// An admin cannot lock themselves out.
	if actorID == userID && role.Name == model.RoleAdmin {
		return apperr.Precondition("access.self_revoke")
	}
	ok, err := uc.repo.RevokeRole(ctx, userID, role.ID)
	if err != nil {
		uc.logger.Error("failed to revoke role", zap.String("user_id", userID), zap.String("role", role.Name), zap.Error(err))
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("access.role_not_assigned")
	}
	uc.logger.Info("role revoked", zap.String("actor_id", actorID), zap.String("user_id", userID), zap.String("role", role.Name))
	uc.invalidate(ctx, userID)
	return nil
}

func (uc *accessUseCase) invalidate(ctx context.Context, userID string) {
	if err := uc.cache.Delete(ctx, grantsKey(userID)); err != nil {
		uc.logger.Warn("failed to invalidate grants cache", zap.String("user_id", userID), zap.Error(err))
	}
}
