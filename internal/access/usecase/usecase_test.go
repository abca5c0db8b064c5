package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/fekuna/scistore-service/internal/access"
	"github.com/fekuna/scistore-service/internal/access/dto"
	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/cache"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

type fakeRepo struct {
	mu          sync.Mutex
	profiles    map[string]model.Profile
	roles       map[string]model.Role // by name
	assignments map[string]map[string]bool
	grantLoads  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		profiles: map[string]model.Profile{},
		roles: map[string]model.Role{
			"admin":   {ID: "r-admin", Name: "admin"},
			"manager": {ID: "r-manager", Name: "manager", Permissions: []string{model.PermOrdersView, model.PermOrdersManage}},
			"editor":  {ID: "r-editor", Name: "editor", Permissions: []string{model.PermContentManage}},
		},
		assignments: map[string]map[string]bool{},
	}
}

func (r *fakeRepo) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r *fakeRepo) UpsertProfile(_ context.Context, p *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ID] = *p
	return nil
}

func (r *fakeRepo) Grants(_ context.Context, userID string) (*access.Grants, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grantLoads++
	g := &access.Grants{Roles: []string{}, Permissions: []string{}}
	for _, role := range r.roles {
		if r.assignments[userID][role.ID] {
			g.Roles = append(g.Roles, role.Name)
			g.Permissions = append(g.Permissions, role.Permissions...)
		}
	}
	return g, nil
}

func (r *fakeRepo) ListRoles(context.Context) ([]model.Role, error) {
	var out []model.Role
	for _, role := range r.roles {
		out = append(out, role)
	}
	return out, nil
}

func (r *fakeRepo) FindRoleByName(_ context.Context, name string) (*model.Role, error) {
	if role, ok := r.roles[name]; ok {
		return &role, nil
	}
	return nil, nil
}

func (r *fakeRepo) UserRoles(_ context.Context, userID string) ([]model.Role, error) {
	var out []model.Role
	for _, role := range r.roles {
		if r.assignments[userID][role.ID] {
			out = append(out, role)
		}
	}
	return out, nil
}

func (r *fakeRepo) AssignRole(_ context.Context, userID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.assignments[userID] == nil {
		r.assignments[userID] = map[string]bool{}
	}
	r.assignments[userID][roleID] = true
	return nil
}

func (r *fakeRepo) RevokeRole(_ context.Context, userID, roleID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	held := r.assignments[userID][roleID]
	delete(r.assignments[userID], roleID)
	return held, nil
}

func TestHasPermission(t *testing.T) {
	repo := newFakeRepo()
	uc := NewAccessUseCase(repo, cache.NewMemoryStore(), logger.NewNop())
	ctx := context.Background()

	require.NoError(t, uc.AssignRole(ctx, "root", "u-manager", "Manager"))
	require.NoError(t, uc.AssignRole(ctx, "root", "u-admin", "admin"))

	ok, err := uc.HasPermission(ctx, "u-manager", model.PermOrdersManage)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = uc.HasPermission(ctx, "u-manager", model.PermUsersManage)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = uc.HasPermission(ctx, "u-admin", model.PermUsersManage)
	require.NoError(t, err)
	assert.True(t, ok, "admin implies every permission")

	ok, err = uc.HasPermission(ctx, "", model.PermOrdersView)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGrantsAreCachedAndInvalidated(t *testing.T) {
	repo := newFakeRepo()
	uc := NewAccessUseCase(repo, cache.NewMemoryStore(), logger.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := uc.HasPermission(ctx, "u1", model.PermContentManage)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 1, repo.grantLoads)

	require.NoError(t, uc.AssignRole(ctx, "root", "u1", "editor"))
	ok, err := uc.HasPermission(ctx, "u1", model.PermContentManage)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, repo.grantLoads)

	require.NoError(t, uc.RevokeRole(ctx, "root", "u1", "editor"))
	ok, err = uc.HasPermission(ctx, "u1", model.PermContentManage)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoleChangesErrors(t *testing.T) {
	repo := newFakeRepo()
	uc := NewAccessUseCase(repo, cache.NewMemoryStore(), logger.NewNop())
	ctx := context.Background()

	assert.Equal(t, "access.role_not_found", apperr.From(uc.AssignRole(ctx, "root", "u1", "owner")).MessageID)
	assert.Equal(t, codes.InvalidArgument, apperr.CodeOf(uc.AssignRole(ctx, "root", " ", "editor")))
	assert.Equal(t, "access.role_not_assigned", apperr.From(uc.RevokeRole(ctx, "root", "u1", "editor")).MessageID)

	require.NoError(t, uc.AssignRole(ctx, "root", "root", "admin"))
	err := uc.RevokeRole(ctx, "root", "root", "admin")
	assert.Equal(t, codes.FailedPrecondition, apperr.CodeOf(err))
	assert.True(t, repo.assignments["root"]["r-admin"])
}

func TestProfiles(t *testing.T) {
	repo := newFakeRepo()
	uc := NewAccessUseCase(repo, cache.NewMemoryStore(), logger.NewNop())
	ctx := context.Background()

	p, err := uc.MyProfile(ctx, "u1", "u1@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", p.Email)
	assert.Equal(t, "en", p.PreferredLanguage)

	_, err = uc.GetProfile(ctx, "u1")
	assert.Equal(t, codes.NotFound, apperr.CodeOf(err))

	_, err = uc.UpdateProfile(ctx, "u1", &dto.ProfileInput{Email: "bad", Phone: "123", PreferredLanguage: "fr"})
	f := apperr.From(err).Fields
	assert.Equal(t, "validation.required", f["full_name"])
	assert.Equal(t, "validation.email", f["email"])
	assert.Equal(t, "validation.phone", f["phone"])
	assert.Equal(t, "validation.enum", f["preferred_language"])

	p, err = uc.UpdateProfile(ctx, "u1", &dto.ProfileInput{
		FullName: " Mahmud Hasan ", Email: "mahmud@kuet.ac.bd", Phone: "017-1100-2233",
		Institution: "KUET", City: "Khulna", PreferredLanguage: "BN",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mahmud Hasan", p.FullName)
	assert.Equal(t, "bn", p.PreferredLanguage)
	require.NotNil(t, p.Phone)
	assert.Equal(t, "01711002233", *p.Phone)
	assert.Nil(t, p.Address)

	stored, err := uc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "KUET", *stored.Institution)

	_, err = uc.UpdateProfile(ctx, "", &dto.ProfileInput{})
	assert.Equal(t, codes.Unauthenticated, apperr.CodeOf(err))
}
