package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/scistore-service/internal/access"
	"github.com/fekuna/scistore-service/internal/access/dto"
	"github.com/fekuna/scistore-service/internal/httpapi"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/i18n"
	"github.com/fekuna/scistore-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUseCase struct {
	access.UseCase
	grants   map[string][]string
	assigned []string
	saved    *dto.ProfileInput
}

func (f *fakeUseCase) HasPermission(_ context.Context, userID, perm string) (bool, error) {
	for _, p := range f.grants[userID] {
		if p == perm {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUseCase) ListRoles(context.Context) ([]model.Role, error) {
	return []model.Role{{ID: "r1", Name: "editor", Permissions: []string{model.PermContentManage}}}, nil
}

func (f *fakeUseCase) AssignRole(_ context.Context, actorID, userID, role string) error {
	f.assigned = append(f.assigned, actorID+">"+userID+":"+role)
	return nil
}

func (f *fakeUseCase) UpdateProfile(_ context.Context, userID string, in *dto.ProfileInput) (*model.Profile, error) {
	f.saved = in
	return &model.Profile{ID: userID, FullName: in.FullName, Email: in.Email}, nil
}

func newServer(uc *fakeUseCase) http.Handler {
	tr := i18n.MustNew()
	rt := httpapi.NewRouter(httpapi.NewResponder(tr, logger.NewNop()), uc)
	NewAccessHandler(uc, rt.Resp, logger.NewNop()).Register(rt)
	return httpapi.Chain(rt.Mux, httpapi.WithServerDefaults, httpapi.WithIdentity(tr, "en"))
}

func do(h http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set("X-User-ID", user)
		req.Header.Set("X-User-Email", user+"@example.com")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutesAreGuarded(t *testing.T) {
	uc := &fakeUseCase{grants: map[string][]string{"boss": {model.PermUsersManage}}}
	h := newServer(uc)

	assert.Equal(t, http.StatusUnauthorized, do(h, "GET", "/api/admin/roles", "", "").Code)
	assert.Equal(t, http.StatusForbidden, do(h, "GET", "/api/admin/roles", "clerk", "").Code)

	rec := do(h, "GET", "/api/admin/roles", "boss", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var roles []model.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))
	assert.Equal(t, "editor", roles[0].Name)

	rec = do(h, "POST", "/api/admin/users/u7/roles", "boss", `{"role":"editor"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"boss>u7:editor"}, uc.assigned)
}

func TestUpdateProfileDefaultsEmailFromIdentity(t *testing.T) {
	uc := &fakeUseCase{}
	h := newServer(uc)

	rec := do(h, "PUT", "/api/me/profile", "u1", `{"full_name":"Nadia"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1@example.com", uc.saved.Email)

	assert.Equal(t, http.StatusUnauthorized, do(h, "PUT", "/api/me/profile", "", `{}`).Code)
}
