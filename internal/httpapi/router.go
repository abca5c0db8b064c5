package httpapi

import (
	"context"
	"net/http"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/auth"
)

// PermissionChecker resolves a user's effective permissions.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID, permission string) (bool, error)
}

// Router registers handlers on a ServeMux behind the right access guard.
type Router struct {
	Mux   *http.ServeMux
	Resp  *Responder
	perms PermissionChecker
}

func NewRouter(resp *Responder, perms PermissionChecker) *Router {
	return &Router{Mux: http.NewServeMux(), Resp: resp, perms: perms}
}

// Public is reachable by anonymous callers.
func (rt *Router) Public(pattern string, h http.HandlerFunc) {
	rt.Mux.Handle(pattern, h)
}

// Authed requires a caller identity.
func (rt *Router) Authed(pattern string, h http.HandlerFunc) {
	rt.Mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUserID(r.Context()) == "" {
			rt.Resp.Error(w, r, apperr.Unauthenticated())
			return
		}
		h(w, r)
	}))
}

// Admin requires a caller holding permission.
func (rt *Router) Admin(pattern, permission string, h http.HandlerFunc) {
	rt.Authed(pattern, func(w http.ResponseWriter, r *http.Request) {
		ok, err := rt.perms.HasPermission(r.Context(), auth.GetUserID(r.Context()), permission)
		if err != nil {
			rt.Resp.Error(w, r, err)
			return
		}
		if !ok {
			rt.Resp.Error(w, r, apperr.Forbidden())
			return
		}
		h(w, r)
	})
}

func (rt *Router) Handle(pattern string, h http.Handler) {
	rt.Mux.Handle(pattern, h)
}
