package handler

import (
	"net/http"

	"github.com/fekuna/scistore-service/internal/access"
	"github.com/fekuna/scistore-service/internal/access/dto"
	"github.com/fekuna/scistore-service/internal/auth"
	"github.com/fekuna/scistore-service/internal/httpapi"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/logger"
)

type AccessHandler struct {
	uc     access.UseCase
	resp   *httpapi.Responder
	logger logger.ZapLogger
}

func NewAccessHandler(uc access.UseCase, resp *httpapi.Responder, log logger.ZapLogger) *AccessHandler {
	return &AccessHandler{
		uc:     uc,
		resp:   resp,
		logger: log,
	}
}

func (h *AccessHandler) Register(rt *httpapi.Router) {
	rt.Authed("GET /api/me/profile", h.GetProfile)
	rt.Authed("PUT /api/me/profile", h.UpdateProfile)
	rt.Authed("GET /api/me/permissions", h.MyGrants)

	rt.Admin("GET /api/admin/roles", model.PermUsersManage, h.ListRoles)
	rt.Admin("GET /api/admin/users/{user_id}/roles", model.PermUsersManage, h.UserRoles)
	rt.Admin("POST /api/admin/users/{user_id}/roles", model.PermUsersManage, h.AssignRole)
	rt.Admin("DELETE /api/admin/users/{user_id}/roles/{role}", model.PermUsersManage, h.RevokeRole)
}

func (h *AccessHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u := auth.FromContext(r.Context())
	p, err := h.uc.MyProfile(r.Context(), u.UserID, u.Email)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, p)
}

type profileRequest struct {
	FullName          string `json:"full_name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	Institution       string `json:"institution"`
	Address           string `json:"address"`
	City              string `json:"city"`
	PreferredLanguage string `json:"preferred_language"`
}

func (h *AccessHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	u := auth.FromContext(r.Context())
	if req.Email == "" {
		req.Email = u.Email
	}
	p, err := h.uc.UpdateProfile(r.Context(), u.UserID, &dto.ProfileInput{
		FullName:          req.FullName,
		Email:             req.Email,
		Phone:             req.Phone,
		Institution:       req.Institution,
		Address:           req.Address,
		City:              req.City,
		PreferredLanguage: req.PreferredLanguage,
	})
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, p)
}

func (h *AccessHandler) MyGrants(w http.ResponseWriter, r *http.Request) {
	g, err := h.uc.Grants(r.Context(), auth.GetUserID(r.Context()))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, g)
}

func (h *AccessHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.uc.ListRoles(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if roles == nil {
		roles = []model.Role{}
	}
	h.resp.JSON(w, http.StatusOK, roles)
}

func (h *AccessHandler) UserRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.uc.UserRoles(r.Context(), r.PathValue("user_id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if roles == nil {
		roles = []model.Role{}
	}
	h.resp.JSON(w, http.StatusOK, roles)
}

func (h *AccessHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	err := h.uc.AssignRole(r.Context(), auth.GetUserID(r.Context()), r.PathValue("user_id"), req.Role)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.NoContent(w)
}

func (h *AccessHandler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	err := h.uc.RevokeRole(r.Context(), auth.GetUserID(r.Context()), r.PathValue("user_id"), r.PathValue("role"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.NoContent(w)
}
