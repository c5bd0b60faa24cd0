package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pos-system/internal/model"
	"github.com/iliyamo/pos-system/internal/service"
)

// AuthAPI is the slice of service.AuthService the handlers call.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*model.AuthResponse, error)
	Register(ctx context.Context, req service.RegisterRequest) (*model.AuthResponse, error)
	Refresh(ctx context.Context, req model.RefreshRequest) (*model.AuthResponse, error)
	RevokeToken(ctx context.Context, token string) bool
	Logout(ctx context.Context, userID string) bool
	ChangePassword(ctx context.Context, userID, current, next string) bool
	GetUser(ctx context.Context, userID string) (*model.User, error)
	AssignRole(ctx context.Context, userID, role string) bool
	RemoveRole(ctx context.Context, userID, role string) bool
	GetUserRoles(ctx context.Context, userID string) []string
}

// AuthHandler serves /v1/auth.
type AuthHandler struct {
	Auth AuthAPI
}

func NewAuthHandler(auth AuthAPI) *AuthHandler {
	if auth == nil {
		panic("nil auth service passed to NewAuthHandler")
	}
	return &AuthHandler{Auth: auth}
}

// Login: username (or email) + password -> token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.UserName) == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, "username and password are required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Auth.Login(ctx, strings.TrimSpace(req.UserName), req.Password)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "invalid username or password")
	}
	return c.JSON(http.StatusOK, toAuthResp(out))
}

// Register creates a user and signs it in.  All failures share one
// message so callers cannot tell which accounts exist.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	if !req.valid() {
		return errorJSON(c, http.StatusBadRequest, "username, email and password are required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Auth.Register(ctx, toRegisterRequest(req))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "registration failed, user may already exist or data is invalid")
	}
	return c.JSON(http.StatusCreated, toAuthResp(out))
}

// Refresh exchanges an access/refresh pair for a new one.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	rr := toRefreshRequest(req)
	if rr.AccessToken == "" || rr.RefreshToken == "" {
		return errorJSON(c, http.StatusBadRequest, "access_token and refresh_token are required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	out, err := h.Auth.Refresh(ctx, rr)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "invalid refresh token")
	}
	return c.JSON(http.StatusOK, toAuthResp(out))
}

// Revoke invalidates a single refresh token.
func (h *AuthHandler) Revoke(c echo.Context) error {
	var req revokeReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return errorJSON(c, http.StatusBadRequest, "refresh_token required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if !h.Auth.RevokeToken(ctx, strings.TrimSpace(req.RefreshToken)) {
		return errorJSON(c, http.StatusBadRequest, "failed to revoke token")
	}
	return messageJSON(c, "token revoked")
}

// Logout revokes every refresh token of the caller.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid user context")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if !h.Auth.Logout(ctx, uid) {
		return errorJSON(c, http.StatusBadRequest, "logout failed")
	}
	return messageJSON(c, "logged out")
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid user context")
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return errorJSON(c, http.StatusBadRequest, "current_password and new_password are required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if !h.Auth.ChangePassword(ctx, uid, req.CurrentPassword, req.NewPassword) {
		return errorJSON(c, http.StatusBadRequest, "password change failed, check your current password")
	}
	return messageJSON(c, "password changed")
}

// Profile returns the caller's account and roles.
func (h *AuthHandler) Profile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid user context")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Auth.GetUser(ctx, uid)
	if errors.Is(err, service.ErrUserNotFound) {
		return errorJSON(c, http.StatusNotFound, "user not found")
	}
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "load user failed")
	}
	return c.JSON(http.StatusOK, toProfile(u, h.Auth.GetUserRoles(ctx, uid)))
}

func (h *AuthHandler) AssignRole(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Role) == "" {
		return errorJSON(c, http.StatusBadRequest, "user_id and role are required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	role := strings.TrimSpace(req.Role)
	if !h.Auth.AssignRole(ctx, strings.TrimSpace(req.UserID), role) {
		return errorJSON(c, http.StatusBadRequest, "failed to assign role, user or role may not exist")
	}
	return messageJSON(c, "role '"+role+"' assigned")
}

func (h *AuthHandler) RemoveRole(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Role) == "" {
		return errorJSON(c, http.StatusBadRequest, "user_id and role are required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	role := strings.TrimSpace(req.Role)
	if !h.Auth.RemoveRole(ctx, strings.TrimSpace(req.UserID), role) {
		return errorJSON(c, http.StatusBadRequest, "failed to remove role")
	}
	return messageJSON(c, "role '"+role+"' removed")
}

// UserRoles: GET /v1/auth/users/:id/roles.
func (h *AuthHandler) UserRoles(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	return c.JSON(http.StatusOK, userRolesResp{UserID: id, Roles: h.Auth.GetUserRoles(ctx, id)})
}
