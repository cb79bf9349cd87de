package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/velorashop/auth-service/internal/audit"
	"github.com/velorashop/auth-service/internal/middleware"
	"github.com/velorashop/auth-service/internal/model"
	"github.com/velorashop/auth-service/internal/repository"
	"github.com/velorashop/auth-service/internal/service"
)

// refreshCookie is the httpOnly cookie the refresh token travels in.
const refreshCookie = "refresh_token"

const dbTimeout = 5 * time.Second

// AuthHandler bundles the session-lifecycle endpoints.
type AuthHandler struct {
	Auth   *service.AuthService
	Secure bool // mark cookies Secure (prod)
}

func NewAuthHandler(auth *service.AuthService, secure bool) *AuthHandler {
	return &AuthHandler{Auth: auth, Secure: secure}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResp struct {
	User            model.SanitizedUser `json:"user"`
	AccessToken     string              `json:"access_token"`
	AccessExpiresAt time.Time           `json:"access_expires_at"`
}

// Register creates a customer account and signs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	pair, err := h.Auth.Register(ctx, req.Email, req.Name, req.Password, requestMeta(c))
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	h.setRefreshCookie(c, pair)
	return c.JSON(http.StatusCreated, authResp{
		User:            pair.User,
		AccessToken:     pair.AccessToken,
		AccessExpiresAt: pair.AccessExpiresAt,
	})
}

// Login verifies credentials and issues a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	pair, err := h.Auth.Login(ctx, req.Email, req.Password, requestMeta(c))
	if err != nil {
		return h.writeLoginError(c, err)
	}

	h.setRefreshCookie(c, pair)
	return c.JSON(http.StatusOK, authResp{
		User:            pair.User,
		AccessToken:     pair.AccessToken,
		AccessExpiresAt: pair.AccessExpiresAt,
	})
}

func (h *AuthHandler) writeLoginError(c echo.Context, err error) error {
	var locked *service.LockedError
	var bad *service.BadCredentialsError
	switch {
	case errors.As(err, &locked):
		return c.JSON(http.StatusLocked, echo.Map{
			"error":            locked.Error(),
			"locked_until":     locked.Until,
			"retry_after_mins": locked.Minutes,
		})
	case errors.As(err, &bad):
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error":              bad.Error(),
			"attempts_remaining": bad.AttemptsLeft,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": service.ErrInvalidCredentials.Error()})
	case errors.Is(err, service.ErrAccountDisabled):
		return c.JSON(http.StatusForbidden, echo.Map{"error": service.ErrAccountDisabled.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
}

// Refresh rotates the refresh cookie and issues a new access token. Every
// failure clears the cookie so a dead session does not retry forever.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookie)
	if err != nil || cookie.Value == "" {
		h.clearRefreshCookie(c)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, cookie.Value, requestMeta(c))
	if err != nil {
		h.clearRefreshCookie(c)
		switch {
		case errors.Is(err, service.ErrInvalidRefresh):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": service.ErrInvalidRefresh.Error()})
		case errors.Is(err, service.ErrAccountDisabled):
			return c.JSON(http.StatusForbidden, echo.Map{"error": service.ErrAccountDisabled.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
		}
	}

	h.setRefreshCookie(c, pair)
	return c.JSON(http.StatusOK, authResp{
		User:            pair.User,
		AccessToken:     pair.AccessToken,
		AccessExpiresAt: pair.AccessExpiresAt,
	})
}

// Logout revokes the presented refresh session and clears the cookie. Always
// succeeds from the client's point of view.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if cookie, err := c.Cookie(refreshCookie); err == nil {
		h.Auth.Logout(ctx, cookie.Value)
	}
	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// LogoutAll revokes every refresh session of the authenticated user.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Auth.LogoutAll(ctx, actor, requestMeta(c)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "all sessions revoked"})
}

// Me returns the authenticated principal.
func (h *AuthHandler) Me(c echo.Context) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":    actor.ID,
		"email": actor.Email,
		"role":  actor.RoleName,
	})
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, pair service.TokenPair) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(pair.RefreshTTL / time.Second),
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func requestMeta(c echo.Context) audit.RequestMeta {
	return audit.RequestMeta{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}
