package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/velorashop/auth-service/internal/auth"
	"github.com/velorashop/auth-service/internal/service"
)

// SetupPasswordHandler completes the one-time admin password-setup flow.
// The route is unauthenticated: the bcrypt-hashed token in the request body
// is the credential.
type SetupPasswordHandler struct {
	Setup *service.SetupService
}

func NewSetupPasswordHandler(setup *service.SetupService) *SetupPasswordHandler {
	return &SetupPasswordHandler{Setup: setup}
}

type setupPasswordReq struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Complete redeems a setup token and installs the account's first password.
func (h *SetupPasswordHandler) Complete(c echo.Context) error {
	var req setupPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Token == "" || req.Password == "" || req.ConfirmPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token, password and confirm_password required"})
	}

	// Token comparison is a bcrypt scan over live candidates; give it more
	// room than a plain row lookup.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*dbTimeout)
	defer cancel()

	user, err := h.Setup.CompletePasswordSetup(ctx, req.Token, req.Password, req.ConfirmPassword, requestMeta(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordMismatch), errors.Is(err, auth.ErrWeakPassword):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidSetupToken),
			errors.Is(err, service.ErrNotAdminAccount),
			errors.Is(err, service.ErrPasswordAlreadySet):
			// One message for every dead-token shape; the caller learns
			// nothing about why the token no longer works.
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": service.ErrInvalidSetupToken.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "setup failed"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "password set; please sign in",
		"user":    user,
	})
}
