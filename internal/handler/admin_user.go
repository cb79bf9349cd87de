package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/velorashop/auth-service/internal/auth"
	"github.com/velorashop/auth-service/internal/middleware"
	"github.com/velorashop/auth-service/internal/model"
	"github.com/velorashop/auth-service/internal/service"
)

// AdminUserHandler exposes the administrative account-lifecycle endpoints.
// Tier enforcement happens in middleware; per-target authorization (self
// mutation, super immutability, escalation) happens in the service guard.
type AdminUserHandler struct {
	Admin *service.AdminService
}

func NewAdminUserHandler(admin *service.AdminService) *AdminUserHandler {
	return &AdminUserHandler{Admin: admin}
}

type roleReq struct {
	Role string `json:"role"`
}
type statusReq struct {
	IsActive *bool `json:"is_active"`
}
type restoreReq struct {
	Role string `json:"role"`
}

type promoteResp struct {
	User                  model.SanitizedUser `json:"user"`
	RequiresPasswordSetup bool                `json:"requires_password_setup,omitempty"`
}

// UpdateRole grants the target a new role.
func (h *AdminUserHandler) UpdateRole(c echo.Context) error {
	actor, targetID, err := h.actorAndTarget(c)
	if err != nil {
		return err
	}

	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Role) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	result, err := h.Admin.PromoteRole(ctx, actor, targetID, req.Role, requestMeta(c))
	if err != nil {
		return writeAdminError(c, err)
	}
	return c.JSON(http.StatusOK, promoteResp{User: result.User, RequiresPasswordSetup: result.RequiresPasswordSetup})
}

// UpdateStatus activates or deactivates the target.
func (h *AdminUserHandler) UpdateStatus(c echo.Context) error {
	actor, targetID, err := h.actorAndTarget(c)
	if err != nil {
		return err
	}

	var req statusReq
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "is_active required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	user, err := h.Admin.SetStatus(ctx, actor, targetID, *req.IsActive, requestMeta(c))
	if err != nil {
		return writeAdminError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// Unlock clears the target's login lockout.
func (h *AdminUserHandler) Unlock(c echo.Context) error {
	actor, targetID, err := h.actorAndTarget(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Admin.Unlock(ctx, actor, targetID, requestMeta(c)); err != nil {
		return writeAdminError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "account unlocked"})
}

// Delete soft-deletes the target.
func (h *AdminUserHandler) Delete(c echo.Context) error {
	actor, targetID, err := h.actorAndTarget(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Admin.SoftDelete(ctx, actor, targetID, requestMeta(c)); err != nil {
		return writeAdminError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "account deleted"})
}

// Restore reactivates a soft-deleted account, optionally assigning a role.
func (h *AdminUserHandler) Restore(c echo.Context) error {
	actor, targetID, err := h.actorAndTarget(c)
	if err != nil {
		return err
	}

	var req restoreReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	result, err := h.Admin.Restore(ctx, actor, targetID, strings.TrimSpace(req.Role), requestMeta(c))
	if err != nil {
		return writeAdminError(c, err)
	}
	return c.JSON(http.StatusOK, promoteResp{User: result.User, RequiresPasswordSetup: result.RequiresPasswordSetup})
}

// errRequestRejected marks a request actorAndTarget already answered. It is
// non-nil so callers stop, and echo skips it because the response is committed.
var errRequestRejected = errors.New("request rejected")

func (h *AdminUserHandler) actorAndTarget(c echo.Context) (model.Actor, uint64, error) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return model.Actor{}, 0, reject(c, http.StatusUnauthorized, "missing bearer token")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return model.Actor{}, 0, reject(c, http.StatusBadRequest, "invalid user id")
	}
	return actor, id, nil
}

func reject(c echo.Context, code int, msg string) error {
	if err := c.JSON(code, echo.Map{"error": msg}); err != nil {
		return err
	}
	return errRequestRejected
}

func writeAdminError(c echo.Context, err error) error {
	switch {
	case auth.IsGuardError(err):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrRoleNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotDeleted), errors.Is(err, service.ErrNotLocked):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed"})
	}
}
