// Package middleware provides the request-processing chain shared by the
// HTTP handlers: bearer-token authentication, tier enforcement and login
// rate limiting.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/velorashop/auth-service/internal/auth"
	"github.com/velorashop/auth-service/internal/model"
	"github.com/velorashop/auth-service/internal/repository"
)

// actorKey is the context key the authenticated principal is stored under.
const actorKey = "actor"

// UserLoader loads the live user row backing an access token.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Authenticate validates a Bearer access token and cross-checks it against
// the live user row. Signature and expiry alone are not enough: the token's
// embedded version must match the row's current token_version, so a role
// change, deactivation or password setup invalidates every outstanding access
// token at the next request rather than at natural expiry.
func Authenticate(codec *auth.TokenCodec, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}

			claims, err := codec.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			userID, err := claims.UserID()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			user, err := users.GetByID(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}

			if user.Deleted() || user.TokenVersion != claims.TokenVersion {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			if !user.IsActive {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account has been deactivated"})
			}
			if user.LockedAt(time.Now()) {
				return c.JSON(http.StatusLocked, echo.Map{"error": "account is temporarily locked"})
			}

			c.Set(actorKey, model.ActorFromUser(user))
			return next(c)
		}
	}
}

// CurrentActor retrieves the authenticated principal set by Authenticate.
func CurrentActor(c echo.Context) (model.Actor, bool) {
	actor, ok := c.Get(actorKey).(model.Actor)
	return actor, ok
}
