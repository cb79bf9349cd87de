package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/velorashop/auth-service/internal/model"
)

// RequireTier enforces a minimum authority tier on the route. It assumes
// Authenticate ran earlier in the chain.
func RequireTier(min model.RoleTier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := CurrentActor(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			if !actor.Tier.AtLeast(min) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
