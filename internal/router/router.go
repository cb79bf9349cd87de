// Package router maps HTTP routes to handlers and attaches the middleware
// chain each group needs.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/velorashop/auth-service/internal/auth"
	"github.com/velorashop/auth-service/internal/config"
	"github.com/velorashop/auth-service/internal/handler"
	"github.com/velorashop/auth-service/internal/middleware"
	"github.com/velorashop/auth-service/internal/model"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Auth    *handler.AuthHandler
	Admin   *handler.AdminUserHandler
	Setup   *handler.SetupPasswordHandler
	Codec   *auth.TokenCodec
	Users   middleware.UserLoader
	RateCfg config.RateLimitConfig
	Redis   *redis.Client // nil disables the login rate limiter
}

// Register wires all routes onto the Echo instance.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	// Session lifecycle. Register, login, refresh and setup-password carry
	// their own credentials and take no bearer token.
	public := e.Group("/v1/auth")
	public.POST("/register", d.Auth.Register)
	public.POST("/login", d.Auth.Login, middleware.LoginRateLimit(d.RateCfg, d.Redis))
	public.POST("/refresh", d.Auth.Refresh)
	public.POST("/logout", d.Auth.Logout)
	public.POST("/setup-password", d.Setup.Complete)

	// Any authenticated user.
	authed := e.Group("/v1")
	authed.Use(middleware.Authenticate(d.Codec, d.Users))
	authed.GET("/me", d.Auth.Me)
	authed.POST("/auth/logout-all", d.Auth.LogoutAll)

	// Administrative account lifecycle: admin tier and above.
	admin := e.Group("/v1/admin", middleware.Authenticate(d.Codec, d.Users), middleware.RequireTier(model.TierAdmin))
	admin.PATCH("/users/:id/role", d.Admin.UpdateRole)
	admin.PATCH("/users/:id/status", d.Admin.UpdateStatus)
	admin.PATCH("/users/:id/unlock", d.Admin.Unlock)
	admin.PATCH("/users/:id/restore", d.Admin.Restore)
	admin.DELETE("/users/:id", d.Admin.Delete)
}
