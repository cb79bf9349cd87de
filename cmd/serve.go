package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/velorashop/auth-service/internal/audit"
	"github.com/velorashop/auth-service/internal/auth"
	"github.com/velorashop/auth-service/internal/config"
	"github.com/velorashop/auth-service/internal/database"
	"github.com/velorashop/auth-service/internal/handler"
	"github.com/velorashop/auth-service/internal/logger"
	"github.com/velorashop/auth-service/internal/mailer"
	"github.com/velorashop/auth-service/internal/queue"
	"github.com/velorashop/auth-service/internal/repository"
	"github.com/velorashop/auth-service/internal/router"
	"github.com/velorashop/auth-service/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable; login rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	roles := repository.NewRoleRepo(db)
	setups := repository.NewSetupTokenRepo(db)
	auditStore := repository.NewAuditRepo(db)

	var alerts audit.AlertPublisher
	if cfg.AMQPURL != "" {
		alerts = queue.NewPublisher(cfg.AMQPURL, log)
		go queue.StartAlertConsumer(cfg.AMQPURL, log)
	} else {
		log.Warn().Msg("AMQP_URL not set; critical alerts stay in the audit log only")
	}
	sink := audit.NewSink(auditStore, alerts, log)

	codec := auth.NewTokenCodec(cfg.JWTSecret)
	expiry := auth.DefaultExpiryPolicy()
	mail := mailer.New(mailer.LogSender{Log: log}, cfg.FrontendURL, cfg.StoreName)

	authSvc := service.NewAuthService(users, tokens, codec, expiry, sink, cfg.BcryptCost, log)
	adminSvc := service.NewAdminService(users, tokens, roles, setups, mail, sink, cfg.BcryptCost, log)
	setupSvc := service.NewSetupService(users, tokens, setups, sink, cfg.BcryptCost, log)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	router.Register(e, router.Deps{
		Auth:    handler.NewAuthHandler(authSvc, cfg.Env == "prod"),
		Admin:   handler.NewAdminUserHandler(adminSvc),
		Setup:   handler.NewSetupPasswordHandler(setupSvc),
		Codec:   codec,
		Users:   users,
		RateCfg: config.LoadRateLimitConfig(),
		Redis:   rdb,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil {
			log.Info().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
