package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/velorashop/auth-service/internal/config"
	"github.com/velorashop/auth-service/internal/database"
	"github.com/velorashop/auth-service/internal/logger"
	"github.com/velorashop/auth-service/internal/repository"
	"github.com/velorashop/auth-service/internal/service"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge expired and revoked token rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := logger.New(cfg.Env)

		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		cleaner := service.NewCleaner(repository.NewTokenRepo(db), repository.NewSetupTokenRepo(db), log)
		return cleaner.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
