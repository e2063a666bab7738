// Command feedbackctl runs administrative tasks against the feedback database.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/faculty-feedback-api/internal/config"
	"github.com/yukikurage/faculty-feedback-api/internal/database"
	"github.com/yukikurage/faculty-feedback-api/internal/logger"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "feedbackctl",
		Short:         "Administer the faculty feedback service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(categoryCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env holds what every subcommand needs
type env struct {
	cfg    *config.Config
	db     *gorm.DB
	logger *zap.Logger
}

func openEnv() (*env, func(), error) {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	zlog, err := logger.New(config.LogConfig{Level: "warn", Format: "console"})
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Connect(cfg.Database, zlog)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		_ = zlog.Sync()
	}
	return &env{cfg: cfg, db: db, logger: zlog}, cleanup, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cleanup, err := openEnv()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := database.Migrate(e.db, e.logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed")
			return nil
		},
	}
}
