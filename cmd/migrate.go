package cmd

import (
	"tunecrate/config"
	"tunecrate/db"
	"tunecrate/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations and exit",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.Config{Level: logger.LogLevel(cfg.LogLevel)})

		if err := db.ConnectGormDB(cfg); err != nil {
			logger.Fatal("Failed to connect to database", logger.ErrorField(err))
		}
		defer db.CloseGormDB()

		if err := db.AutoMigrate(); err != nil {
			logger.Fatal("Migration failed", logger.ErrorField(err))
		}
		logger.Info("Migration completed")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
