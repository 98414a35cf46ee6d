package cmd

import (
	"tunecrate/config"
	"tunecrate/db"
	"tunecrate/logger"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Test the Redis connection",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.Config{Level: logger.LogLevel(cfg.LogLevel)})

		if err := db.ConnectRedis(cfg); err != nil {
			logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
		}
		defer db.CloseRedis()

		if err := db.TestRedis(); err != nil {
			logger.Fatal("Redis test failed", logger.ErrorField(err))
		}
		logger.Info("Redis connection OK")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
