package cmd

import (
	"tunecrate/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the TuneCrate HTTP server",
	Long:  `Start the TuneCrate music-library HTTP server, serving the REST API and the playback session endpoint.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
