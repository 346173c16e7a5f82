package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anyx-app/secudash-43b2ee93/pkg/logger"
	"github.com/anyx-app/secudash-43b2ee93/pkg/query"
)

var (
	serverURL string
	projectID string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "secudash",
	Short: "Query client and backend for the SecuDash project store",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logger.Config{Level: logLevel, Format: "text", Output: os.Stderr})
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url", "", "Backend base URL (default $ANYX_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&projectID, "project", "", "Project id (default $ANYX_PROJECT_ID)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "WARN", "Log level: DEBUG, INFO, WARN, ERROR")
}

// newClient uses the flags when both are set and the environment otherwise.
func newClient() *query.Client {
	if serverURL != "" && projectID != "" {
		return query.NewClient(query.WithEndpoint(serverURL, projectID))
	}
	return query.NewClient()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
