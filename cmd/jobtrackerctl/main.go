// Command jobtrackerctl runs schema, data transfer and seeding tasks
// against the job tracker stores.
package main

import (
	"fmt"
	"os"

	"jobtracker/internal/config"
	"jobtracker/internal/observability"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "jobtrackerctl",
	Short:         "Job tracker admin tool",
	Long:          "Manage migrations, snapshots and demo data for the local SQLite and hosted Supabase stores.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and points the logger at it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	observability.Configure(cfg.Env, cfg.LogLevel)
	return cfg, nil
}
