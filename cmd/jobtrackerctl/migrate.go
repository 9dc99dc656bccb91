package main

import (
	"errors"
	"fmt"
	"strconv"

	"jobtracker/internal/config"
	"jobtracker/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const (
	targetLocal  = "local"
	targetHosted = "hosted"
)

var migrateTarget string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply, inspect or roll back schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openTarget()
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := database.RunMigrations(cmd.Context(), db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "sql migrations applied")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and whether each is applied",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openTarget()
		if err != nil {
			return err
		}
		defer database.Close(db)

		status, err := database.GetMigrationStatus(cmd.Context(), db)
		if err != nil {
			return fmt.Errorf("migration status failed: %w", err)
		}
		for _, m := range status {
			state := "pending"
			if m.Applied {
				state = "applied"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%06d_%s\t%s\n", m.Version, m.Name, state)
		}
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down <version>",
	Short: "Roll back one applied migration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		db, err := openTarget()
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := database.RollbackMigration(cmd.Context(), db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %d\n", version)
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrateTarget, "target", targetLocal, "Database to migrate: local or hosted")
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}

func openTarget() (*gorm.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openDatabase(cfg, migrateTarget)
}

// openDatabase connects to the SQLite file or the hosted Postgres.
func openDatabase(cfg *config.Config, target string) (*gorm.DB, error) {
	switch target {
	case targetLocal:
		return database.OpenSQLite(cfg.SQLitePath)
	case targetHosted:
		if cfg.SupabaseDBURL == "" {
			return nil, errors.New("SUPABASE_DB_URL is required for --target hosted")
		}
		return database.OpenPostgres(cfg.SupabaseDBURL)
	default:
		return nil, fmt.Errorf("unknown target %q: want %s or %s", target, targetLocal, targetHosted)
	}
}
