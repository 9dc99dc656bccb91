package main

import (
	"fmt"

	"jobtracker/internal/repository"
	"jobtracker/internal/seed"

	"github.com/spf13/cobra"
)

var (
	seedUsers int
	seedJobs  int
	seedValue int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the active store with demo users and jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := repository.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		res, err := seed.Run(cmd.Context(), store, seed.Options{
			Users:       seedUsers,
			JobsPerUser: seedJobs,
			Seed:        seedValue,
		})
		if err != nil {
			return err
		}
		for _, u := range res.Users {
			fmt.Fprintf(cmd.OutOrStdout(), "%s / %s\n", u.Username, seed.DefaultPassword)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d users, %d jobs, %d goals\n", len(res.Users), res.Jobs, res.Goals)
		return nil
	},
}

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Print the data backend the current configuration selects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		backend, reason := repository.Explain(cfg)
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", backend, reason)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", 3, "Number of users to create")
	seedCmd.Flags().IntVar(&seedJobs, "jobs", 20, "Jobs per user")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 0, "Random seed (0 uses the clock)")
	rootCmd.AddCommand(seedCmd, backendCmd)
}
