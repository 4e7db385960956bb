package cli

import (
	"fmt"

	"github.com/EmpoweredVote/incident-import/internal/config"
	"github.com/EmpoweredVote/incident-import/internal/incidents"
	"github.com/spf13/cobra"
)

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print the incident category mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printCategories(cmd.OutOrStdout())
			return nil
		},
	}
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load and classify the CSV without touching the database",
		Long: `check reads the CSV exactly as an import would and reports how rows
would be grouped. It fails on the first category the mapping does not know.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(*root)
			if err != nil {
				return err
			}
			if err := cfg.ValidateSource(); err != nil {
				return err
			}
			res, err := incidents.LoadFile(cfg.CSVPath, incidents.LoadOptions{MaxRows: cfg.MaxRows, Logger: log})
			if err != nil {
				return err
			}
			printLoad(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newStatsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print summary statistics of the loaded table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(*root)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return config.ErrMissingDatabaseURL
			}
			st, err := newSink(cfg, log).Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			printStats(cmd.OutOrStdout(), st)
			return nil
		},
	}
}
