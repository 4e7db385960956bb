package cli

import (
	"github.com/EmpoweredVote/incident-import/internal/config"
	"github.com/EmpoweredVote/incident-import/internal/incidents"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func runImport(cmd *cobra.Command, cfg config.Config, log zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var store incidents.Store
	var sink *incidents.Sink
	if !cfg.DryRun {
		sink = newSink(cfg, log)
		store = sink
	}

	rep, err := incidents.Run(cmd.Context(), incidents.RunOptions{
		CSVPath: cfg.CSVPath,
		MaxRows: cfg.MaxRows,
		DryRun:  cfg.DryRun,
		Store:   store,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printLoad(out, rep.Load)
	if sink == nil {
		return nil
	}

	st, err := sink.Stats(cmd.Context())
	if err != nil {
		// The import itself committed; a failed summary is not fatal.
		log.Warn().Err(err).Msg("could not read table statistics")
		return nil
	}
	printStats(out, st)
	return nil
}
