package incidents

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is where cleaned incidents end up. *Sink is the Postgres one.
type Store interface {
	Clear(ctx context.Context) error
	Insert(ctx context.Context, rows []Incident) error
}

// Stage tracks how far a run got.
type Stage string

const (
	StageIdle      Stage = "idle"
	StageClearing  Stage = "clearing"
	StageCleared   Stage = "cleared"
	StageInserting Stage = "inserting"
	StageDone      Stage = "done"
	StageFailed    Stage = "failed"
)

type RunOptions struct {
	CSVPath string
	MaxRows int
	// DryRun loads and classifies only; Store is not touched.
	DryRun bool
	Store  Store
	Logger zerolog.Logger
}

// Report describes a finished (or failed) run.
type Report struct {
	RunID    uuid.UUID
	Stage    Stage
	Load     *LoadResult
	Inserted int
	Took     time.Duration
}

// Run clears the store, loads the CSV and inserts what survives filtering.
// Any error ends the run in StageFailed; nothing is retried.
func Run(ctx context.Context, opts RunOptions) (*Report, error) {
	rep := &Report{RunID: uuid.New(), Stage: StageIdle}
	log := opts.Logger.With().Str("run_id", rep.RunID.String()).Logger()
	start := time.Now()
	defer func() { rep.Took = time.Since(start) }()

	fail := func(err error) (*Report, error) {
		log.Error().Err(err).Str("stage", string(rep.Stage)).Msg("import failed")
		rep.Stage = StageFailed
		return rep, err
	}

	if !opts.DryRun {
		rep.Stage = StageClearing
		if err := opts.Store.Clear(ctx); err != nil {
			return fail(err)
		}
		rep.Stage = StageCleared
	}

	if opts.MaxRows > 0 {
		log.Info().Int("max_rows", opts.MaxRows).Str("csv", opts.CSVPath).Msg("loading first rows")
	} else {
		log.Info().Str("csv", opts.CSVPath).Msg("loading all rows")
	}
	res, err := LoadFile(opts.CSVPath, LoadOptions{MaxRows: opts.MaxRows, Logger: log})
	if err != nil {
		return fail(err)
	}
	rep.Load = res

	if opts.DryRun {
		log.Info().Int("rows", len(res.Incidents)).Msg("dry run complete, no changes made")
		rep.Stage = StageDone
		return rep, nil
	}

	rep.Stage = StageInserting
	if err := opts.Store.Insert(ctx, res.Incidents); err != nil {
		return fail(err)
	}
	rep.Inserted = len(res.Incidents)
	rep.Stage = StageDone

	log.Info().Int("rows", rep.Inserted).Msg("successfully imported rows")
	return rep, nil
}
