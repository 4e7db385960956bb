package cli

import (
	"github.com/EmpoweredVote/incident-import/internal/config"
	"github.com/EmpoweredVote/incident-import/internal/incidents"
	"github.com/EmpoweredVote/incident-import/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	csvPath    string
	dryRun     bool
	logLevel   string
	logFormat  string
}

// NewRootCmd builds the command tree. The root command itself performs the
// import: clear the table, then load every row.
func NewRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "incident-import",
		Short: "Load the SFPD incident CSV export into Postgres",
		Long: `incident-import clears the incidents table and bulk-loads the SFPD
"Incident Reports: 2018 to Present" CSV export into it.

Every incident category is mapped onto one of ten custom groups. Rows with no
category, or with one of the excluded categories, are dropped. A category the
mapping does not know about stops the import before anything is inserted.

Configuration comes from an optional YAML file (--config), then the
environment (DATABASE_URL, INCIDENTS_*), then flags.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(opts)
			if err != nil {
				return err
			}
			return runImport(cmd, cfg, log)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	f.StringVar(&opts.csvPath, "csv", "", "Path to the CSV export (default: env INCIDENTS_CSV_PATH or the SF export file name)")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&opts.logFormat, "log-format", "", "Log format: console or json")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Parse and classify only; no database writes")

	cmd.AddCommand(
		newCategoriesCmd(),
		newCheckCmd(&opts),
		newStatsCmd(&opts),
	)
	return cmd
}

// Execute runs the command tree against os.Args.
func Execute() error {
	config.LoadDotEnv(".env.local", ".env")
	return NewRootCmd().Execute()
}

func setup(opts rootOptions) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	if opts.csvPath != "" {
		cfg.CSVPath = opts.csvPath
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	cfg.DryRun = opts.dryRun

	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, log, nil
}

func newSink(cfg config.Config, log zerolog.Logger) *incidents.Sink {
	return incidents.NewSink(cfg.DatabaseURL, cfg.Table, cfg.BatchSize, log)
}
