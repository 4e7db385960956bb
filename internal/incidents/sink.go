package incidents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EmpoweredVote/incident-import/internal/db"
	"github.com/EmpoweredVote/incident-import/internal/logging"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// DefaultBatchSize is the number of rows per INSERT statement.
const DefaultBatchSize = 1000

// Sink writes incidents to Postgres. Every operation opens its own
// connection and runs in its own transaction.
type Sink struct {
	dsn       string
	table     string
	batchSize int
	log       zerolog.Logger
}

func NewSink(dsn, table string, batchSize int, log zerolog.Logger) *Sink {
	if table == "" {
		table = DefaultTable
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Sink{
		dsn:       dsn,
		table:     table,
		batchSize: batchSize,
		log:       log.With().Str("table", table).Logger(),
	}
}

func (s *Sink) Table() string { return s.table }

func (s *Sink) withConn(ctx context.Context, fn func(conn *gorm.DB) error) error {
	conn, err := db.Open(s.dsn, logging.Gorm(s.log))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(conn); cerr != nil {
			s.log.Warn().Err(cerr).Msg("close connection")
		}
	}()
	return fn(conn.WithContext(ctx))
}

// Clear empties the table and resets its identity sequence. Running it on an
// empty table is a no-op.
func (s *Sink) Clear(ctx context.Context) error {
	table, err := db.QuoteTable(s.table)
	if err != nil {
		return err
	}

	s.log.Info().Msg("clearing existing data")
	err = s.withConn(ctx, func(conn *gorm.DB) error {
		return conn.Transaction(func(tx *gorm.DB) error {
			return tx.Exec("TRUNCATE TABLE " + table + " RESTART IDENTITY CASCADE").Error
		})
	})
	if err != nil {
		s.logError("clear", err)
		return fmt.Errorf("clear %s: %w", s.table, err)
	}
	s.log.Info().Msg("table cleared")
	return nil
}

// Insert writes rows in batches inside a single transaction. Either every
// row is committed or none is.
func (s *Sink) Insert(ctx context.Context, rows []Incident) error {
	if len(rows) == 0 {
		s.log.Info().Msg("nothing to insert")
		return nil
	}

	start := time.Now()
	s.log.Info().Int("rows", len(rows)).Int("batch_size", s.batchSize).Msg("inserting rows")
	err := s.withConn(ctx, func(conn *gorm.DB) error {
		return conn.Transaction(func(tx *gorm.DB) error {
			return tx.Table(s.table).CreateInBatches(rows, s.batchSize).Error
		})
	})
	if err != nil {
		s.logError("insert", err)
		return fmt.Errorf("insert into %s: %w", s.table, err)
	}

	s.log.Info().
		Int("rows", len(rows)).
		Dur("took", time.Since(start)).
		Msg("imported rows")
	return nil
}

// Stats summarises what is in the table. The headline counts only consider
// incidents that have both coordinates, as the map views do.
type Stats struct {
	TotalRows       int64            `gorm:"column:total_rows"`
	TotalIncidents  int64            `gorm:"column:total_incidents"`
	TotalCategories int64            `gorm:"column:total_categories"`
	TotalDistricts  int64            `gorm:"column:total_districts"`
	Earliest        pgtype.Timestamp `gorm:"column:earliest_incident"`
	Latest          pgtype.Timestamp `gorm:"column:latest_incident"`
	ByCategory      []CategoryCount  `gorm:"-"`
}

type CategoryCount struct {
	Category Category `gorm:"column:category"`
	Count    int64    `gorm:"column:count"`
}

func (s *Sink) Stats(ctx context.Context) (*Stats, error) {
	table, err := db.QuoteTable(s.table)
	if err != nil {
		return nil, err
	}

	var st Stats
	err = s.withConn(ctx, func(conn *gorm.DB) error {
		located := "latitude IS NOT NULL AND longitude IS NOT NULL"
		q := `
			SELECT
				COUNT(*) AS total_rows,
				COUNT(*) FILTER (WHERE ` + located + `) AS total_incidents,
				COUNT(DISTINCT incident_category_custom) FILTER (WHERE ` + located + `) AS total_categories,
				COUNT(DISTINCT police_district) FILTER (WHERE ` + located + `) AS total_districts,
				MIN(incident_datetime) FILTER (WHERE ` + located + `) AS earliest_incident,
				MAX(incident_datetime) FILTER (WHERE ` + located + `) AS latest_incident
			FROM ` + table
		if err := conn.Raw(q).Scan(&st).Error; err != nil {
			return err
		}
		return conn.Raw(`
			SELECT incident_category_custom AS category, COUNT(*) AS count
			FROM ` + table + `
			GROUP BY incident_category_custom
			ORDER BY count DESC, category`).Scan(&st.ByCategory).Error
	})
	if err != nil {
		s.logError("stats", err)
		return nil, fmt.Errorf("stats for %s: %w", s.table, err)
	}
	return &st, nil
}

func (s *Sink) logError(op string, err error) {
	ev := s.log.Error().Err(err).Str("op", op)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		ev = ev.Str("sqlstate", pgErr.Code).Str("detail", pgErr.Detail)
	}
	ev.Msg("database operation failed, transaction rolled back")
}
