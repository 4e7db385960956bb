package incidents_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/EmpoweredVote/incident-import/internal/db"
	"github.com/EmpoweredVote/incident-import/internal/incidents"
	"github.com/EmpoweredVote/incident-import/internal/testinfra"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	pgOnce sync.Once
	pg     *testinfra.PostgresContainer
	pgErr  error
)

func TestMain(m *testing.M) {
	code := m.Run()
	if pg != nil {
		_ = pg.Terminate(context.Background())
	}
	os.Exit(code)
}

// testDSN returns a database for integration tests: TEST_DATABASE_URL when
// set, otherwise a container started on first use. Tests skip when neither is
// available.
func testDSN(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in -short mode")
	}
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn
	}
	pgOnce.Do(func() {
		pg, pgErr = testinfra.StartPostgres(context.Background())
	})
	if pgErr != nil {
		t.Skipf("postgres unavailable: %v", pgErr)
	}
	return pg.ConnString
}

// newTable creates a fresh incidents-shaped table and drops it afterwards.
func newTable(t *testing.T, dsn string) string {
	t.Helper()
	name := "incidents_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")

	conn, err := db.Open(dsn, nil)
	require.NoError(t, err)
	defer db.Close(conn)
	require.NoError(t, conn.Exec(fmt.Sprintf(testinfra.IncidentsDDL, name)).Error)

	t.Cleanup(func() {
		conn, err := db.Open(dsn, nil)
		if err != nil {
			return
		}
		defer db.Close(conn)
		conn.Exec("DROP TABLE IF EXISTS " + name)
	})
	return name
}

func fetchAll(t *testing.T, dsn, table string) []incidents.Incident {
	t.Helper()
	conn, err := db.Open(dsn, nil)
	require.NoError(t, err)
	defer db.Close(conn)

	var out []incidents.Incident
	require.NoError(t, conn.Table(table).Order("id").Find(&out).Error)
	return out
}

func nextID(t *testing.T, dsn, table string) int64 {
	t.Helper()
	conn, err := db.Open(dsn, nil)
	require.NoError(t, err)
	defer db.Close(conn)

	var id int64
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return tx.Raw("INSERT INTO " + table + " (incident_category_custom, incident_category) VALUES ('Robbery', 'Robbery') RETURNING id").Scan(&id).Error
	}))
	return id
}

func loadRows(t *testing.T, records ...[]string) []incidents.Incident {
	t.Helper()
	res, err := load(t, records...)
	require.NoError(t, err)
	return res.Incidents
}

func TestSink_ClearIsIdempotent(t *testing.T) {
	dsn := testDSN(t)
	table := newTable(t, dsn)
	sink := incidents.NewSink(dsn, table, 0, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, sink.Insert(ctx, loadRows(t, categoryRow("Robbery"), categoryRow("Fraud"))))
	require.Len(t, fetchAll(t, dsn, table), 2)

	require.NoError(t, sink.Clear(ctx))
	assert.Empty(t, fetchAll(t, dsn, table))

	require.NoError(t, sink.Clear(ctx))
	assert.Empty(t, fetchAll(t, dsn, table))

	// RESTART IDENTITY puts the sequence back at 1.
	assert.Equal(t, int64(1), nextID(t, dsn, table))
}

func TestSink_InsertInBatches(t *testing.T) {
	dsn := testDSN(t)
	table := newTable(t, dsn)
	sink := incidents.NewSink(dsn, table, 2, zerolog.Nop())

	rows := loadRows(t,
		categoryRow("Robbery"),
		categoryRow("Arson"),
		categoryRow("Fraud"),
		categoryRow("Warrant"),
		categoryRow("Rape"),
	)
	require.NoError(t, sink.Insert(context.Background(), rows))

	got := fetchAll(t, dsn, table)
	require.Len(t, got, 5)
	assert.Equal(t, incidents.Robbery, got[0].IncidentCategoryCustom)
	assert.Equal(t, incidents.SexualViolence, got[4].IncidentCategoryCustom)
	assert.Equal(t, "Rape", got[4].IncidentCategory)
	assert.Equal(t, int64(6244), got[0].IncidentCode.Int64)
	assert.Equal(t, "Southern", got[0].PoliceDistrict.String)
	assert.True(t, rows[0].IncidentDatetime.Time.Equal(got[0].IncidentDatetime.Time))
}

// TestSink_NullLatitudePreserved: an empty latitude is stored as NULL while
// the longitude survives.
func TestSink_NullLatitudePreserved(t *testing.T) {
	dsn := testDSN(t)
	table := newTable(t, dsn)
	sink := incidents.NewSink(dsn, table, 0, zerolog.Nop())

	fields := fieldsOf(categoryRow("Assault"))
	fields[incidents.ColLatitude] = ""
	require.NoError(t, sink.Insert(context.Background(), loadRows(t, row(fields))))

	got := fetchAll(t, dsn, table)
	require.Len(t, got, 1)
	assert.False(t, got[0].Latitude.Valid)
	assert.True(t, got[0].Longitude.Valid)
	assert.InDelta(t, -122.4081, got[0].Longitude.Float64, 1e-9)
}

// TestSink_InsertIsAllOrNothing makes the last batch fail a CHECK constraint
// and verifies the earlier batch is rolled back with it.
func TestSink_InsertIsAllOrNothing(t *testing.T) {
	dsn := testDSN(t)
	table := newTable(t, dsn)
	sink := incidents.NewSink(dsn, table, 2, zerolog.Nop())

	rows := loadRows(t, categoryRow("Robbery"), categoryRow("Arson"), categoryRow("Fraud"))
	rows[2].IncidentCategoryCustom = ""
	conn, err := db.Open(dsn, nil)
	require.NoError(t, err)
	require.NoError(t, conn.Exec("ALTER TABLE "+table+" ADD CONSTRAINT custom_not_blank CHECK (incident_category_custom <> '')").Error)
	db.Close(conn)

	err = sink.Insert(context.Background(), rows)
	require.Error(t, err)
	assert.Empty(t, fetchAll(t, dsn, table))
}

func TestSink_MissingTable(t *testing.T) {
	dsn := testDSN(t)
	sink := incidents.NewSink(dsn, "no_such_table_"+uuid.NewString()[:8], 0, zerolog.Nop())

	assert.Error(t, sink.Clear(context.Background()))
}

func TestSink_Stats(t *testing.T) {
	dsn := testDSN(t)
	table := newTable(t, dsn)
	sink := incidents.NewSink(dsn, table, 0, zerolog.Nop())

	noCoords := fieldsOf(categoryRow("Fraud"))
	noCoords[incidents.ColLatitude] = ""
	require.NoError(t, sink.Insert(context.Background(), loadRows(t,
		categoryRow("Robbery"),
		categoryRow("Robbery"),
		categoryRow("Arson"),
		row(noCoords),
	)))

	st, err := sink.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), st.TotalRows)
	assert.Equal(t, int64(3), st.TotalIncidents)
	assert.Equal(t, int64(2), st.TotalCategories)
	assert.Equal(t, int64(1), st.TotalDistricts)
	assert.True(t, st.Earliest.Valid)
	assert.True(t, st.Latest.Valid)
	require.Len(t, st.ByCategory, 3)
	assert.Equal(t, incidents.CategoryCount{Category: incidents.Robbery, Count: 2}, st.ByCategory[0])
}

// TestRun_EndToEndUnknownCategory runs the full pipeline against Postgres
// with one excluded, one unknown and one mapped row: the run fails and the
// table holds nothing afterwards.
func TestRun_EndToEndUnknownCategory(t *testing.T) {
	dsn := testDSN(t)
	table := newTable(t, dsn)
	sink := incidents.NewSink(dsn, table, 0, zerolog.Nop())
	require.NoError(t, sink.Insert(context.Background(), loadRows(t, categoryRow("Robbery"))))

	path := writeCSV(t, categoryRow("Other"), categoryRow("Bicycle Theft"), categoryRow("Burglary"))
	rep, err := run(t, sink, path, false)
	require.Error(t, err)
	assert.Equal(t, incidents.StageFailed, rep.Stage)
	assert.Empty(t, fetchAll(t, dsn, table))
}

func TestRun_EndToEnd(t *testing.T) {
	dsn := testDSN(t)
	table := newTable(t, dsn)
	sink := incidents.NewSink(dsn, table, 0, zerolog.Nop())

	path := writeCSV(t, categoryRow("Burglary"), categoryRow(""), categoryRow("Recovered Vehicle"), categoryRow("Vandalism"))
	rep, err := run(t, sink, path, false)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Inserted)

	got := fetchAll(t, dsn, table)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, incidents.Burglary, got[0].IncidentCategoryCustom)
	assert.Equal(t, incidents.PropertyDamage, got[1].IncidentCategoryCustom)
}
