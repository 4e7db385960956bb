// Package testinfra starts throwaway Postgres instances for integration tests.
package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "postgres:16-alpine"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "incidents"
)

type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

// IncidentsDDL creates a table shaped like the production incidents table.
// The importer never creates it; tests do.
const IncidentsDDL = `
	CREATE TABLE %s (
		id SERIAL PRIMARY KEY,
		incident_datetime TIMESTAMP,
		incident_day_of_week TEXT,
		report_datetime TIMESTAMP,
		report_type_description TEXT,
		incident_code INTEGER,
		incident_category_custom TEXT NOT NULL,
		incident_category TEXT NOT NULL,
		incident_subcategory TEXT,
		incident_description TEXT,
		resolution TEXT,
		intersection TEXT,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		police_district TEXT,
		analysis_neighborhood TEXT,
		supervisor_district INTEGER
	)`

func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}
