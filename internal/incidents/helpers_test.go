package incidents_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/EmpoweredVote/incident-import/internal/incidents"
	"github.com/stretchr/testify/require"
)

// row builds a CSV record in RequiredColumns order. Unset columns are blank.
func row(vals map[string]string) []string {
	rec := make([]string, len(incidents.RequiredColumns))
	for i, c := range incidents.RequiredColumns {
		rec[i] = vals[c]
	}
	return rec
}

// categoryRow is a complete, well-formed row with the given raw category.
func categoryRow(cat string) []string {
	return row(map[string]string{
		incidents.ColIncidentDatetime:      "2023/03/13 11:41:00 PM",
		incidents.ColIncidentDayOfWeek:     "Monday",
		incidents.ColReportDatetime:        "2023/03/14 08:15:00 AM",
		incidents.ColReportTypeDescription: "Initial",
		incidents.ColIncidentCode:          "06244",
		incidents.ColIncidentCategory:      cat,
		incidents.ColIncidentSubcategory:   "Sub",
		incidents.ColIncidentDescription:   "Description",
		incidents.ColResolution:            "Open or Active",
		incidents.ColIntersection:          "MARKET ST \\ 5TH ST",
		incidents.ColLatitude:              "37.7835",
		incidents.ColLongitude:             "-122.4081",
		incidents.ColPoliceDistrict:        "Southern",
		incidents.ColAnalysisNeighborhood:  "South of Market",
		incidents.ColSupervisorDistrict:    "6",
	})
}

// csvText renders a header plus records as CSV text.
func csvText(t *testing.T, records ...[]string) string {
	t.Helper()
	var b strings.Builder
	w := csv.NewWriter(&b)
	require.NoError(t, w.Write(incidents.RequiredColumns))
	for _, r := range records {
		require.NoError(t, w.Write(r))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return b.String()
}

// writeCSV writes records to a temp file and returns its path.
func writeCSV(t *testing.T, records ...[]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "incidents.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvText(t, records...)), 0o644))
	return path
}
