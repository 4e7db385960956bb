package incidents

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column headers of the SFPD "Incident Reports: 2018 to Present" export.
const (
	ColIncidentDatetime      = "Incident Datetime"
	ColIncidentDayOfWeek     = "Incident Day of Week"
	ColReportDatetime        = "Report Datetime"
	ColReportTypeDescription = "Report Type Description"
	ColIncidentCode          = "Incident Code"
	ColIncidentCategory      = "Incident Category"
	ColIncidentSubcategory   = "Incident Subcategory"
	ColIncidentDescription   = "Incident Description"
	ColResolution            = "Resolution"
	ColIntersection          = "Intersection"
	ColLatitude              = "Latitude"
	ColLongitude             = "Longitude"
	ColPoliceDistrict        = "Police District"
	ColAnalysisNeighborhood  = "Analysis Neighborhood"
	ColSupervisorDistrict    = "Supervisor District"
)

// RequiredColumns are the headers the loader reads. The export carries more;
// the rest are ignored.
var RequiredColumns = []string{
	ColIncidentDatetime,
	ColIncidentDayOfWeek,
	ColReportDatetime,
	ColReportTypeDescription,
	ColIncidentCode,
	ColIncidentCategory,
	ColIncidentSubcategory,
	ColIncidentDescription,
	ColResolution,
	ColIntersection,
	ColLatitude,
	ColLongitude,
	ColPoliceDistrict,
	ColAnalysisNeighborhood,
	ColSupervisorDistrict,
}

var ErrNoHeader = errors.New("csv has no header row")

// SourceRow is one data row keyed by header name, before any coercion.
type SourceRow struct {
	Line   int
	Fields map[string]string
}

// Get returns the raw cell for a column, or "" when the row is short.
func (r SourceRow) Get(name string) string {
	return r.Fields[name]
}

// ReadCSV reads every data row from src. maxRows > 0 stops after that many.
func ReadCSV(src io.Reader, maxRows int) ([]SourceRow, error) {
	r := csv.NewReader(bufio.NewReader(src))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	// Handle BOM on first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, k := range RequiredColumns {
		if _, ok := col[k]; !ok {
			return nil, fmt.Errorf("missing required column: %s", k)
		}
	}

	var out []SourceRow
	for maxRows <= 0 || len(out) < maxRows {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read: %w", err)
		}
		line, _ := r.FieldPos(0)

		fields := make(map[string]string, len(RequiredColumns))
		for _, name := range RequiredColumns {
			i := col[name]
			if i < len(rec) {
				fields[name] = rec[i]
			}
		}
		out = append(out, SourceRow{Line: line, Fields: fields})
	}

	return out, nil
}
