package incidents

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type LoadOptions struct {
	// MaxRows limits how many data rows are read. 0 reads everything.
	MaxRows int
	Logger  zerolog.Logger
}

// LoadResult is the cleaned, filtered table ready for the sink.
type LoadResult struct {
	Incidents []Incident
	// Read is the number of data rows taken from the file.
	Read int
	// Filtered counts rows dropped for a blank or excluded category.
	Filtered int
	// Blank and Excluded split Filtered by reason.
	Blank      int
	Excluded   int
	ByCategory map[Category]int
}

// Clean coerces one source row and classifies it. keep is false when the row
// must not be inserted. An unknown category is returned as an error.
func Clean(row SourceRow) (inc Incident, keep bool, err error) {
	raw := row.Get(ColIncidentCategory)
	cat, ok, err := Classify(raw)
	if err != nil {
		var uce *UnexpectedCategoryError
		if errors.As(err, &uce) {
			uce.Line = row.Line
		}
		return Incident{}, false, err
	}
	if !ok {
		return Incident{}, false, nil
	}

	inc = Incident{
		IncidentDatetime:       ParseTimestamp(row.Get(ColIncidentDatetime)),
		IncidentDayOfWeek:      Text(row.Get(ColIncidentDayOfWeek)),
		ReportDatetime:         ParseTimestamp(row.Get(ColReportDatetime)),
		ReportTypeDescription:  Text(row.Get(ColReportTypeDescription)),
		IncidentCode:           ParseInt(row.Get(ColIncidentCode)),
		IncidentCategoryCustom: cat,
		IncidentCategory:       raw,
		IncidentSubcategory:    Text(row.Get(ColIncidentSubcategory)),
		IncidentDescription:    Text(row.Get(ColIncidentDescription)),
		Resolution:             Text(row.Get(ColResolution)),
		Intersection:           Text(row.Get(ColIntersection)),
		Latitude:               ParseFloat(row.Get(ColLatitude)),
		Longitude:              ParseFloat(row.Get(ColLongitude)),
		PoliceDistrict:         Text(row.Get(ColPoliceDistrict)),
		AnalysisNeighborhood:   Text(row.Get(ColAnalysisNeighborhood)),
		SupervisorDistrict:     ParseInt(row.Get(ColSupervisorDistrict)),
	}
	return inc, true, nil
}

// Load reads the whole export from src, cleans every row and drops the ones
// without a usable category. It stops at the first unknown category and
// returns nothing in that case.
func Load(src io.Reader, opts LoadOptions) (*LoadResult, error) {
	log := opts.Logger
	start := time.Now()

	rows, err := ReadCSV(src, opts.MaxRows)
	if err != nil {
		return nil, err
	}
	log.Info().Int("rows", len(rows)).Msg("loaded rows from csv")

	res := &LoadResult{
		Incidents:  make([]Incident, 0, len(rows)),
		Read:       len(rows),
		ByCategory: map[Category]int{},
	}
	for _, row := range rows {
		inc, keep, err := Clean(row)
		if err != nil {
			return nil, err
		}
		if !keep {
			res.Filtered++
			if strings.TrimSpace(row.Get(ColIncidentCategory)) == "" {
				res.Blank++
			} else {
				res.Excluded++
			}
			continue
		}
		res.Incidents = append(res.Incidents, inc)
		res.ByCategory[inc.IncidentCategoryCustom]++
	}

	if res.Filtered > 0 {
		log.Info().
			Int("filtered", res.Filtered).
			Int("blank_category", res.Blank).
			Int("excluded_category", res.Excluded).
			Strs("excluded_list", ExcludedRawCategories()).
			Msg("filtered out rows with null or excluded incident category")
	}
	log.Info().
		Int("in", res.Read).
		Int("out", len(res.Incidents)).
		Dur("took", time.Since(start)).
		Msg("transformed records")

	return res, nil
}

// LoadFile is Load over the file at path.
func LoadFile(path string, opts LoadOptions) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := Load(f, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return res, nil
}
