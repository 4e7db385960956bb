package incidents

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Layouts seen in SFPD exports and the Socrata JSON feed, most common first.
var timestampLayouts = []string{
	"2006/01/02 03:04:05 PM",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"01/02/2006 03:04:05 PM",
	"2006-01-02",
}

// ParseTimestamp returns an invalid Timestamp for blank or unparsable text.
func ParseTimestamp(s string) pgtype.Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Timestamp{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return pgtype.Timestamp{Time: t.UTC(), Valid: true}
		}
	}
	return pgtype.Timestamp{}
}

// ParseFloat returns an invalid Float8 for blank, unparsable or non-finite text.
func ParseFloat(s string) pgtype.Float8 {
	f, ok := parseFinite(s)
	if !ok {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: f, Valid: true}
}

// ParseInt accepts integral text and finite decimal text, truncating the
// latter ("9.0" -> 9).
func ParseInt(s string) pgtype.Int8 {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return pgtype.Int8{Int64: n, Valid: true}
	}
	f, ok := parseFinite(s)
	if !ok || f >= math.MaxInt64 || f < math.MinInt64 {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: int64(math.Trunc(f)), Valid: true}
}

// Text maps a blank cell to NULL and keeps anything else verbatim.
func Text(s string) pgtype.Text {
	if strings.TrimSpace(s) == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func parseFinite(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
