package cli

import (
	"io"
	"text/tabwriter"
	"time"

	"github.com/EmpoweredVote/incident-import/internal/incidents"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func printLoad(w io.Writer, res *incidents.LoadResult) {
	if res == nil {
		return
	}
	printer.Fprintf(w, "Read %d rows, kept %d, filtered %d (%d blank category, %d excluded)\n",
		res.Read, len(res.Incidents), res.Filtered, res.Blank, res.Excluded)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range incidents.Categories() {
		if n := res.ByCategory[c]; n > 0 {
			printer.Fprintf(tw, "  %s\t%d\n", c, n)
		}
	}
	tw.Flush()
}

func printStats(w io.Writer, st *incidents.Stats) {
	if st == nil {
		return
	}
	printer.Fprintf(w, "Table: %d rows, %d with coordinates\n", st.TotalRows, st.TotalIncidents)
	printer.Fprintf(w, "Custom categories: %d, police districts: %d\n", st.TotalCategories, st.TotalDistricts)
	if st.Earliest.Valid && st.Latest.Valid {
		printer.Fprintf(w, "Incidents from %s to %s\n",
			st.Earliest.Time.Format(time.DateTime), st.Latest.Time.Format(time.DateTime))
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, cc := range st.ByCategory {
		printer.Fprintf(tw, "  %s\t%d\n", cc.Category, cc.Count)
	}
	tw.Flush()
}

func printCategories(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range incidents.Categories() {
		for _, raw := range incidents.RawCategoriesFor(c) {
			printer.Fprintf(tw, "%s\t%s\n", raw, c)
		}
	}
	for _, raw := range incidents.ExcludedRawCategories() {
		printer.Fprintf(tw, "%s\t(excluded)\n", raw)
	}
	tw.Flush()
}
