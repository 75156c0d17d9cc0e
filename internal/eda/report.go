package eda

import (
	"math"
	"sort"

	"github.com/cdmx-insight/incident-etl/internal/frame"
)

// ColumnMissing is one line of the missing-value report.
type ColumnMissing struct {
	Column  string  `json:"column"`
	Missing int     `json:"missing"`
	Percent float64 `json:"percent"`
}

// MissingReport returns per-column missing counts and percentages, sorted by
// percentage descending, truncated to limit entries (0 = all).
func MissingReport(t *frame.Table, limit int) []ColumnMissing {
	rows := t.NumRows()
	report := make([]ColumnMissing, 0, t.NumCols())
	for _, col := range t.Columns() {
		n := t.MissingCount(col)
		pct := 0.0
		if rows > 0 {
			pct = math.Round(float64(n)/float64(rows)*100*100) / 100
		}
		report = append(report, ColumnMissing{Column: col, Missing: n, Percent: pct})
	}
	sort.SliceStable(report, func(i, j int) bool {
		return report[i].Percent > report[j].Percent
	})
	if limit > 0 && len(report) > limit {
		report = report[:limit]
	}
	return report
}

// CountExactDuplicates counts rows that have at least one exact twin,
// counting every member of a duplicate family.
func CountExactDuplicates(t *frame.Table) int {
	counts := make(map[string]int, t.NumRows())
	for _, rec := range t.Records() {
		counts[join(rec)]++
	}
	n := 0
	for _, c := range counts {
		if c > 1 {
			n += c
		}
	}
	return n
}

func join(rec []string) string {
	out := ""
	for i, v := range rec {
		if i > 0 {
			out += "\x1f"
		}
		out += v
	}
	return out
}
