package eda

import (
	"strings"

	"go.uber.org/zap"

	"github.com/cdmx-insight/incident-etl/internal/frame"
)

// SparseStats records the sparse-column pruning outcome.
type SparseStats struct {
	Threshold float64            `json:"threshold"`
	Dropped   []string           `json:"dropped,omitempty"`
	Fractions map[string]float64 `json:"fractions,omitempty"`
}

// DropSparseColumns removes columns whose missing fraction meets or exceeds
// the threshold, reporting the fraction of every dropped column.
func DropSparseColumns(t *frame.Table, threshold float64) (*frame.Table, SparseStats) {
	out := t.Clone()
	stats := SparseStats{Threshold: threshold, Fractions: make(map[string]float64)}

	for _, col := range out.Columns() {
		frac := out.MissingFraction(col)
		if frac >= threshold {
			stats.Dropped = append(stats.Dropped, col)
			stats.Fractions[col] = frac
		}
	}
	if len(stats.Dropped) > 0 {
		out.DropColumns(stats.Dropped...)
		zap.L().Info("eda: dropped sparse columns",
			zap.Strings("columns", stats.Dropped),
			zap.Float64("threshold", threshold),
		)
	}
	return out, stats
}

// DedupStats records exact-duplicate removal.
type DedupStats struct {
	RowsBefore int `json:"rows_before"`
	RowsAfter  int `json:"rows_after"`
	Dropped    int `json:"dropped"`
}

// DropExactDuplicates removes rows identical across every column, keeping the
// first occurrence.
func DropExactDuplicates(t *frame.Table) (*frame.Table, DedupStats) {
	stats := DedupStats{RowsBefore: t.NumRows()}

	out, _ := frame.New(t.Columns()...)
	seen := make(map[string]bool, t.NumRows())
	for _, rec := range t.Records() {
		key := strings.Join(rec, "\x1f")
		if seen[key] {
			continue
		}
		seen[key] = true
		out.AppendRow(rec)
	}

	stats.RowsAfter = out.NumRows()
	stats.Dropped = stats.RowsBefore - stats.RowsAfter
	return out, stats
}
