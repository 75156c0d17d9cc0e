// Package eda implements the batch cleaning and enrichment pipeline for
// incident records: imputation, calendar features, weather enrichment,
// orchestration, and the historical merge step. Every step is copy-on-write
// and reports its own audit counts; data-quality gaps never abort a batch.
package eda

import (
	"go.uber.org/zap"

	"github.com/cdmx-insight/incident-etl/internal/frame"
)

// CrossFillStats counts the values filled between the two locality columns.
type CrossFillStats struct {
	Applied       bool `json:"applied"`
	FilledAFromB  int  `json:"filled_a_from_b"`
	FilledBFromA  int  `json:"filled_b_from_a"`
}

// CrossFill fills each of two parallel columns from the other within the same
// record: where colA is missing and colB present, colB is copied into colA,
// and symmetrically. Present values are never overwritten. When either column
// is absent the step is a reported no-op.
func CrossFill(t *frame.Table, colA, colB string) (*frame.Table, CrossFillStats) {
	if !t.HasColumn(colA) || !t.HasColumn(colB) {
		zap.L().Debug("eda: cross-fill skipped, column missing",
			zap.String("col_a", colA), zap.String("col_b", colB))
		return t.Clone(), CrossFillStats{}
	}

	out := t.Clone()
	stats := CrossFillStats{Applied: true}
	for i := 0; i < out.NumRows(); i++ {
		a, b := out.Get(i, colA), out.Get(i, colB)
		switch {
		case frame.IsMissing(a) && !frame.IsMissing(b):
			out.Set(i, colA, b)
			stats.FilledAFromB++
		case frame.IsMissing(b) && !frame.IsMissing(a):
			out.Set(i, colB, a)
			stats.FilledBFromA++
		}
	}
	return out, stats
}
