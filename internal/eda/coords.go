package eda

import (
	"sort"

	"go.uber.org/zap"

	"github.com/cdmx-insight/incident-etl/internal/frame"
	"github.com/cdmx-insight/incident-etl/internal/geo"
	"github.com/cdmx-insight/incident-etl/internal/textnorm"
)

// CoordOptions configures coordinate completion.
type CoordOptions struct {
	LatCol string
	LngCol string
	// FineKeyCol is the finest-grained locality grouping (neighborhood).
	FineKeyCol string
	// CoarseKeyCol is the fallback grouping (borough).
	CoarseKeyCol string
}

// CoordStats is the audit record of coordinate completion.
type CoordStats struct {
	Applied          bool `json:"applied"`
	LatFromFine      int  `json:"lat_from_fine"`
	LngFromFine      int  `json:"lng_from_fine"`
	LatFromCoarse    int  `json:"lat_from_coarse"`
	LngFromCoarse    int  `json:"lng_from_coarse"`
	LatMissingBefore int  `json:"lat_missing_before"`
	LatMissingAfter  int  `json:"lat_missing_after"`
	LngMissingBefore int  `json:"lng_missing_before"`
	LngMissingAfter  int  `json:"lng_missing_after"`
	// UnparseableReplaced counts cells that held non-numeric text (not the
	// missing sentinel) and were replaced by a group median.
	UnparseableReplaced int `json:"unparseable_replaced"`
	OutOfBounds         int `json:"out_of_bounds"`
}

// FillCoordinates imputes missing latitude/longitude cells from grouped
// medians: first the median of the fine locality key, then the borough
// median for cells still missing. Cells whose groups have no valid median
// stay missing, which the before/after counts make visible. When either
// coordinate column is absent the step is a reported no-op.
func FillCoordinates(t *frame.Table, opts CoordOptions) (*frame.Table, CoordStats) {
	if !t.HasColumn(opts.LatCol) || !t.HasColumn(opts.LngCol) {
		zap.L().Debug("eda: coordinate fill skipped, column missing",
			zap.String("lat", opts.LatCol), zap.String("lng", opts.LngCol))
		return t.Clone(), CoordStats{}
	}

	out := t.Clone()
	stats := CoordStats{
		Applied:          true,
		LatMissingBefore: missingNumeric(out, opts.LatCol),
		LngMissingBefore: missingNumeric(out, opts.LngCol),
	}

	var fineReplaced, coarseReplaced int
	stats.LatFromFine, stats.LngFromFine, fineReplaced = fillFromMedians(out, opts.FineKeyCol, opts.LatCol, opts.LngCol)
	stats.LatFromCoarse, stats.LngFromCoarse, coarseReplaced = fillFromMedians(out, opts.CoarseKeyCol, opts.LatCol, opts.LngCol)
	stats.UnparseableReplaced = fineReplaced + coarseReplaced

	stats.LatMissingAfter = missingNumeric(out, opts.LatCol)
	stats.LngMissingAfter = missingNumeric(out, opts.LngCol)

	for i := 0; i < out.NumRows(); i++ {
		lat, okLat := out.Float(i, opts.LatCol)
		lng, okLng := out.Float(i, opts.LngCol)
		if okLat && okLng && !geo.InCity(lng, lat) {
			stats.OutOfBounds++
		}
	}

	zap.L().Debug("eda: coordinates filled",
		zap.Int("lat_missing_before", stats.LatMissingBefore),
		zap.Int("lat_missing_after", stats.LatMissingAfter),
		zap.Int("lng_missing_before", stats.LngMissingBefore),
		zap.Int("lng_missing_after", stats.LngMissingAfter),
		zap.Int("unparseable_replaced", stats.UnparseableReplaced),
		zap.Int("out_of_bounds", stats.OutOfBounds),
	)
	return out, stats
}

func missingNumeric(t *frame.Table, col string) int {
	n := 0
	for i := 0; i < t.NumRows(); i++ {
		if _, ok := t.Float(i, col); !ok {
			n++
		}
	}
	return n
}

// fillFromMedians fills missing lat/lng cells from the per-group medians of
// keyCol. Returns (latFilled, lngFilled, unparseableReplaced). Non-numeric
// text counts as missing and is replaced like an empty cell, but the
// replacement is tallied separately. A missing key column fills nothing.
func fillFromMedians(t *frame.Table, keyCol, latCol, lngCol string) (int, int, int) {
	if keyCol == "" || !t.HasColumn(keyCol) {
		return 0, 0, 0
	}

	latMed := groupedMedian(t, keyCol, latCol)
	lngMed := groupedMedian(t, keyCol, lngCol)

	latFilled, lngFilled, replaced := 0, 0, 0
	for i := 0; i < t.NumRows(); i++ {
		key := textnorm.Canonical(t.Get(i, keyCol))
		if key == "" {
			continue
		}
		if _, ok := t.Float(i, latCol); !ok {
			if med, ok := latMed[key]; ok {
				if !frame.IsMissing(t.Get(i, latCol)) {
					replaced++
				}
				t.SetFloat(i, latCol, med)
				latFilled++
			}
		}
		if _, ok := t.Float(i, lngCol); !ok {
			if med, ok := lngMed[key]; ok {
				if !frame.IsMissing(t.Get(i, lngCol)) {
					replaced++
				}
				t.SetFloat(i, lngCol, med)
				lngFilled++
			}
		}
	}
	return latFilled, lngFilled, replaced
}

// groupedMedian computes the median of valueCol per normalized key, using
// only parseable values. Groups with no valid values have no entry.
func groupedMedian(t *frame.Table, keyCol, valueCol string) map[string]float64 {
	groups := make(map[string][]float64)
	for i := 0; i < t.NumRows(); i++ {
		v, ok := t.Float(i, valueCol)
		if !ok {
			continue
		}
		key := textnorm.Canonical(t.Get(i, keyCol))
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], v)
	}

	medians := make(map[string]float64, len(groups))
	for key, vals := range groups {
		sort.Float64s(vals)
		n := len(vals)
		if n%2 == 1 {
			medians[key] = vals[n/2]
		} else {
			medians[key] = (vals[n/2-1] + vals[n/2]) / 2
		}
	}
	return medians
}
