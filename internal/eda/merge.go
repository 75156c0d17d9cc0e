package eda

import (
	"go.uber.org/zap"

	"github.com/rotisserie/eris"

	"github.com/cdmx-insight/incident-etl/internal/frame"
)

// MergeStats reports the outcome of combining a cleaned batch with the
// historical dataset.
type MergeStats struct {
	RowsHistorical    int      `json:"rows_historical"`
	RowsNew           int      `json:"rows_new"`
	RowsCombined      int      `json:"rows_combined"`
	RowsAfterDedup    int      `json:"rows_after_dedup"`
	DuplicatesRemoved int      `json:"duplicates_removed"`
	Columns           []string `json:"columns"`
	KeyColumns        []string `json:"key_columns,omitempty"`
}

// Merge aligns both tables to the sorted union of their columns (missing
// columns filled with the missing sentinel), concatenates historical rows
// before new rows, and, when key columns are supplied, drops duplicate keys
// keeping the last occurrence — so new-batch rows win over historical rows.
// A named key column absent from the combined table is a descriptive error.
func Merge(historical, newClean *frame.Table, keyCols []string) (*frame.Table, MergeStats, error) {
	union := frame.ColumnUnion(historical, newClean)

	h, err := historical.Reindex(union)
	if err != nil {
		return nil, MergeStats{}, eris.Wrap(err, "merge: reindex historical")
	}
	n, err := newClean.Reindex(union)
	if err != nil {
		return nil, MergeStats{}, eris.Wrap(err, "merge: reindex new batch")
	}

	combined, _ := frame.New(union...)
	for _, rec := range h.Records() {
		combined.AppendRow(rec)
	}
	for _, rec := range n.Records() {
		combined.AppendRow(rec)
	}

	stats := MergeStats{
		RowsHistorical: historical.NumRows(),
		RowsNew:        newClean.NumRows(),
		RowsCombined:   combined.NumRows(),
		RowsAfterDedup: combined.NumRows(),
		Columns:        union,
		KeyColumns:     keyCols,
	}

	if len(keyCols) == 0 {
		return combined, stats, nil
	}

	for _, k := range keyCols {
		if !combined.HasColumn(k) {
			return nil, MergeStats{}, eris.Errorf("merge: key column %q not present in combined table", k)
		}
	}

	deduped := dedupKeepLast(combined, keyCols)
	stats.RowsAfterDedup = deduped.NumRows()
	stats.DuplicatesRemoved = stats.RowsCombined - stats.RowsAfterDedup

	zap.L().Info("eda: merged batch into base",
		zap.Int("rows_historical", stats.RowsHistorical),
		zap.Int("rows_new", stats.RowsNew),
		zap.Int("duplicates_removed", stats.DuplicatesRemoved),
	)
	return deduped, stats, nil
}

// dedupKeepLast keeps, for each key, only the last occurrence, preserving the
// relative order of the surviving rows.
func dedupKeepLast(t *frame.Table, keyCols []string) *frame.Table {
	lastIdx := make(map[string]int, t.NumRows())
	keys := make([]string, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		key := ""
		for j, k := range keyCols {
			if j > 0 {
				key += "\x1f"
			}
			key += t.Get(i, k)
		}
		keys[i] = key
		lastIdx[key] = i
	}

	out, _ := frame.New(t.Columns()...)
	for i := 0; i < t.NumRows(); i++ {
		if lastIdx[keys[i]] == i {
			out.AppendRow(t.Row(i))
		}
	}
	return out
}

// AppendResult reports a persisted merge.
type AppendResult struct {
	BasePath   string     `json:"base_path"`
	OutputPath string     `json:"output_path"`
	Merge      MergeStats `json:"merge"`
}

// AppendToBase reads the historical base CSV, merges the cleaned batch into
// it, and writes the combined table to outputPath (or back over the base when
// outputPath is empty).
func AppendToBase(basePath string, newClean *frame.Table, outputPath string, keyCols []string) (*AppendResult, error) {
	base, err := frame.ReadCSV(basePath)
	if err != nil {
		return nil, eris.Wrapf(err, "merge: read base %s", basePath)
	}

	combined, stats, err := Merge(base, newClean, keyCols)
	if err != nil {
		return nil, err
	}

	out := outputPath
	if out == "" {
		out = basePath
	}
	if err := frame.WriteCSV(combined, out); err != nil {
		return nil, eris.Wrapf(err, "merge: write %s", out)
	}

	return &AppendResult{BasePath: basePath, OutputPath: out, Merge: stats}, nil
}
