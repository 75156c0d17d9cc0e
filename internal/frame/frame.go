// Package frame provides a small column-ordered, in-memory table used by the
// cleaning pipeline. Cells are strings; the empty string is the missing-value
// sentinel, matching what a round-trip through delimited text preserves.
package frame

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a rectangular batch of records with named columns.
type Table struct {
	cols   []string
	colIdx map[string]int
	rows   [][]string
}

// New creates an empty table with the given columns.
func New(cols ...string) (*Table, error) {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		if c == "" {
			return nil, eris.New("frame: empty column name")
		}
		if _, dup := idx[c]; dup {
			return nil, eris.Errorf("frame: duplicate column %q", c)
		}
		idx[c] = i
	}
	return &Table{cols: append([]string(nil), cols...), colIdx: idx}, nil
}

// FromRecords builds a table from a header row and data records. Short
// records are padded with missing values; long records are truncated.
func FromRecords(header []string, records [][]string) (*Table, error) {
	t, err := New(header...)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		t.AppendRow(rec)
	}
	return t, nil
}

// Clone returns a deep copy. Pipeline steps clone before mutating so the
// caller's table is never touched.
func (t *Table) Clone() *Table {
	out := &Table{
		cols:   append([]string(nil), t.cols...),
		colIdx: make(map[string]int, len(t.colIdx)),
		rows:   make([][]string, len(t.rows)),
	}
	for k, v := range t.colIdx {
		out.colIdx[k] = v
	}
	for i, r := range t.rows {
		out.rows[i] = append([]string(nil), r...)
	}
	return out
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colIdx[name]
	return ok
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.rows) }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Get returns the cell at (row, col), or "" if the column does not exist.
func (t *Table) Get(row int, col string) string {
	i, ok := t.colIdx[col]
	if !ok || row < 0 || row >= len(t.rows) {
		return ""
	}
	return t.rows[row][i]
}

// Set writes the cell at (row, col). Unknown columns are ignored.
func (t *Table) Set(row int, col, val string) {
	i, ok := t.colIdx[col]
	if !ok || row < 0 || row >= len(t.rows) {
		return
	}
	t.rows[row][i] = val
}

// AddColumn appends a column filled with the missing sentinel. Adding an
// existing column is a no-op.
func (t *Table) AddColumn(name string) {
	if _, ok := t.colIdx[name]; ok {
		return
	}
	t.colIdx[name] = len(t.cols)
	t.cols = append(t.cols, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], "")
	}
}

// DropColumns removes the named columns. Missing names are ignored.
func (t *Table) DropColumns(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var kept []string
	var keptIdx []int
	for i, c := range t.cols {
		if !drop[c] {
			kept = append(kept, c)
			keptIdx = append(keptIdx, i)
		}
	}
	if len(kept) == len(t.cols) {
		return
	}
	t.cols = kept
	t.colIdx = make(map[string]int, len(kept))
	for i, c := range kept {
		t.colIdx[c] = i
	}
	for r, row := range t.rows {
		next := make([]string, len(keptIdx))
		for i, src := range keptIdx {
			next[i] = row[src]
		}
		t.rows[r] = next
	}
}

// AppendRow adds a record, padding or truncating to the column count.
func (t *Table) AppendRow(rec []string) {
	row := make([]string, len(t.cols))
	for i := range row {
		if i < len(rec) {
			row[i] = strings.TrimSpace(rec[i])
		}
	}
	t.rows = append(t.rows, row)
}

// Row returns a copy of the record at the given index.
func (t *Table) Row(i int) []string {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	return append([]string(nil), t.rows[i]...)
}

// Records returns all rows as copies, suitable for CSV writing.
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.rows))
	for i := range t.rows {
		out[i] = append([]string(nil), t.rows[i]...)
	}
	return out
}

// Reindex returns a new table with exactly the given columns. Columns absent
// from the source are filled with the missing sentinel; source columns not in
// the target set are dropped.
func (t *Table) Reindex(cols []string) (*Table, error) {
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	src := make([]int, len(cols))
	for i, c := range cols {
		if j, ok := t.colIdx[c]; ok {
			src[i] = j
		} else {
			src[i] = -1
		}
	}
	for _, row := range t.rows {
		rec := make([]string, len(cols))
		for i, j := range src {
			if j >= 0 {
				rec[i] = row[j]
			}
		}
		out.rows = append(out.rows, rec)
	}
	return out, nil
}

// IsMissing reports whether a cell value counts as missing.
func IsMissing(v string) bool {
	return strings.TrimSpace(v) == ""
}

// MissingCount returns the number of missing cells in the named column, or
// the row count if the column does not exist.
func (t *Table) MissingCount(col string) int {
	i, ok := t.colIdx[col]
	if !ok {
		return len(t.rows)
	}
	n := 0
	for _, row := range t.rows {
		if IsMissing(row[i]) {
			n++
		}
	}
	return n
}

// MissingFraction returns the fraction of missing cells in the named column.
// An empty table reports 0.
func (t *Table) MissingFraction(col string) float64 {
	if len(t.rows) == 0 {
		return 0
	}
	return float64(t.MissingCount(col)) / float64(len(t.rows))
}

// Float parses the cell at (row, col) as a float64. The second return is
// false when the cell is missing or unparseable.
func (t *Table) Float(row int, col string) (float64, bool) {
	v := strings.TrimSpace(t.Get(row, col))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// SetFloat formats and writes a float cell.
func (t *Table) SetFloat(row int, col string, v float64) {
	t.Set(row, col, strconv.FormatFloat(v, 'f', -1, 64))
}

// ColumnUnion returns the sorted union of the column names of both tables.
func ColumnUnion(a, b *Table) []string {
	seen := make(map[string]bool, len(a.cols)+len(b.cols))
	var union []string
	for _, c := range a.cols {
		if !seen[c] {
			seen[c] = true
			union = append(union, c)
		}
	}
	for _, c := range b.cols {
		if !seen[c] {
			seen[c] = true
			union = append(union, c)
		}
	}
	sort.Strings(union)
	return union
}

// ApproxMemoryMB estimates the in-memory footprint of the table in megabytes,
// rounded to two decimals.
func (t *Table) ApproxMemoryMB() float64 {
	var bytes int
	for _, row := range t.rows {
		for _, cell := range row {
			bytes += len(cell) + 16
		}
	}
	for _, c := range t.cols {
		bytes += len(c) + 16
	}
	mb := float64(bytes) / (1024 * 1024)
	return float64(int(mb*100+0.5)) / 100
}
