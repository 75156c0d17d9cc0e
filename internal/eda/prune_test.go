package eda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdmx-insight/incident-etl/internal/frame"
)

func TestDropSparseColumns(t *testing.T) {
	in, err := frame.FromRecords(
		[]string{"keep", "sparse", "empty"},
		[][]string{
			{"a", "", ""},
			{"b", "", ""},
			{"c", "", ""},
			{"d", "x", ""},
		},
	)
	require.NoError(t, err)

	// sparse is 75% missing, empty is 100%.
	out, stats := DropSparseColumns(in, 0.95)
	assert.Equal(t, []string{"keep", "sparse"}, out.Columns())
	assert.Equal(t, []string{"empty"}, stats.Dropped)
	assert.InDelta(t, 1.0, stats.Fractions["empty"], 1e-9)

	// Threshold is inclusive.
	out, stats = DropSparseColumns(in, 0.75)
	assert.Equal(t, []string{"keep"}, out.Columns())
	assert.ElementsMatch(t, []string{"sparse", "empty"}, stats.Dropped)
}

func TestDropExactDuplicates(t *testing.T) {
	in, err := frame.FromRecords(
		[]string{"a", "b"},
		[][]string{
			{"1", "x"},
			{"1", "x"},
			{"1", "y"},
			{"1", "x"},
		},
	)
	require.NoError(t, err)

	out, stats := DropExactDuplicates(in)

	assert.Equal(t, 4, stats.RowsBefore)
	assert.Equal(t, 2, stats.RowsAfter)
	assert.Equal(t, 2, stats.Dropped)
	// First occurrence kept, order preserved.
	assert.Equal(t, [][]string{{"1", "x"}, {"1", "y"}}, out.Records())
}
