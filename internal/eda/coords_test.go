package eda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdmx-insight/incident-etl/internal/frame"
)

func coordOpts() CoordOptions {
	return CoordOptions{
		LatCol:       "latitude",
		LngCol:       "longitude",
		FineKeyCol:   "locality_catalog",
		CoarseKeyCol: "borough",
	}
}

func TestFillCoordinates_FineMedian(t *testing.T) {
	in, err := frame.FromRecords(
		[]string{"latitude", "longitude", "locality_catalog", "borough"},
		[][]string{
			{"19.40", "-99.15", "ROMA NORTE", "CUAUHTEMOC"},
			{"19.42", "-99.17", "ROMA NORTE", "CUAUHTEMOC"},
			{"19.44", "-99.19", "ROMA NORTE", "CUAUHTEMOC"},
			{"", "", "Roma Norte", "CUAUHTEMOC"},
		},
	)
	require.NoError(t, err)

	out, stats := FillCoordinates(in, coordOpts())

	require.True(t, stats.Applied)
	lat, ok := out.Float(3, "latitude")
	require.True(t, ok)
	assert.InDelta(t, 19.42, lat, 1e-9)
	lng, ok := out.Float(3, "longitude")
	require.True(t, ok)
	assert.InDelta(t, -99.17, lng, 1e-9)

	assert.Equal(t, 1, stats.LatFromFine)
	assert.Equal(t, 1, stats.LngFromFine)
	assert.Equal(t, 1, stats.LatMissingBefore)
	assert.Equal(t, 0, stats.LatMissingAfter)
}

func TestFillCoordinates_CoarseFallback(t *testing.T) {
	in, err := frame.FromRecords(
		[]string{"latitude", "longitude", "locality_catalog", "borough"},
		[][]string{
			{"19.30", "-99.10", "A", "TLALPAN"},
			{"19.32", "-99.12", "B", "TLALPAN"},
			{"", "", "C", "TLALPAN"}, // lone locality, falls to borough median
		},
	)
	require.NoError(t, err)

	out, stats := FillCoordinates(in, coordOpts())

	lat, ok := out.Float(2, "latitude")
	require.True(t, ok)
	// Even-sized group: average of the middle pair.
	assert.InDelta(t, 19.31, lat, 1e-9)
	assert.Equal(t, 1, stats.LatFromCoarse)
	assert.Equal(t, 0, stats.LatFromFine)
}

func TestFillCoordinates_UnparseableReplacedIsCounted(t *testing.T) {
	in, err := frame.FromRecords(
		[]string{"latitude", "longitude", "locality_catalog", "borough"},
		[][]string{
			{"19.40", "-99.15", "ROMA NORTE", "CUAUHTEMOC"},
			{"19.42", "-99.17", "ROMA NORTE", "CUAUHTEMOC"},
			{"N/A", "-99.16", "ROMA NORTE", "CUAUHTEMOC"},
		},
	)
	require.NoError(t, err)

	out, stats := FillCoordinates(in, coordOpts())

	lat, ok := out.Float(2, "latitude")
	require.True(t, ok)
	assert.InDelta(t, 19.41, lat, 1e-9)
	assert.Equal(t, 1, stats.LatFromFine)
	assert.Equal(t, 1, stats.UnparseableReplaced)
}

func TestFillCoordinates_NoGroupStaysMissing(t *testing.T) {
	in, err := frame.FromRecords(
		[]string{"latitude", "longitude", "locality_catalog", "borough"},
		[][]string{
			{"", "", "", ""},
		},
	)
	require.NoError(t, err)

	out, stats := FillCoordinates(in, coordOpts())

	assert.Equal(t, "", out.Get(0, "latitude"))
	assert.Equal(t, 1, stats.LatMissingBefore)
	assert.Equal(t, 1, stats.LatMissingAfter)
}

func TestFillCoordinates_OutOfBoundsCounted(t *testing.T) {
	in, err := frame.FromRecords(
		[]string{"latitude", "longitude", "locality_catalog", "borough"},
		[][]string{
			{"19.43", "-99.13", "A", "X"}, // inside the city window
			{"25.68", "-100.31", "B", "X"}, // Monterrey
		},
	)
	require.NoError(t, err)

	_, stats := FillCoordinates(in, coordOpts())
	assert.Equal(t, 1, stats.OutOfBounds)
}

func TestFillCoordinates_MissingColumnsIsNoop(t *testing.T) {
	in, err := frame.FromRecords([]string{"borough"}, [][]string{{"TLALPAN"}})
	require.NoError(t, err)

	_, stats := FillCoordinates(in, coordOpts())
	assert.False(t, stats.Applied)
}
