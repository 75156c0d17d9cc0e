package eda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdmx-insight/incident-etl/internal/frame"
)

func TestCrossFill(t *testing.T) {
	in, err := frame.FromRecords(
		[]string{"locality_reported", "locality_catalog"},
		[][]string{
			{"ROMA NORTE", ""},
			{"", "DOCTORES"},
			{"CENTRO", "CENTRO HISTORICO"},
			{"", ""},
		},
	)
	require.NoError(t, err)

	out, stats := CrossFill(in, "locality_reported", "locality_catalog")

	assert.True(t, stats.Applied)
	assert.Equal(t, 1, stats.FilledAFromB)
	assert.Equal(t, 1, stats.FilledBFromA)

	assert.Equal(t, "ROMA NORTE", out.Get(0, "locality_catalog"))
	assert.Equal(t, "DOCTORES", out.Get(1, "locality_reported"))
	// Present values never overwritten.
	assert.Equal(t, "CENTRO", out.Get(2, "locality_reported"))
	assert.Equal(t, "CENTRO HISTORICO", out.Get(2, "locality_catalog"))
	// Both missing stays missing.
	assert.Equal(t, "", out.Get(3, "locality_reported"))
	assert.Equal(t, "", out.Get(3, "locality_catalog"))

	// Input untouched.
	assert.Equal(t, "", in.Get(0, "locality_catalog"))
}

func TestCrossFill_MissingColumnIsNoop(t *testing.T) {
	in, err := frame.FromRecords([]string{"locality_reported"}, [][]string{{""}})
	require.NoError(t, err)

	out, stats := CrossFill(in, "locality_reported", "locality_catalog")
	assert.False(t, stats.Applied)
	assert.Equal(t, in.Columns(), out.Columns())
}
