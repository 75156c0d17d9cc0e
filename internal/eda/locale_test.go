package eda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdmx-insight/incident-etl/internal/frame"
)

func TestSpanishMonth(t *testing.T) {
	assert.Equal(t, "Enero", SpanishMonth("January"))
	assert.Equal(t, "Septiembre", SpanishMonth("SEPTEMBER"))
	assert.Equal(t, "Marzo", SpanishMonth("marzo"))
	assert.Equal(t, "Marzo", SpanishMonth("MARZO"))
	assert.Equal(t, MonthUnknown, SpanishMonth("Smarch"))
	assert.Equal(t, "", SpanishMonth("  "))
}

func TestLocalizeMonths(t *testing.T) {
	in, err := frame.FromRecords(
		[]string{"start_month", "incident_month"},
		[][]string{{"April", "abril"}, {"", "December"}},
	)
	require.NoError(t, err)

	out, applied := LocalizeMonths(in, "start_month", "incident_month", "absent_month")

	assert.Equal(t, []string{"start_month", "incident_month"}, applied)
	assert.Equal(t, "Abril", out.Get(0, "start_month"))
	assert.Equal(t, "Abril", out.Get(0, "incident_month"))
	assert.Equal(t, "", out.Get(1, "start_month"))
	assert.Equal(t, "Diciembre", out.Get(1, "incident_month"))
}
