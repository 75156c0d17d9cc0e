package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdmx-insight/incident-etl/internal/config"
	"github.com/cdmx-insight/incident-etl/internal/ruleset"
)

func TestPipelineOptions_MapsConfig(t *testing.T) {
	c := &config.Config{
		Pipeline: config.PipelineConfig{
			WindowDays:      3,
			SparseThreshold: 0.80,
			WithWeather:     true,
			WeatherPath:     "weather.csv",
		},
		Columns: config.ColumnsConfig{
			Description: "delito",
			Date:        "fecha_hechos",
			Borough:     "alcaldia",
			Context:     []string{"fiscalia"},
			Months:      []string{"mes_inicio"},
		},
	}

	opts := pipelineOptions(c)

	assert.Equal(t, 3, opts.WindowDays)
	assert.InDelta(t, 0.80, opts.SparseThreshold, 1e-9)
	assert.True(t, opts.WithWeather)
	assert.Equal(t, "weather.csv", opts.WeatherPath)

	assert.Equal(t, "delito", opts.Columns.Description)
	assert.Equal(t, "fecha_hechos", opts.Columns.Date)
	assert.Equal(t, "alcaldia", opts.Columns.Borough)
	assert.Equal(t, []string{"fiscalia"}, opts.Columns.ContextCols)
	assert.Equal(t, []string{"mes_inicio"}, opts.Columns.MonthCols)
	// Names the config leaves blank keep their defaults.
	assert.Equal(t, "latitude", opts.Columns.Latitude)
	assert.Equal(t, "jurisdiction", opts.Columns.Jurisdiction)
}

func TestPipelineOptions_ZeroIsDeliberate(t *testing.T) {
	c := &config.Config{
		Pipeline: config.PipelineConfig{WindowDays: 0, SparseThreshold: 0},
	}

	opts := pipelineOptions(c)

	// A configured zero passes through: exact anchor dates only, prune
	// everything with any gap.
	assert.Equal(t, 0, opts.WindowDays)
	assert.InDelta(t, 0.0, opts.SparseThreshold, 1e-9)
}

func writeRuleset(t *testing.T, dir, name, group string) string {
	t.Helper()
	doc := `patterns:
  ` + group + `: ["cat"]
order: [` + group + `]
macro_map:
  ` + group + `: MACRO
`
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestLoadRuleset_FlagWinsOverConfig(t *testing.T) {
	dir := t.TempDir()
	flagPath := writeRuleset(t, dir, "flag.yaml", "FROM_FLAG")
	cfgPath := writeRuleset(t, dir, "config.yaml", "FROM_CONFIG")

	rules, err := loadRuleset(flagPath, cfgPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"FROM_FLAG"}, rules.Groups())
	assert.Equal(t, ruleset.SourceExternal, rules.Source())
}

func TestLoadRuleset_ConfigPath(t *testing.T) {
	cfgPath := writeRuleset(t, t.TempDir(), "config.yaml", "FROM_CONFIG")

	rules, err := loadRuleset("", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"FROM_CONFIG"}, rules.Groups())
}

func TestLoadRuleset_EmbeddedFallback(t *testing.T) {
	rules, err := loadRuleset("", "")
	require.NoError(t, err)
	assert.Equal(t, ruleset.SourceEmbedded, rules.Source())
	assert.NotEmpty(t, rules.Groups())
}

func TestLoadRuleset_BadPathFails(t *testing.T) {
	_, err := loadRuleset(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}
