package eda

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/cdmx-insight/incident-etl/internal/frame"
	"github.com/cdmx-insight/incident-etl/internal/ruleset"
)

// ColumnNames maps the pipeline onto the batch's column layout. Every name is
// configurable; steps whose columns are absent become reported no-ops.
type ColumnNames struct {
	Description      string
	Date             string
	Hour             string
	Borough          string
	LocalityReported string
	LocalityCatalog  string
	Jurisdiction     string
	Latitude         string
	Longitude        string
	ContextCols      []string
	MonthCols        []string
}

// DefaultColumnNames returns the canonical column layout.
func DefaultColumnNames() ColumnNames {
	return ColumnNames{
		Description:      "crime_description",
		Date:             "incident_date",
		Hour:             "incident_hour",
		Borough:          "borough",
		LocalityReported: "locality_reported",
		LocalityCatalog:  "locality_catalog",
		Jurisdiction:     "jurisdiction",
		Latitude:         "latitude",
		Longitude:        "longitude",
		ContextCols:      []string{"prosecutor_office", "agency", "investigation_unit"},
		MonthCols:        []string{"start_month", "incident_month"},
	}
}

// Derived column names written by the pipeline.
const (
	ColWeekdayName = "weekday_name"
	ColWeekdayNum  = "weekday_num"
	ColPayWindow   = "pay_period_window"
	ColWeatherTemp = "weather_temp"
	ColWeatherCond = "weather_condition"
	ColRegion      = "region"
	ColHourBucket  = "hour_bucket"
)

// Options configures one pipeline run.
type Options struct {
	Columns         ColumnNames
	WindowDays      int
	SparseThreshold float64
	WithWeather     bool
	WeatherPath     string
}

// DefaultOptions returns the canonical pipeline configuration.
func DefaultOptions() Options {
	return Options{
		Columns:         DefaultColumnNames(),
		WindowDays:      2,
		SparseThreshold: 0.95,
	}
}

// Shape is a (rows, columns) pair plus the approximate memory footprint.
type Shape struct {
	Rows  int     `json:"rows"`
	Cols  int     `json:"cols"`
	MemMB float64 `json:"mem_mb"`
}

// Stats is the audit report of one pipeline run, keyed by step.
type Stats struct {
	RunID           string                `json:"run_id"`
	StartedAt       time.Time             `json:"started_at"`
	FinishedAt      time.Time             `json:"finished_at"`
	ShapeIn         Shape                 `json:"shape_in"`
	ShapeOut        Shape                 `json:"shape_out"`
	MissingTop      []ColumnMissing       `json:"missing_top"`
	DuplicateRowsIn int                   `json:"duplicate_rows_in"`
	CrossFill       CrossFillStats        `json:"cross_fill"`
	Jurisdiction    JurisdictionStats     `json:"jurisdiction"`
	Classification  ruleset.ClassifyStats `json:"classification"`
	Calendar        CalendarStats         `json:"calendar"`
	Coordinates     CoordStats            `json:"coordinates"`
	Weather         WeatherStats          `json:"weather"`
	RegionApplied   bool                  `json:"region_applied"`
	MonthsLocalized []string              `json:"months_localized,omitempty"`
	HourBuckets     bool                  `json:"hour_buckets_applied"`
	Sparse          SparseStats           `json:"sparse"`
	Dedup           DedupStats            `json:"dedup"`
}

// JSON serializes the stats report for audit download.
func (s *Stats) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Cache memoizes expensive loads for the lifetime of a process run. Reload
// semantics are explicit: Invalidate drops everything.
type Cache struct {
	mu      sync.Mutex
	weather map[string][]WeatherDay
}

// NewCache returns an empty load cache.
func NewCache() *Cache {
	return &Cache{weather: make(map[string][]WeatherDay)}
}

// Weather loads a weather source once per path.
func (c *Cache) Weather(path string) ([]WeatherDay, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if days, ok := c.weather[path]; ok {
		return days, nil
	}
	days, err := LoadWeather(path)
	if err != nil {
		return nil, err
	}
	c.weather[path] = days
	return days, nil
}

// Invalidate drops all cached loads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.weather = make(map[string][]WeatherDay)
}

// Pipeline sequences the cleaning steps over a raw batch and assembles the
// audit report. Single-threaded and batch-oriented: each step transforms the
// whole table and hands a fresh copy to the next.
type Pipeline struct {
	opts  Options
	rules *ruleset.Ruleset
	cache *Cache
	clock clockwork.Clock
}

// New creates a Pipeline. A nil cache gets a private one; a nil clock uses
// the wall clock.
func New(opts Options, rules *ruleset.Ruleset, cache *Cache, clock clockwork.Clock) *Pipeline {
	if cache == nil {
		cache = NewCache()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{opts: opts, rules: rules, cache: cache, clock: clock}
}

// Run cleans and enriches a raw batch, returning the cleaned table and the
// stats report. The input table is never modified. Ruleset and weather-source
// configuration errors are fatal; data-quality gaps are tallied and recovered
// locally.
func (p *Pipeline) Run(raw *frame.Table) (*frame.Table, *Stats, error) {
	cols := p.opts.Columns
	log := zap.L().With(zap.Int("rows_in", raw.NumRows()))
	log.Info("eda: pipeline starting")

	stats := &Stats{
		RunID:     uuid.New().String(),
		StartedAt: p.clock.Now().UTC(),
		ShapeIn: Shape{
			Rows:  raw.NumRows(),
			Cols:  raw.NumCols(),
			MemMB: raw.ApproxMemoryMB(),
		},
		MissingTop:      MissingReport(raw, 20),
		DuplicateRowsIn: CountExactDuplicates(raw),
	}

	t := raw.Clone()

	t, stats.CrossFill = CrossFill(t, cols.LocalityReported, cols.LocalityCatalog)

	t, stats.Jurisdiction = FillJurisdiction(t, JurisdictionOptions{
		Col:         cols.Jurisdiction,
		ContextCols: cols.ContextCols,
		BoroughCol:  cols.Borough,
	})

	classifyCols := ruleset.DefaultColumns()
	classifyCols.Description = cols.Description
	t, stats.Classification = p.rules.ClassifyTable(t, classifyCols)

	t, stats.Calendar = AddCalendarFeatures(t, CalendarOptions{
		DateCol:        cols.Date,
		WeekdayNameCol: ColWeekdayName,
		WeekdayNumCol:  ColWeekdayNum,
		WindowCol:      ColPayWindow,
		WindowDays:     p.opts.WindowDays,
	})

	t, stats.Coordinates = FillCoordinates(t, CoordOptions{
		LatCol:       cols.Latitude,
		LngCol:       cols.Longitude,
		FineKeyCol:   cols.LocalityReported,
		CoarseKeyCol: cols.Borough,
	})

	if p.opts.WithWeather && p.opts.WeatherPath != "" {
		days, err := p.cache.Weather(p.opts.WeatherPath)
		if err != nil {
			return nil, nil, err
		}
		t, stats.Weather = EnrichWeather(t, days, WeatherOptions{
			BoroughCol: cols.Borough,
			DateCol:    cols.Date,
			TempCol:    ColWeatherTemp,
			CondCol:    ColWeatherCond,
		})
		t = BucketConditions(t, ColWeatherCond)
	} else {
		stats.Weather = WeatherStats{Enriched: false, Unmatched: t.NumRows()}
		log.Debug("eda: weather enrichment skipped, no source configured")
	}

	t, stats.RegionApplied = AddRegion(t, cols.Borough, ColRegion)
	t, stats.MonthsLocalized = LocalizeMonths(t, cols.MonthCols...)
	t, stats.HourBuckets = AddHourBuckets(t, cols.Hour, ColHourBucket)
	t, stats.Sparse = DropSparseColumns(t, p.opts.SparseThreshold)
	t, stats.Dedup = DropExactDuplicates(t)

	stats.FinishedAt = p.clock.Now().UTC()
	stats.ShapeOut = Shape{
		Rows:  t.NumRows(),
		Cols:  t.NumCols(),
		MemMB: t.ApproxMemoryMB(),
	}

	log.Info("eda: pipeline finished",
		zap.String("run_id", stats.RunID),
		zap.Int("rows_out", stats.ShapeOut.Rows),
		zap.Int("cols_out", stats.ShapeOut.Cols),
		zap.Int("dups_dropped", stats.Dedup.Dropped),
	)
	return t, stats, nil
}
