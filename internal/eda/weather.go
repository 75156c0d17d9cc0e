package eda

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/cdmx-insight/incident-etl/internal/frame"
	"github.com/cdmx-insight/incident-etl/internal/textnorm"
)

// Condition buckets written by BucketConditions.
const (
	ConditionRain  = "Lluvia"
	ConditionClear = "Soleado"
)

// WeatherDay is one row of the daily weather source.
type WeatherDay struct {
	Name       string `csv:"name"`
	Datetime   string `csv:"datetime"`
	Temp       string `csv:"temp"`
	Conditions string `csv:"conditions"`
}

var weatherRequiredCols = []string{"name", "datetime", "temp", "conditions"}

// LoadWeather reads the daily weather table from a CSV or XLSX file. A source
// missing any of the required columns (name, datetime, temp, conditions) is a
// configuration error and fails loudly.
func LoadWeather(path string) ([]WeatherDay, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadWeatherXLSX(path)
	}
	return loadWeatherCSV(path)
}

func loadWeatherCSV(path string) ([]WeatherDay, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "weather: read %s", path)
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "weather: read header of %s", path)
	}
	// Fold the header like the XLSX path so tag matching is case-insensitive.
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}
	if err := checkWeatherHeader(header, path); err != nil {
		return nil, err
	}

	dec, err := csvutil.NewDecoder(r, header...)
	if err != nil {
		return nil, eris.Wrapf(err, "weather: decode header of %s", path)
	}

	var days []WeatherDay
	for {
		var d WeatherDay
		if err := dec.Decode(&d); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "weather: parse %s", path)
		}
		days = append(days, d)
	}
	return days, nil
}

func loadWeatherXLSX(path string) ([]WeatherDay, error) {
	xlFile, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "weather: open xlsx %s", path)
	}
	if len(xlFile.Sheets) == 0 || len(xlFile.Sheets[0].Rows) < 1 {
		return nil, eris.Errorf("weather: xlsx %s has no data", path)
	}
	sheet := xlFile.Sheets[0]

	header := make([]string, len(sheet.Rows[0].Cells))
	colIdx := make(map[string]int, len(header))
	for i, cell := range sheet.Rows[0].Cells {
		name := strings.ToLower(strings.TrimSpace(cell.String()))
		header[i] = name
		colIdx[name] = i
	}
	if err := checkWeatherHeader(header, path); err != nil {
		return nil, err
	}

	cellAt := func(cells []*xlsx.Cell, name string) string {
		i, ok := colIdx[name]
		if !ok || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i].String())
	}

	var days []WeatherDay
	for _, row := range sheet.Rows[1:] {
		days = append(days, WeatherDay{
			Name:       cellAt(row.Cells, "name"),
			Datetime:   cellAt(row.Cells, "datetime"),
			Temp:       cellAt(row.Cells, "temp"),
			Conditions: cellAt(row.Cells, "conditions"),
		})
	}
	return days, nil
}

func checkWeatherHeader(header []string, path string) error {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[strings.ToLower(strings.TrimSpace(h))] = true
	}
	var missing []string
	for _, c := range weatherRequiredCols {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("weather: %s is missing required columns %v", path, missing)
	}
	return nil
}

// WeatherOptions configures the enrichment join.
type WeatherOptions struct {
	BoroughCol string
	DateCol    string
	TempCol    string
	CondCol    string
}

// WeatherStats is the audit record of weather enrichment.
type WeatherStats struct {
	Enriched  bool `json:"enriched"`
	Matched   int  `json:"matched"`
	Unmatched int  `json:"unmatched"`
}

// EnrichWeather left-joins daily temperature and a single-token condition
// onto the batch by normalized borough name and YYYY-MM-DD date. Every input
// row is preserved; rows without a weather match keep missing weather cells.
func EnrichWeather(t *frame.Table, days []WeatherDay, opts WeatherOptions) (*frame.Table, WeatherStats) {
	out := t.Clone()
	out.AddColumn(opts.TempCol)
	out.AddColumn(opts.CondCol)
	stats := WeatherStats{Enriched: true}

	type entry struct{ temp, cond string }
	index := make(map[string]entry, len(days))
	for _, d := range days {
		nameKey := textnorm.Canonical(d.Name)
		date, ok := ParseDateFlex(d.Datetime)
		if nameKey == "" || !ok {
			continue
		}
		cond := ""
		if fields := strings.Fields(strings.ReplaceAll(d.Conditions, ",", " ")); len(fields) > 0 {
			cond = fields[0]
		}
		index[nameKey+"|"+date.Format("2006-01-02")] = entry{temp: strings.TrimSpace(d.Temp), cond: cond}
	}

	for i := 0; i < out.NumRows(); i++ {
		nameKey := textnorm.Canonical(out.Get(i, opts.BoroughCol))
		date, ok := ParseDateFlex(out.Get(i, opts.DateCol))
		if nameKey == "" || !ok {
			stats.Unmatched++
			continue
		}
		e, found := index[nameKey+"|"+date.Format("2006-01-02")]
		if !found {
			stats.Unmatched++
			continue
		}
		out.Set(i, opts.TempCol, e.temp)
		out.Set(i, opts.CondCol, e.cond)
		stats.Matched++
	}

	zap.L().Debug("eda: weather enriched",
		zap.Int("matched", stats.Matched),
		zap.Int("unmatched", stats.Unmatched),
	)
	return out, stats
}

// BucketConditions collapses the free-text weather condition into a small
// fixed vocabulary by substring matching: rain/snow bucket, clear/overcast
// bucket, otherwise missing. A missing condition column is a no-op.
func BucketConditions(t *frame.Table, condCol string) *frame.Table {
	out := t.Clone()
	if !out.HasColumn(condCol) {
		return out
	}
	for i := 0; i < out.NumRows(); i++ {
		c := textnorm.CanonicalLower(strings.ReplaceAll(out.Get(i, condCol), ",", ""))
		switch {
		case c == "":
			out.Set(i, condCol, "")
		case strings.Contains(c, "rain") || strings.Contains(c, "snow"):
			out.Set(i, condCol, ConditionRain)
		case strings.Contains(c, "clear") || strings.Contains(c, "overcast") ||
			strings.Contains(c, "partly") || strings.Contains(c, "partial"):
			out.Set(i, condCol, ConditionClear)
		default:
			out.Set(i, condCol, "")
		}
	}
	return out
}
