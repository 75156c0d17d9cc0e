package eda

import (
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/cdmx-insight/incident-etl/internal/frame"
)

// Window labels written by AddPayPeriodWindow.
const (
	WindowIn  = "Ventana"
	WindowOut = "No_ventana"
)

var weekdayNames = map[int]string{
	1: "LUNES",
	2: "MARTES",
	3: "MIERCOLES",
	4: "JUEVES",
	5: "VIERNES",
	6: "SABADO",
	7: "DOMINGO",
}

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// dayFirstLayouts are tried in order for non-ISO values. Day-first is the
// locale convention of the source data.
var dayFirstLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

// ParseDateFlex parses a date cell tolerantly: strict ISO YYYY-MM-DD first,
// then day-first layouts. Unparseable values report ok=false and never raise.
func ParseDateFlex(s string) (time.Time, bool) {
	if frame.IsMissing(s) {
		return time.Time{}, false
	}
	if isoDate.MatchString(s) {
		if d, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return d, true
		}
		return time.Time{}, false
	}
	for _, layout := range dayFirstLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// CalendarStats is the audit record of the calendar feature step.
type CalendarStats struct {
	Applied          bool `json:"applied"`
	UnparseableDates int  `json:"unparseable_dates"`
	InWindow         int  `json:"in_window"`
}

// CalendarOptions configures the calendar feature derivations.
type CalendarOptions struct {
	DateCol        string
	WeekdayNameCol string
	WeekdayNumCol  string
	WindowCol      string
	WindowDays     int
}

// AddCalendarFeatures derives the weekday number (Monday=1..Sunday=7), the
// Spanish weekday name, and the pay-period window flag from the date column.
// Records with unparseable dates get missing weekday features and are flagged
// outside the window — false, not missing, by policy. A missing date column
// makes the step a reported no-op.
func AddCalendarFeatures(t *frame.Table, opts CalendarOptions) (*frame.Table, CalendarStats) {
	if !t.HasColumn(opts.DateCol) {
		zap.L().Debug("eda: calendar features skipped, date column missing",
			zap.String("col", opts.DateCol))
		return t.Clone(), CalendarStats{}
	}

	out := t.Clone()
	out.AddColumn(opts.WeekdayNumCol)
	out.AddColumn(opts.WeekdayNameCol)
	out.AddColumn(opts.WindowCol)
	stats := CalendarStats{Applied: true}

	for i := 0; i < out.NumRows(); i++ {
		d, ok := ParseDateFlex(out.Get(i, opts.DateCol))
		if !ok {
			if !frame.IsMissing(out.Get(i, opts.DateCol)) {
				stats.UnparseableDates++
			}
			out.Set(i, opts.WindowCol, WindowOut)
			continue
		}

		wd := int(d.Weekday())
		if wd == 0 {
			wd = 7 // Go counts Sunday as 0; the scheme is Monday-first 1..7.
		}
		out.Set(i, opts.WeekdayNumCol, strconv.Itoa(wd))
		out.Set(i, opts.WeekdayNameCol, weekdayNames[wd])

		if payPeriodDistance(d) <= opts.WindowDays {
			out.Set(i, opts.WindowCol, WindowIn)
			stats.InWindow++
		} else {
			out.Set(i, opts.WindowCol, WindowOut)
		}
	}
	return out, stats
}

// payPeriodDistance returns the day distance from d to the nearest payroll
// anchor: the 15th of its month, its month's last day, or the previous
// month's last day.
func payPeriodDistance(d time.Time) int {
	day15 := time.Date(d.Year(), d.Month(), 15, 0, 0, 0, 0, time.UTC)
	monthEnd := time.Date(d.Year(), d.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	prevMonthEnd := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	min := absDays(d, day15)
	if v := absDays(d, monthEnd); v < min {
		min = v
	}
	if v := absDays(d, prevMonthEnd); v < min {
		min = v
	}
	return min
}

func absDays(a, b time.Time) int {
	days := int(a.Sub(b).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}
