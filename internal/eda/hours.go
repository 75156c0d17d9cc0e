package eda

import (
	"time"

	"github.com/cdmx-insight/incident-etl/internal/frame"
)

// Hour buckets written by AddHourBuckets.
const (
	HourMorning   = "Mañana"
	HourAfternoon = "Tarde"
	HourNight     = "Noche"
)

var hourLayouts = []string{"15:04:05", "15:04"}

// HourBucket classifies a clock time into morning (05:00–11:59), afternoon
// (12:00–18:59), or night. Unparseable input reports missing.
func HourBucket(s string) string {
	if frame.IsMissing(s) {
		return ""
	}
	var parsed time.Time
	ok := false
	for _, layout := range hourLayouts {
		if p, err := time.Parse(layout, s); err == nil {
			parsed, ok = p, true
			break
		}
	}
	if !ok {
		return ""
	}

	minutes := parsed.Hour()*60 + parsed.Minute()
	switch {
	case minutes >= 5*60 && minutes < 12*60:
		return HourMorning
	case minutes >= 12*60 && minutes < 19*60:
		return HourAfternoon
	default:
		return HourNight
	}
}

// AddHourBuckets derives the day-period column from the hour column. A
// missing hour column is a no-op; the second return reports whether the step
// ran.
func AddHourBuckets(t *frame.Table, hourCol, bucketCol string) (*frame.Table, bool) {
	out := t.Clone()
	if !out.HasColumn(hourCol) {
		return out, false
	}
	out.AddColumn(bucketCol)
	for i := 0; i < out.NumRows(); i++ {
		out.Set(i, bucketCol, HourBucket(out.Get(i, hourCol)))
	}
	return out, true
}
