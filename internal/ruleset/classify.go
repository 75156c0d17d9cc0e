package ruleset

import (
	"math"
	"regexp"

	"go.uber.org/zap"

	"github.com/cdmx-insight/incident-etl/internal/frame"
	"github.com/cdmx-insight/incident-etl/internal/textnorm"
)

// Violence class labels derived from the violent set.
const (
	ViolenceViolent    = "CON_VIOLENCIA"
	ViolenceNonViolent = "SIN_VIOLENCIA"
)

// Classification is the result of classifying one crime description.
type Classification struct {
	Group            string
	Macro            string
	Violent          bool
	PassengerRobbery bool
}

// Classify assigns exactly one group to a free-text crime description.
// Groups are evaluated strictly in precedence order; the first match wins and
// later groups are never tested. Unmatched or missing text gets the sentinel
// group.
func (r *Ruleset) Classify(text string) Classification {
	t := textnorm.Canonical(text)

	group := SentinelGroup
	if t != "" {
		for _, g := range r.groups {
			if matchAny(g.patterns, t) {
				group = g.name
				break
			}
		}
	}

	return Classification{
		Group:            group,
		Macro:            r.Macro(group),
		Violent:          r.violent[group],
		PassengerRobbery: group == r.passGroup || (t != "" && matchAny(r.passenger, t)),
	}
}

func matchAny(patterns []*regexp.Regexp, t string) bool {
	for _, re := range patterns {
		if re.MatchString(t) {
			return true
		}
	}
	return false
}

// ClassifyColumns names the derived columns written by ClassifyTable.
type ClassifyColumns struct {
	Description string
	Group       string
	Macro       string
	Violence    string
	Passenger   string
}

// DefaultColumns are the canonical derived column names.
func DefaultColumns() ClassifyColumns {
	return ClassifyColumns{
		Description: "crime_description",
		Group:       "crime_group",
		Macro:       "crime_macro",
		Violence:    "violence_class",
		Passenger:   "passenger_robbery",
	}
}

// ClassifyStats is the audit record of one classification pass.
type ClassifyStats struct {
	GroupCounts  map[string]int     `json:"group_counts"`
	MacroCounts  map[string]int     `json:"macro_counts"`
	MacroPercent map[string]float64 `json:"macro_percent"`
	Total        int                `json:"total"`
	Source       Source             `json:"source"`
}

// ClassifyTable classifies every record of the batch, writing the group,
// macro-category, violence class, and passenger-robbery flag columns.
// Copy-on-write: the input table is not modified. A missing description
// column classifies every record as the sentinel group.
func (r *Ruleset) ClassifyTable(t *frame.Table, cols ClassifyColumns) (*frame.Table, ClassifyStats) {
	out := t.Clone()
	out.AddColumn(cols.Group)
	out.AddColumn(cols.Macro)
	out.AddColumn(cols.Violence)
	out.AddColumn(cols.Passenger)

	stats := ClassifyStats{
		GroupCounts:  make(map[string]int),
		MacroCounts:  make(map[string]int),
		MacroPercent: make(map[string]float64),
		Total:        out.NumRows(),
		Source:       r.source,
	}

	for i := 0; i < out.NumRows(); i++ {
		c := r.Classify(out.Get(i, cols.Description))
		out.Set(i, cols.Group, c.Group)
		out.Set(i, cols.Macro, c.Macro)
		if c.Violent {
			out.Set(i, cols.Violence, ViolenceViolent)
		} else {
			out.Set(i, cols.Violence, ViolenceNonViolent)
		}
		if c.PassengerRobbery {
			out.Set(i, cols.Passenger, "1")
		} else {
			out.Set(i, cols.Passenger, "0")
		}
		stats.GroupCounts[c.Group]++
		stats.MacroCounts[c.Macro]++
	}

	denom := stats.Total
	if denom < 1 {
		denom = 1
	}
	for macro, n := range stats.MacroCounts {
		stats.MacroPercent[macro] = math.Round(float64(n)/float64(denom)*100*100) / 100
	}

	zap.L().Debug("ruleset: classified batch",
		zap.Int("rows", stats.Total),
		zap.Int("groups", len(stats.GroupCounts)),
		zap.String("source", string(r.source)),
	)
	return out, stats
}
