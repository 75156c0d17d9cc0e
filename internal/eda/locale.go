package eda

import (
	"strings"

	"github.com/cdmx-insight/incident-etl/internal/frame"
	"github.com/cdmx-insight/incident-etl/internal/textnorm"
)

// MonthUnknown is assigned to month cells that are neither English nor
// Spanish month names.
const MonthUnknown = "Desconocido"

var monthsEnglishToSpanish = map[string]string{
	"january":   "Enero",
	"february":  "Febrero",
	"march":     "Marzo",
	"april":     "Abril",
	"may":       "Mayo",
	"june":      "Junio",
	"july":      "Julio",
	"august":    "Agosto",
	"september": "Septiembre",
	"october":   "Octubre",
	"november":  "Noviembre",
	"december":  "Diciembre",
}

var monthsSpanish = map[string]bool{
	"enero": true, "febrero": true, "marzo": true, "abril": true,
	"mayo": true, "junio": true, "julio": true, "agosto": true,
	"septiembre": true, "octubre": true, "noviembre": true, "diciembre": true,
}

// SpanishMonth localizes a month name to Spanish. Already-Spanish values are
// re-capitalized; missing input stays missing; anything else becomes the
// unknown sentinel.
func SpanishMonth(s string) string {
	key := textnorm.CanonicalLower(s)
	if key == "" {
		return ""
	}
	if monthsSpanish[key] {
		return strings.ToUpper(key[:1]) + key[1:]
	}
	if es, ok := monthsEnglishToSpanish[key]; ok {
		return es
	}
	return MonthUnknown
}

// LocalizeMonths rewrites every present month column in place (copy-on-write)
// to Spanish month names. Absent columns are skipped; returns the columns
// actually localized.
func LocalizeMonths(t *frame.Table, monthCols ...string) (*frame.Table, []string) {
	out := t.Clone()
	var applied []string
	for _, col := range monthCols {
		if !out.HasColumn(col) {
			continue
		}
		for i := 0; i < out.NumRows(); i++ {
			out.Set(i, col, SpanishMonth(out.Get(i, col)))
		}
		applied = append(applied, col)
	}
	return out, applied
}
