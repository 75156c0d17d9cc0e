package eda

import (
	"github.com/cdmx-insight/incident-etl/internal/frame"
	"github.com/cdmx-insight/incident-etl/internal/textnorm"
)

// RegionUnknown is assigned to boroughs outside the region table.
const RegionUnknown = "Desconocido"

// cityRegions maps each borough to one of the five city regions. Keys are
// canonical borough names.
var cityRegions = map[string]string{
	"CUAUHTEMOC":              "Centro",
	"BENITO JUAREZ":           "Centro",
	"VENUSTIANO CARRANZA":     "Centro",
	"GUSTAVO A. MADERO":       "Norte",
	"AZCAPOTZALCO":            "Norte",
	"COYOACAN":                "Sur",
	"TLALPAN":                 "Sur",
	"XOCHIMILCO":              "Sur",
	"MAGDALENA CONTRERAS":     "Sur",
	"LA MAGDALENA CONTRERAS":  "Sur",
	"IZTAPALAPA":              "Oriente",
	"IZTACALCO":               "Oriente",
	"TLAHUAC":                 "Oriente",
	"MILPA ALTA":              "Oriente",
	"MIGUEL HIDALGO":          "Poniente",
	"ALVARO OBREGON":          "Poniente",
	"CUAJIMALPA":              "Poniente",
	"CUAJIMALPA DE MORELOS":   "Poniente",
}

// AssignRegion returns the city region for a borough name, the unknown
// sentinel for unrecognized boroughs, or missing for missing input.
func AssignRegion(borough string) string {
	key := textnorm.Canonical(borough)
	if key == "" {
		return ""
	}
	if region, ok := cityRegions[key]; ok {
		return region
	}
	return RegionUnknown
}

// AddRegion derives the region column from the borough column. A missing
// borough column is a no-op; the second return reports whether the step ran.
func AddRegion(t *frame.Table, boroughCol, regionCol string) (*frame.Table, bool) {
	out := t.Clone()
	if !out.HasColumn(boroughCol) {
		return out, false
	}
	out.AddColumn(regionCol)
	for i := 0; i < out.NumRows(); i++ {
		out.Set(i, regionCol, AssignRegion(out.Get(i, boroughCol)))
	}
	return out, true
}
