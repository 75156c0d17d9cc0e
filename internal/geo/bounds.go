// Package geo holds the coordinate plausibility check applied after
// coordinate imputation.
package geo

import "github.com/twpayne/go-geom"

// cityBounds is a loose bounding box around Mexico City. Coordinates outside
// it are almost certainly data-entry errors or bad imputations.
var cityBounds = geom.NewBounds(geom.XY).Set(-99.40, 19.00, -98.90, 19.65)

// InCity reports whether a (longitude, latitude) pair falls inside the city
// bounding box.
func InCity(lng, lat float64) bool {
	return cityBounds.OverlapsPoint(geom.XY, geom.Coord{lng, lat})
}
