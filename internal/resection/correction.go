package resection

import (
	"math"

	"github.com/pspoerri/fosfix/internal/geomath"
	"github.com/pspoerri/fosfix/internal/planar"
)

// Direction words reported with a correction.
const (
	DirUp    = "Up/Add"
	DirDown  = "Down/Drop"
	DirRight = "Right"
	DirLeft  = "Left"
)

// Correction is the shift from FOS to the target. North and East are signed
// meters: positive when the target lies north (east) of FOS.
type Correction struct {
	North          float64 `json:"north_m" msgpack:"north_m"`
	East           float64 `json:"east_m" msgpack:"east_m"`
	NorthDirection string  `json:"north_direction" msgpack:"north_direction"`
	EastDirection  string  `json:"east_direction" msgpack:"east_direction"`
}

// GeographicCorrection measures each axis as a great-circle distance with
// the other coordinate held at FOS's value. This is a local approximation
// that grows inexact as the offsets grow.
func GeographicCorrection(fos, target geomath.GeoPoint) Correction {
	north := geomath.Distance(fos, geomath.GeoPoint{Lat: target.Lat, Lon: fos.Lon})
	east := geomath.Distance(fos, geomath.GeoPoint{Lat: fos.Lat, Lon: target.Lon})
	return newCorrection(
		north, target.Lat > fos.Lat,
		east, geomath.NormalizeLongitude(target.Lon-fos.Lon) > 0,
	)
}

// PlanarCorrection is the exact easting/northing difference.
func PlanarCorrection(fos, target planar.Point) Correction {
	dn := target.Northing - fos.Northing
	de := target.Easting - fos.Easting
	return newCorrection(math.Abs(dn), dn > 0, math.Abs(de), de > 0)
}

func newCorrection(north float64, isNorth bool, east float64, isEast bool) Correction {
	c := Correction{NorthDirection: DirDown, EastDirection: DirLeft}
	// A zero offset stays +0 so it never renders as -0.
	if north != 0 {
		c.North = -north
	}
	if east != 0 {
		c.East = -east
	}
	if isNorth {
		c.North, c.NorthDirection = north, DirUp
	}
	if isEast {
		c.East, c.EastDirection = east, DirRight
	}
	return c
}
