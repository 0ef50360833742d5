package geomath

import (
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/geodesic"
)

// EarthRadius is the mean Earth radius in meters used by every spherical
// computation in this package.
const EarthRadius = 6_371_000.0

// sphere solves the inverse and direct problems with great-circle formulas
// on a sphere of EarthRadius.
var sphere = geodesic.NewSpherical(EarthRadius)

var (
	// ErrCoincident is returned when two points that must be distinct coincide.
	ErrCoincident = errors.New("geomath: coincident points")
	// ErrNoIntersection is returned when two great-circle paths diverge.
	ErrNoIntersection = errors.New("geomath: great-circle paths do not intersect")
	// ErrSameGreatCircle is returned when both paths lie on one great circle.
	ErrSameGreatCircle = errors.New("geomath: paths lie on the same great circle")
)

// GeoPoint is a WGS84 latitude/longitude pair in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat" msgpack:"lat"`
	Lon float64 `json:"lon" msgpack:"lon"`
}

// Validate reports whether the point lies inside the latitude/longitude range.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return fmt.Errorf("coordinate (%v, %v) is not a finite number", p.Lat, p.Lon)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %.6f outside [-90, 90]", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude %.6f outside [-180, 180]", p.Lon)
	}
	return nil
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.6f, %.6f", p.Lat, p.Lon)
}

func deg2rad(d float64) float64 { return d * math.Pi / 180.0 }
func rad2deg(r float64) float64 { return r * 180.0 / math.Pi }

// Distance returns the haversine great-circle distance between p1 and p2 in meters.
func Distance(p1, p2 GeoPoint) float64 {
	var s12 float64
	sphere.Inverse(p1.Lat, p1.Lon, p2.Lat, p2.Lon, &s12, nil, nil)
	// Rounding can push the haversine above 1 for antipodal points.
	if math.IsNaN(s12) {
		return math.Pi * EarthRadius
	}
	return s12
}

// InitialBearing returns the forward azimuth from p1 to p2 in [0, 360).
// The direction is undefined for p1 == p2 and 0 is returned.
func InitialBearing(p1, p2 GeoPoint) float64 {
	if p1 == p2 {
		return 0
	}
	var azi1 float64
	sphere.Inverse(p1.Lat, p1.Lon, p2.Lat, p2.Lon, nil, &azi1, nil)
	return NormalizeBearing(azi1)
}

// DestinationPoint projects a point distance meters from origin along the
// great circle leaving origin at the given bearing.
func DestinationPoint(origin GeoPoint, bearing, distance float64) GeoPoint {
	var lat, lon float64
	sphere.Direct(origin.Lat, origin.Lon, bearing, distance, &lat, &lon, nil)
	return GeoPoint{Lat: lat, Lon: NormalizeLongitude(lon)}
}

// NormalizeLongitude wraps lon into [-180, 180).
func NormalizeLongitude(lon float64) float64 {
	return math.Mod(math.Mod(lon+540, 360)+360, 360) - 180
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
