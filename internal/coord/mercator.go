package coord

import (
	"fmt"
	"math"

	"github.com/pspoerri/fosfix/internal/planar"
)

const (
	// EarthCircumference is the equatorial circumference in meters of the
	// Web Mercator sphere.
	EarthCircumference = 40075016.685578488
	// OriginShift is half the earth's circumference.
	OriginShift = EarthCircumference / 2.0
	// MaxMercatorLat is the latitude at which Web Mercator becomes square.
	MaxMercatorLat = 85.05112877980659
)

// WebMercatorProj implements the Projection interface for EPSG:3857. It is
// conformal but not equidistant, so it is used for drawing rather than for
// resection.
type WebMercatorProj struct{}

func (w *WebMercatorProj) System() System { return SystemWebMercator }

func (w *WebMercatorProj) EPSG(planar.Zone) int { return 3857 }

func (w *WebMercatorProj) ToWGS84(p planar.Point) (lon, lat float64, err error) {
	if math.Abs(p.Easting) > OriginShift || math.Abs(p.Northing) > OriginShift {
		return 0, 0, fmt.Errorf("%w: Web Mercator %s outside ±%.0f", ErrOutOfDomain, p, OriginShift)
	}
	lon = (p.Easting / OriginShift) * 180.0
	lat = (p.Northing / OriginShift) * 180.0
	lat = 180.0 / math.Pi * (2.0*math.Atan(math.Exp(lat*math.Pi/180.0)) - math.Pi/2.0)
	return lon, lat, nil
}

func (w *WebMercatorProj) FromWGS84(lon, lat float64, _ planar.Zone) (planar.Point, error) {
	if math.Abs(lat) > MaxMercatorLat {
		return planar.Point{}, fmt.Errorf("%w: latitude %.6f beyond Web Mercator limit", ErrOutOfDomain, lat)
	}
	x, y := mercatorXY(lon, lat)
	return planar.Point{Easting: x, Northing: y}, nil
}

func mercatorXY(lon, lat float64) (x, y float64) {
	x = lon * OriginShift / 180.0
	y = math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) / (math.Pi / 180.0)
	y = y * OriginShift / 180.0
	return
}

// ResolutionAtLat returns the ground size in meters of one Web Mercator
// meter at the given latitude.
func ResolutionAtLat(lat float64) float64 {
	return math.Cos(lat * math.Pi / 180.0)
}
