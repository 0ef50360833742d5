package coord

import (
	"fmt"

	"github.com/pspoerri/fosfix/internal/planar"
)

// SwissLV95 implements the Projection interface for EPSG:2056 (CH1903+ / LV95).
// Uses swisstopo's published polynomial approximation formulas for the forward
// transform; the inverse is refined against the forward polynomial so that a
// grid -> WGS84 -> grid round trip is exact to well below a millimeter.
// Absolute accuracy against the rigorous transform is ~1 meter.
//
// Reference: https://www.swisstopo.admin.ch/en/knowledge-facts/surveying-geodesy/reference-frames/local/lv95.html
type SwissLV95 struct{}

// Validity window of the polynomial, slightly larger than Switzerland.
const (
	lv95MinLon, lv95MaxLon = 5.7, 10.7
	lv95MinLat, lv95MaxLat = 45.6, 48.0

	lv95MinE, lv95MaxE = 2_450_000.0, 2_850_000.0
	lv95MinN, lv95MaxN = 1_050_000.0, 1_310_000.0
)

func (s *SwissLV95) System() System { return SystemLV95 }

func (s *SwissLV95) EPSG(planar.Zone) int { return 2056 }

// ToWGS84 converts Swiss LV95 easting/northing to WGS84 longitude/latitude (degrees).
func (s *SwissLV95) ToWGS84(p planar.Point) (lon, lat float64, err error) {
	if p.Easting < lv95MinE || p.Easting > lv95MaxE || p.Northing < lv95MinN || p.Northing > lv95MaxN {
		return 0, 0, fmt.Errorf("%w: LV95 %s outside E [%.0f, %.0f] N [%.0f, %.0f]",
			ErrOutOfDomain, p, lv95MinE, lv95MaxE, lv95MinN, lv95MaxN)
	}

	lon, lat = lv95Inverse(p.Easting, p.Northing)

	// Newton-style refinement against the forward polynomial. The Jacobian is
	// dominated by its diagonal (211455.93 m and 308807.95 m per 10000").
	const secPerAux = 10000.0 / 3600.0
	for i := 0; i < 5; i++ {
		e, n := lv95Forward(lon, lat)
		lon += (p.Easting - e) / 211_455.93 * secPerAux
		lat += (p.Northing - n) / 308_807.95 * secPerAux
	}
	return lon, lat, nil
}

// FromWGS84 converts WGS84 longitude/latitude (degrees) to Swiss LV95
// easting/northing. LV95 is a single-zone grid; the zone hint is ignored.
func (s *SwissLV95) FromWGS84(lon, lat float64, _ planar.Zone) (planar.Point, error) {
	if lon < lv95MinLon || lon > lv95MaxLon || lat < lv95MinLat || lat > lv95MaxLat {
		return planar.Point{}, fmt.Errorf("%w: (%.6f, %.6f) outside the LV95 area", ErrOutOfDomain, lat, lon)
	}
	e, n := lv95Forward(lon, lat)
	return planar.Point{Easting: e, Northing: n}, nil
}

func lv95Inverse(easting, northing float64) (lon, lat float64) {
	// Auxiliary values: differences from Bern reference in 1000 km units
	y := (easting - 2_600_000) / 1_000_000
	x := (northing - 1_200_000) / 1_000_000

	// Longitude in 10000" units
	lonSec := 2.6779094 +
		4.728982*y +
		0.791484*y*x +
		0.1306*y*x*x -
		0.0436*y*y*y

	// Latitude in 10000" units
	latSec := 16.9023892 +
		3.238272*x -
		0.270978*y*y -
		0.002528*x*x -
		0.0447*y*y*x -
		0.0140*x*x*x

	// Convert from 10000" to degrees
	lon = lonSec * 100.0 / 36.0
	lat = latSec * 100.0 / 36.0
	return
}

func lv95Forward(lon, lat float64) (easting, northing float64) {
	phiAux := (lat*3600 - 169028.66) / 10000
	lambdaAux := (lon*3600 - 26782.5) / 10000

	easting = 2_600_072.37 +
		211_455.93*lambdaAux -
		10_938.51*lambdaAux*phiAux -
		0.36*lambdaAux*phiAux*phiAux -
		44.54*lambdaAux*lambdaAux*lambdaAux

	northing = 1_200_147.07 +
		308_807.95*phiAux +
		3_745.25*lambdaAux*lambdaAux +
		76.63*phiAux*phiAux -
		194.56*lambdaAux*lambdaAux*phiAux +
		119.79*phiAux*phiAux*phiAux
	return
}
