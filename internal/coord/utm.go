package coord

import (
	"fmt"

	utm "github.com/im7mortal/UTM"

	"github.com/pspoerri/fosfix/internal/planar"
)

// UTM implements the Projection interface for the WGS84 Universal Transverse
// Mercator grid (EPSG:326xx/327xx). The transform itself is delegated to
// github.com/im7mortal/UTM; this type adds zone pinning and error mapping.
type UTM struct{}

func (u *UTM) System() System { return SystemUTM }

func (u *UTM) EPSG(z planar.Zone) int {
	if z.North {
		return 32600 + z.Number
	}
	return 32700 + z.Number
}

// FromWGS84 converts WGS84 longitude/latitude to UTM easting/northing in the
// point's natural zone. Latitudes outside [-80, 84] are out of domain.
func (u *UTM) FromWGS84(lon, lat float64, hint planar.Zone) (planar.Point, error) {
	// The equator belongs to the northern hemisphere and to band N.
	north := lat >= 0
	easting, northing, number, _, err := utm.FromLatLon(lat, lon, north)
	if err != nil {
		return planar.Point{}, fmt.Errorf("%w: (%.6f, %.6f): %v", ErrOutOfDomain, lat, lon, err)
	}
	// With northern set the library reports a hemisphere letter, not the band.
	band, err := BandLetter(lat)
	if err != nil {
		return planar.Point{}, err
	}

	zone := planar.Zone{Number: number, Band: band, North: north}
	if !hint.IsZero() && !hint.Same(zone) {
		return planar.Point{}, fmt.Errorf("%w: (%.6f, %.6f) lies in zone %s, not %s",
			ErrOutOfDomain, lat, lon, zone, hint)
	}
	return planar.Point{Easting: easting, Northing: northing, Zone: zone}, nil
}

// ToWGS84 converts UTM easting/northing in p.Zone to WGS84 longitude/latitude.
func (u *UTM) ToWGS84(p planar.Point) (lon, lat float64, err error) {
	if p.Zone.Number < 1 || p.Zone.Number > 60 {
		return 0, 0, fmt.Errorf("%w: UTM zone %d outside 1-60", ErrOutOfDomain, p.Zone.Number)
	}
	lat, lon, err = utm.ToLatLon(p.Easting, p.Northing, p.Zone.Number, "", p.Zone.North)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: %v", ErrOutOfDomain, p, err)
	}
	return lon, lat, nil
}
