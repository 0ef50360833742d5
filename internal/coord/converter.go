package coord

import (
	"fmt"

	"github.com/pspoerri/fosfix/internal/geomath"
	"github.com/pspoerri/fosfix/internal/planar"
)

// Converter translates between geographic and projected coordinates using a
// single Projection. A Converter is immutable and safe for concurrent use.
type Converter struct {
	proj Projection
}

// NewConverter returns a Converter backed by proj.
func NewConverter(proj Projection) *Converter {
	return &Converter{proj: proj}
}

// Projection returns the backing projection.
func (c *Converter) Projection() Projection { return c.proj }

// ToProjected converts a geographic point to the grid. A non-zero zoneHint
// pins the zone; a point outside it fails with ErrOutOfDomain.
func (c *Converter) ToProjected(p geomath.GeoPoint, zoneHint planar.Zone) (planar.Point, error) {
	if err := p.Validate(); err != nil {
		return planar.Point{}, fmt.Errorf("%w: %v", ErrOutOfDomain, err)
	}
	return c.proj.FromWGS84(p.Lon, p.Lat, zoneHint)
}

// ToGeographic converts a grid point back to latitude/longitude.
func (c *Converter) ToGeographic(p planar.Point) (geomath.GeoPoint, error) {
	lon, lat, err := c.proj.ToWGS84(p)
	if err != nil {
		return geomath.GeoPoint{}, err
	}
	return geomath.GeoPoint{Lat: lat, Lon: geomath.NormalizeLongitude(lon)}, nil
}

// GridReference formats p as a numeric grid reference at the given precision.
func (c *Converter) GridReference(p planar.Point, precision int) (string, error) {
	return GridReference(p, precision)
}

// MGRS formats p using the lettered MGRS convention. It is only defined for
// UTM; the latitude band is derived from the inverse transform when p does
// not carry one.
func (c *Converter) MGRS(p planar.Point, precision int) (string, error) {
	if c.proj.System() != SystemUTM {
		return "", fmt.Errorf("MGRS is only defined for UTM, not %s", c.proj.System())
	}
	if p.Zone.Band == 0 {
		g, err := c.ToGeographic(p)
		if err != nil {
			return "", err
		}
		band, err := BandLetter(g.Lat)
		if err != nil {
			return "", err
		}
		p.Zone.Band = band
	}
	return MGRS(p, precision)
}
