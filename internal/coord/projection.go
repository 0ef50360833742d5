package coord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pspoerri/fosfix/internal/planar"
)

var (
	// ErrOutOfDomain is returned when a point lies outside the valid range of
	// a projection or of the requested zone.
	ErrOutOfDomain = errors.New("coord: point outside projection domain")
	// ErrUnknownSystem is returned for unsupported grid systems or EPSG codes.
	ErrUnknownSystem = errors.New("coord: unknown grid system")
)

// System names a projected grid system.
type System string

const (
	SystemUTM         System = "utm"
	SystemLV95        System = "lv95"
	SystemWebMercator System = "webmercator"
)

// Projection defines the interface for converting between WGS84 and a
// projected grid.
type Projection interface {
	// FromWGS84 converts WGS84 longitude/latitude (degrees) to grid
	// coordinates. A non-zero hint pins the result to that zone; points
	// outside it are rejected with ErrOutOfDomain.
	FromWGS84(lon, lat float64, hint planar.Zone) (planar.Point, error)

	// ToWGS84 converts grid coordinates to WGS84 longitude/latitude (degrees).
	ToWGS84(p planar.Point) (lon, lat float64, err error)

	// EPSG returns the EPSG code of the grid in the given zone.
	EPSG(z planar.Zone) int

	// System returns the grid system name.
	System() System
}

// ForSystem returns the Projection for a grid system name. The empty name
// selects UTM.
func ForSystem(name string) (Projection, error) {
	switch System(strings.ToLower(strings.TrimSpace(name))) {
	case SystemUTM, "":
		return &UTM{}, nil
	case SystemLV95, "ch1903+", "epsg:2056":
		return &SwissLV95{}, nil
	case SystemWebMercator:
		return &WebMercatorProj{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: utm, lv95, webmercator)", ErrUnknownSystem, name)
	}
}

// ForEPSG returns a Projection and zone for the given EPSG code.
// WGS84 / UTM zones 326xx (north) and 327xx (south) are supported along with
// 2056 (LV95) and 3857 (Web Mercator).
func ForEPSG(epsg int) (Projection, planar.Zone, error) {
	switch {
	case epsg == 2056:
		return &SwissLV95{}, planar.Zone{}, nil
	case epsg == 3857:
		return &WebMercatorProj{}, planar.Zone{}, nil
	case epsg >= 32601 && epsg <= 32660:
		return &UTM{}, planar.Zone{Number: epsg - 32600, North: true}, nil
	case epsg >= 32701 && epsg <= 32760:
		return &UTM{}, planar.Zone{Number: epsg - 32700, North: false}, nil
	default:
		return nil, planar.Zone{}, fmt.Errorf("%w: EPSG:%d", ErrUnknownSystem, epsg)
	}
}
