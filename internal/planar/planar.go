// Package planar implements bearing, distance and line intersection on a
// projected easting/northing plane.
package planar

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DeterminantTolerance is the smallest |det| of the direction matrix for
// which two lines are considered to cross.
const DeterminantTolerance = 1e-9

// ErrParallel is returned when two lines are parallel or anti-parallel.
var ErrParallel = errors.New("planar: lines are parallel")

// Zone identifies the projected zone a point belongs to. Number is 0 for
// single-zone national grids.
type Zone struct {
	Number int  `json:"number" msgpack:"number"`
	Band   byte `json:"-" msgpack:"-"` // latitude band letter, 0 when unknown
	North  bool `json:"north" msgpack:"north"`
}

// String formats a zone as "43N"/"43S", or with its latitude band ("43R")
// when known.
func (z Zone) String() string {
	if z.Number == 0 {
		return ""
	}
	if z.Band != 0 {
		return fmt.Sprintf("%d%c", z.Number, z.Band)
	}
	if z.North {
		return fmt.Sprintf("%dN", z.Number)
	}
	return fmt.Sprintf("%dS", z.Number)
}

// IsZero reports whether no zone was given.
func (z Zone) IsZero() bool { return z.Number == 0 }

// Same reports whether two zones address the same projection (number and
// hemisphere); latitude bands are not compared.
func (z Zone) Same(o Zone) bool {
	return z.Number == o.Number && z.North == o.North
}

// ParseZone parses "43N", "43S" or a zone number followed by a latitude band
// letter ("43R"). Bands N..X are northern, C..M southern. Note that "43N" and
// "43S" are read as hemisphere flags, matching common field usage.
func ParseZone(s string) (Zone, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Zone{}, fmt.Errorf("zone %q: want <number><hemisphere or band>", s)
	}
	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return Zone{}, fmt.Errorf("zone %q: %w", s, err)
	}
	if num < 1 || num > 60 {
		return Zone{}, fmt.Errorf("zone %q: number must be 1-60", s)
	}
	letter := s[len(s)-1]
	switch {
	case letter == 'N':
		return Zone{Number: num, North: true}, nil
	case letter == 'S':
		return Zone{Number: num, North: false}, nil
	case letter >= 'C' && letter <= 'X' && letter != 'I' && letter != 'O':
		return Zone{Number: num, Band: letter, North: letter >= 'N'}, nil
	default:
		return Zone{}, fmt.Errorf("zone %q: invalid hemisphere or band letter %q", s, letter)
	}
}

// Point is a projected position in meters.
type Point struct {
	Easting  float64 `json:"easting" msgpack:"easting"`
	Northing float64 `json:"northing" msgpack:"northing"`
	Zone     Zone    `json:"zone" msgpack:"zone"`
}

func (p Point) String() string {
	if p.Zone.IsZero() {
		return fmt.Sprintf("E %.2f N %.2f", p.Easting, p.Northing)
	}
	return fmt.Sprintf("%s E %.2f N %.2f", p.Zone, p.Easting, p.Northing)
}

// Validate rejects non-finite coordinates.
func (p Point) Validate() error {
	for _, v := range []float64{p.Easting, p.Northing} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("coordinate (%v, %v) is not a finite number", p.Easting, p.Northing)
		}
	}
	return nil
}

// Bearing returns the grid azimuth from p1 to p2 in [0, 360). It is 0 when
// the points coincide.
func Bearing(p1, p2 Point) float64 {
	de := p2.Easting - p1.Easting
	dn := p2.Northing - p1.Northing
	if de == 0 && dn == 0 {
		return 0
	}
	b := math.Atan2(de, dn) * 180 / math.Pi
	if b < 0 {
		b += 360
	}
	if b >= 360 {
		b -= 360
	}
	return b
}

// Distance returns the Euclidean distance between p1 and p2 in meters.
func Distance(p1, p2 Point) float64 {
	return math.Hypot(p2.Easting-p1.Easting, p2.Northing-p1.Northing)
}

// Destination moves distance meters from origin on the given grid bearing.
func Destination(origin Point, bearing, distance float64) Point {
	s, c := math.Sincos(bearing * math.Pi / 180)
	return Point{
		Easting:  origin.Easting + distance*s,
		Northing: origin.Northing + distance*c,
		Zone:     origin.Zone,
	}
}

// IntersectRays returns the crossing point of the line through originA with
// direction bearingA and the line through originB with direction bearingB.
// Both lines extend in both directions, so the result may lie behind either
// origin. ErrParallel is returned for parallel or anti-parallel bearings.
func IntersectRays(originA Point, bearingA float64, originB Point, bearingB float64) (Point, error) {
	// Unit direction vectors in (easting, northing).
	ax, ay := math.Sincos(bearingA * math.Pi / 180)
	bx, by := math.Sincos(bearingB * math.Pi / 180)

	// Solve originA + t*a = originB + u*b for t.
	det := bx*ay - ax*by
	if math.Abs(det) < DeterminantTolerance {
		return Point{}, fmt.Errorf("%w (bearings %.6f and %.6f, det %.3g)", ErrParallel, bearingA, bearingB, det)
	}
	dx := originB.Easting - originA.Easting
	dy := originB.Northing - originA.Northing
	t := (bx*dy - by*dx) / det

	return Point{
		Easting:  originA.Easting + t*ax,
		Northing: originA.Northing + t*ay,
		Zone:     originA.Zone,
	}, nil
}
