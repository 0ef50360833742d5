package resection

import (
	"fmt"
	"strings"

	"github.com/pspoerri/fosfix/internal/coord"
	"github.com/pspoerri/fosfix/internal/geomath"
	"github.com/pspoerri/fosfix/internal/planar"
)

// Role names one of the five input points.
type Role int

const (
	RoleA Role = iota // first station
	RoleB             // second station
	RoleC             // reference point observed from B
	RoleD             // reference point observed from A
	RoleTarget
)

// Roles lists every role in report order.
var Roles = [...]Role{RoleA, RoleB, RoleC, RoleD, RoleTarget}

var roleNames = [...]string{"A", "B", "C", "D", "Target"}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

// ParseRole accepts the role names case-insensitively.
func ParseRole(s string) (Role, error) {
	for i, name := range roleNames {
		if strings.EqualFold(s, name) {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("unknown point role %q", s)
}

// Model selects the geometry the engine works in.
type Model int

const (
	// ModelGeographic works on latitude/longitude over a spherical earth.
	ModelGeographic Model = iota
	// ModelPlanar works on projected easting/northing in one zone.
	ModelPlanar
)

func (m Model) String() string {
	if m == ModelPlanar {
		return "planar"
	}
	return "geographic"
}

// ParseModel accepts "geo"/"geographic" and "grid"/"planar".
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "geo", "geographic", "latlon":
		return ModelGeographic, nil
	case "grid", "planar", "projected":
		return ModelPlanar, nil
	}
	return 0, fmt.Errorf("unknown coordinate model %q", s)
}

func (m Model) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Model) UnmarshalText(b []byte) error {
	v, err := ParseModel(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Method selects the solving strategy.
type Method int

const (
	MethodAuto Method = iota
	// MethodTriangle closes the triangle A-B-FOS with the law of sines.
	MethodTriangle
	// MethodIntersection crosses the two rays (planar) or great circles.
	MethodIntersection
)

func (m Method) String() string {
	switch m {
	case MethodTriangle:
		return "triangle"
	case MethodIntersection:
		return "intersection"
	}
	return "auto"
}

// ParseMethod accepts "auto", "triangle" and "intersection".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return MethodAuto, nil
	case "triangle", "sines":
		return MethodTriangle, nil
	case "intersection", "intersect", "rays":
		return MethodIntersection, nil
	}
	return 0, fmt.Errorf("unknown method %q", s)
}

func (m Method) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Method) UnmarshalText(b []byte) error {
	v, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Observed holds bearings measured at the stations, in degrees from north.
// When present they replace the bearings derived from C and D.
type Observed struct {
	FromA float64 `json:"from_a" msgpack:"from_a"`
	FromB float64 `json:"from_b" msgpack:"from_b"`
}

// Input is one complete resection request. Only the point map matching Model
// is read.
type Input struct {
	Model    Model
	Method   Method
	Geo      map[Role]geomath.GeoPoint
	Grid     map[Role]planar.Point
	Observed *Observed

	// Zone applies to grid points that carry no zone of their own and pins
	// the zone geographic points are projected into.
	Zone planar.Zone
	// System overrides the engine's projected system.
	System coord.System
	// Precision is the digits per axis of grid references; 0 uses the
	// engine default.
	Precision int
}

// Angles are the interior angles of the triangle A-B-FOS in degrees.
type Angles struct {
	A   float64 `json:"a"`
	B   float64 `json:"b"`
	FOS float64 `json:"fos"`
}

// Bearings are the four station bearings used by the solve.
type Bearings struct {
	AB float64 `json:"ab"`
	AD float64 `json:"ad"`
	BA float64 `json:"ba"`
	BC float64 `json:"bc"`
}

// Location is one point in both representations.
type Location struct {
	Geo     geomath.GeoPoint `json:"geo"`
	Grid    planar.Point     `json:"grid"`
	GridRef string           `json:"grid_ref"`
	MGRS    string           `json:"mgrs,omitempty"`
}

// Result is the outcome of a successful solve. It is built fresh for each
// call and never modified afterwards.
type Result struct {
	Model     Model        `json:"model"`
	Method    Method       `json:"method"`
	System    coord.System `json:"system"`
	Precision int          `json:"precision"`

	FOS    Location `json:"fos"`
	Target Location `json:"target"`

	Angles       *Angles  `json:"angles,omitempty"`
	Bearings     Bearings `json:"bearings"`
	Baseline     float64  `json:"baseline_m"`
	DistanceAFOS float64  `json:"afos_m"`

	Correction Correction `json:"correction"`
	Report     Report     `json:"report"`
}
