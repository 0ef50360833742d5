// Package api defines the request and response documents shared by the CLI
// scenario files, the HTTP API and the NATS responder.
package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"

	"github.com/pspoerri/fosfix/internal/coord"
	"github.com/pspoerri/fosfix/internal/geomath"
	"github.com/pspoerri/fosfix/internal/planar"
	"github.com/pspoerri/fosfix/internal/resection"
)

// Point is one input coordinate pair. Geographic requests set Lat/Lon, grid
// requests Easting/Northing with an optional per-point zone.
type Point struct {
	Lat      *float64 `json:"lat,omitempty" msgpack:"lat,omitempty" mapstructure:"lat"`
	Lon      *float64 `json:"lon,omitempty" msgpack:"lon,omitempty" mapstructure:"lon"`
	Easting  *float64 `json:"easting,omitempty" msgpack:"easting,omitempty" mapstructure:"easting"`
	Northing *float64 `json:"northing,omitempty" msgpack:"northing,omitempty" mapstructure:"northing"`
	Zone     string   `json:"zone,omitempty" msgpack:"zone,omitempty" mapstructure:"zone"`
}

// Geo returns a geographic point.
func Geo(lat, lon float64) Point { return Point{Lat: &lat, Lon: &lon} }

// Grid returns a projected point.
func Grid(easting, northing float64) Point { return Point{Easting: &easting, Northing: &northing} }

// Observed carries bearings measured at the two stations.
type Observed struct {
	FromA float64 `json:"from_a" msgpack:"from_a" mapstructure:"from_a"`
	FromB float64 `json:"from_b" msgpack:"from_b" mapstructure:"from_b"`
}

// ResectRequest is the wire form of resection.Input. Points are keyed by role
// name (A, B, C, D, Target; case-insensitive).
type ResectRequest struct {
	Model     string           `json:"model" msgpack:"model" mapstructure:"model"`
	Method    string           `json:"method,omitempty" msgpack:"method,omitempty" mapstructure:"method"`
	System    string           `json:"system,omitempty" msgpack:"system,omitempty" mapstructure:"system"`
	Zone      string           `json:"zone,omitempty" msgpack:"zone,omitempty" mapstructure:"zone"`
	Precision int              `json:"precision,omitempty" msgpack:"precision,omitempty" mapstructure:"precision"`
	Points    map[string]Point `json:"points" msgpack:"points" mapstructure:"points"`
	Observed  *Observed        `json:"observed,omitempty" msgpack:"observed,omitempty" mapstructure:"observed"`
}

// Input validates the request shape and converts it to an engine input.
// Range checks on the values themselves are left to the engine.
func (r ResectRequest) Input() (resection.Input, error) {
	var in resection.Input
	var err error

	if in.Model, err = resection.ParseModel(r.Model); err != nil {
		return in, invalid(err)
	}
	if in.Method, err = resection.ParseMethod(r.Method); err != nil {
		return in, invalid(err)
	}
	in.System = coord.System(r.System)
	in.Precision = r.Precision
	if r.Zone != "" {
		if in.Zone, err = planar.ParseZone(r.Zone); err != nil {
			return in, invalid(err)
		}
	}
	if r.Observed != nil {
		in.Observed = &resection.Observed{FromA: r.Observed.FromA, FromB: r.Observed.FromB}
	}

	// Sorted for deterministic error messages.
	names := make([]string, 0, len(r.Points))
	for name := range r.Points {
		names = append(names, name)
	}
	sort.Strings(names)

	switch in.Model {
	case resection.ModelGeographic:
		in.Geo = make(map[resection.Role]geomath.GeoPoint, len(names))
	case resection.ModelPlanar:
		in.Grid = make(map[resection.Role]planar.Point, len(names))
	}
	for _, name := range names {
		role, err := resection.ParseRole(name)
		if err != nil {
			return in, invalid(err)
		}
		p := r.Points[name]
		switch in.Model {
		case resection.ModelGeographic:
			if p.Lat == nil || p.Lon == nil {
				return in, invalid(fmt.Errorf("point %s needs lat and lon", role))
			}
			in.Geo[role] = geomath.GeoPoint{Lat: *p.Lat, Lon: *p.Lon}
		case resection.ModelPlanar:
			if p.Easting == nil || p.Northing == nil {
				return in, invalid(fmt.Errorf("point %s needs easting and northing", role))
			}
			gp := planar.Point{Easting: *p.Easting, Northing: *p.Northing}
			if p.Zone != "" {
				if gp.Zone, err = planar.ParseZone(p.Zone); err != nil {
					return in, invalid(fmt.Errorf("point %s: %w", role, err))
				}
			}
			in.Grid[role] = gp
		}
	}
	return in, nil
}

func invalid(err error) error {
	return &resection.Error{Kind: resection.KindInvalidInput, Msg: "invalid request", Err: err}
}

// Location mirrors resection.Location.
type Location struct {
	Lat      float64 `json:"lat" msgpack:"lat"`
	Lon      float64 `json:"lon" msgpack:"lon"`
	Easting  float64 `json:"easting" msgpack:"easting"`
	Northing float64 `json:"northing" msgpack:"northing"`
	Zone     string  `json:"zone,omitempty" msgpack:"zone,omitempty"`
	GridRef  string  `json:"grid_ref" msgpack:"grid_ref"`
	MGRS     string  `json:"mgrs,omitempty" msgpack:"mgrs,omitempty"`
}

// ReportEntry mirrors resection.ReportEntry with the role spelled out.
type ReportEntry struct {
	Point       string  `json:"point" msgpack:"point"`
	Distance    float64 `json:"distance_m" msgpack:"distance_m"`
	Bearing     float64 `json:"bearing" msgpack:"bearing"`
	BackBearing float64 `json:"back_bearing" msgpack:"back_bearing"`
}

// ResectResponse is the msgpack-friendly form of resection.Result; the
// report is a slice in role order.
type ResectResponse struct {
	Model      string               `json:"model" msgpack:"model"`
	Method     string               `json:"method" msgpack:"method"`
	System     string               `json:"system" msgpack:"system"`
	Precision  int                  `json:"precision" msgpack:"precision"`
	FOS        Location             `json:"fos" msgpack:"fos"`
	Target     Location             `json:"target" msgpack:"target"`
	Angles     []float64            `json:"angles,omitempty" msgpack:"angles,omitempty"` // A, B, FOS
	Bearings   map[string]float64   `json:"bearings" msgpack:"bearings"`
	BaselineM  float64              `json:"baseline_m" msgpack:"baseline_m"`
	AFOSM      float64              `json:"afos_m" msgpack:"afos_m"`
	Correction resection.Correction `json:"correction" msgpack:"correction"`
	Report     []ReportEntry        `json:"report" msgpack:"report"`
}

// NewResectResponse flattens a Result.
func NewResectResponse(res *resection.Result) ResectResponse {
	out := ResectResponse{
		Model:     res.Model.String(),
		Method:    res.Method.String(),
		System:    string(res.System),
		Precision: res.Precision,
		FOS:       newLocation(res.FOS),
		Target:    newLocation(res.Target),
		Bearings: map[string]float64{
			"AB": res.Bearings.AB,
			"AD": res.Bearings.AD,
			"BA": res.Bearings.BA,
			"BC": res.Bearings.BC,
		},
		BaselineM:  res.Baseline,
		AFOSM:      res.DistanceAFOS,
		Correction: res.Correction,
	}
	if res.Angles != nil {
		out.Angles = []float64{res.Angles.A, res.Angles.B, res.Angles.FOS}
	}
	for _, e := range res.Report.Entries {
		out.Report = append(out.Report, ReportEntry{
			Point:       e.Role.String(),
			Distance:    e.Distance,
			Bearing:     e.Bearing,
			BackBearing: e.BackBearing,
		})
	}
	return out
}

func newLocation(l resection.Location) Location {
	return Location{
		Lat:      l.Geo.Lat,
		Lon:      l.Geo.Lon,
		Easting:  l.Grid.Easting,
		Northing: l.Grid.Northing,
		Zone:     l.Grid.Zone.String(),
		GridRef:  l.GridRef,
		MGRS:     l.MGRS,
	}
}

// ErrorResponse is the body returned for any failed request.
type ErrorResponse struct {
	Code    int    `json:"code" msgpack:"code"`
	Kind    string `json:"kind" msgpack:"kind"`
	Message string `json:"message" msgpack:"message"`
}

// NewErrorResponse classifies err.
func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{
		Code:    StatusCode(err),
		Kind:    resection.KindOf(err).String(),
		Message: err.Error(),
	}
}

// StatusCode maps an error to an HTTP status: malformed input is 400,
// geometry with no unique FOS is 422, anything else 500.
func StatusCode(err error) int {
	kind := resection.KindOf(err)
	switch {
	case err == nil:
		return http.StatusOK
	case kind == resection.KindInvalidInput:
		return http.StatusBadRequest
	case kind.Geometric():
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// ConvertRequest converts one point between geographic and grid form. Exactly
// one of Lat/Lon or Easting/Northing must be set.
type ConvertRequest struct {
	System    string `json:"system,omitempty" msgpack:"system,omitempty"`
	Zone      string `json:"zone,omitempty" msgpack:"zone,omitempty"`
	Precision int    `json:"precision,omitempty" msgpack:"precision,omitempty"`
	Point
}

// Convert runs a ConvertRequest. Empty system and precision fall back to
// the given defaults.
func Convert(req ConvertRequest, system coord.System, precision int) (Location, error) {
	if req.System != "" {
		system = coord.System(req.System)
	}
	if req.Precision != 0 {
		precision = req.Precision
	}
	proj, err := coord.ForSystem(string(system))
	if err != nil {
		return Location{}, invalid(err)
	}
	var zone planar.Zone
	if req.Zone != "" {
		if zone, err = planar.ParseZone(req.Zone); err != nil {
			return Location{}, invalid(err)
		}
	}
	conv := coord.NewConverter(proj)

	var loc resection.Location
	switch {
	case req.Lat != nil && req.Lon != nil && req.Easting == nil && req.Northing == nil:
		loc.Geo = geomath.GeoPoint{Lat: *req.Lat, Lon: *req.Lon}
		if err := loc.Geo.Validate(); err != nil {
			return Location{}, invalid(err)
		}
		if loc.Grid, err = conv.ToProjected(loc.Geo, zone); err != nil {
			return Location{}, outOfDomain(err)
		}
	case req.Easting != nil && req.Northing != nil && req.Lat == nil && req.Lon == nil:
		if proj.System() == coord.SystemUTM && zone.IsZero() {
			return Location{}, invalid(errors.New("UTM grid coordinates need a zone"))
		}
		loc.Grid = planar.Point{Easting: *req.Easting, Northing: *req.Northing, Zone: zone}
		if err := loc.Grid.Validate(); err != nil {
			return Location{}, invalid(err)
		}
		if loc.Geo, err = conv.ToGeographic(loc.Grid); err != nil {
			return Location{}, outOfDomain(err)
		}
	default:
		return Location{}, invalid(errors.New("set either lat/lon or easting/northing"))
	}

	if loc.GridRef, err = coord.GridReference(loc.Grid, precision); err != nil {
		return Location{}, invalid(err)
	}
	if proj.System() == coord.SystemUTM && math.Abs(loc.Geo.Lat) <= 84 {
		if loc.MGRS, err = conv.MGRS(loc.Grid, precision); err != nil {
			return Location{}, outOfDomain(err)
		}
	}
	return newLocation(loc), nil
}

func outOfDomain(err error) error {
	kind := resection.KindInvalidInput
	if errors.Is(err, coord.ErrOutOfDomain) {
		kind = resection.KindConversionOutOfDomain
	}
	return &resection.Error{Kind: kind, Msg: "conversion failed", Err: err}
}
