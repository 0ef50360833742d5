// Package resection locates an unknown point (FOS) from two known stations
// and the directions each of them observes, then derives a distance/bearing
// report and the correction from FOS to a target.
package resection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pspoerri/fosfix/internal/coord"
	"github.com/pspoerri/fosfix/internal/geomath"
	"github.com/pspoerri/fosfix/internal/logging"
	"github.com/pspoerri/fosfix/internal/planar"
)

// DefaultPrecision gives 10-figure (1 m) grid references.
const DefaultPrecision = coord.MaxPrecision

// minBaseline is the station separation in meters below which the stations
// are treated as coincident.
const minBaseline = 1e-6

// Recorder receives one observation per Solve call. outcome is "ok" or the
// error kind.
type Recorder interface {
	ObserveResection(model, method, outcome string, elapsed time.Duration)
}

// Config holds the engine's read-only defaults.
type Config struct {
	System    coord.System
	Precision int
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithTracer sets the tracer used for solve spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.rec = r }
}

// Engine solves resections. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	system    coord.System
	precision int
	log       logging.Logger
	tracer    trace.Tracer
	rec       Recorder
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	proj, err := coord.ForSystem(string(cfg.System))
	if err != nil {
		return nil, err
	}
	precision := cfg.Precision
	if precision == 0 {
		precision = DefaultPrecision
	}
	if precision < 1 || precision > coord.MaxPrecision {
		return nil, fmt.Errorf("precision %d outside 1-%d", precision, coord.MaxPrecision)
	}

	if err := checkSystem(proj, planar.Zone{}); err != nil {
		return nil, err
	}

	e := &Engine{
		system:    proj.System(),
		precision: precision,
		log:       logging.Noop(),
		tracer:    otel.Tracer("github.com/pspoerri/fosfix/internal/resection"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// System returns the engine's default projected system.
func (e *Engine) System() coord.System { return e.system }

// Precision returns the engine's default grid-reference precision.
func (e *Engine) Precision() int { return e.precision }

// ResolveMethod returns the strategy Solve uses for in.
func ResolveMethod(in Input) Method {
	if in.Method != MethodAuto {
		return in.Method
	}
	if in.Model == ModelGeographic && in.Observed == nil {
		return MethodTriangle
	}
	return MethodIntersection
}

// Solve locates FOS for in. Every failure is an *Error.
func (e *Engine) Solve(ctx context.Context, in Input) (*Result, error) {
	method := ResolveMethod(in)
	ctx, span := e.tracer.Start(ctx, "resection.Solve", trace.WithAttributes(
		attribute.String("fos.model", in.Model.String()),
		attribute.String("fos.method", method.String()),
	))
	defer span.End()

	start := time.Now()
	res, err := e.solve(ctx, in, method)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		e.log.Warn(ctx, "resection rejected",
			logging.String("model", in.Model.String()),
			logging.String("method", method.String()),
			logging.String("kind", outcome),
			logging.Err(err))
	} else {
		e.log.Debug(ctx, "resection solved",
			logging.String("model", in.Model.String()),
			logging.String("method", method.String()),
			logging.String("fos", res.FOS.Geo.String()),
			logging.Float("afos_m", res.DistanceAFOS))
	}
	if e.rec != nil {
		e.rec.ObserveResection(in.Model.String(), method.String(), outcome, elapsed)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) solve(ctx context.Context, in Input, method Method) (*Result, error) {
	system := in.System
	if system == "" {
		system = e.system
	}
	proj, err := coord.ForSystem(string(system))
	if err != nil {
		return nil, invalidInput("%v", err)
	}
	if err := checkSystem(proj, in.Zone); err != nil {
		return nil, err
	}
	precision := in.Precision
	if precision == 0 {
		precision = e.precision
	}
	if precision < 1 || precision > coord.MaxPrecision {
		return nil, invalidInput("precision %d outside 1-%d", precision, coord.MaxPrecision)
	}
	if in.Observed != nil {
		if !finite(in.Observed.FromA) || !finite(in.Observed.FromB) {
			return nil, invalidInput("observed bearings must be finite, got %v and %v",
				in.Observed.FromA, in.Observed.FromB)
		}
	}

	s := &solver{
		conv:      coord.NewConverter(proj),
		precision: precision,
		method:    method,
		in:        in,
	}

	var res *Result
	switch in.Model {
	case ModelGeographic:
		res, err = s.geographic()
	case ModelPlanar:
		res, err = s.planar()
	default:
		return nil, invalidInput("unknown coordinate model %d", int(in.Model))
	}
	if err != nil {
		return nil, err
	}
	res.Model = in.Model
	res.Method = method
	res.System = proj.System()
	res.Precision = precision
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Float64("fos.lat", res.FOS.Geo.Lat),
		attribute.Float64("fos.lon", res.FOS.Geo.Lon),
	)
	return res, nil
}

// solver carries one request through a single model branch.
type solver struct {
	conv      *coord.Converter
	precision int
	method    Method
	in        Input
}

func (s *solver) requiredRoles() []Role {
	if s.in.Observed != nil {
		return []Role{RoleA, RoleB, RoleTarget}
	}
	return []Role{RoleA, RoleB, RoleC, RoleD, RoleTarget}
}

func (s *solver) geographic() (*Result, error) {
	pts := s.in.Geo
	for _, role := range s.requiredRoles() {
		p, ok := pts[role]
		if !ok {
			return nil, invalidInput("point %s is missing", role)
		}
		if err := p.Validate(); err != nil {
			return nil, newError(KindInvalidInput, err, "point %s", role)
		}
	}
	a, b := pts[RoleA], pts[RoleB]

	baseline := geomath.Distance(a, b)
	if baseline < minBaseline {
		return nil, newError(KindZeroBaseline, nil, "stations A and B coincide at %s", a)
	}

	brg := Bearings{
		AB: geomath.InitialBearing(a, b),
		BA: geomath.InitialBearing(b, a),
	}
	if obs := s.in.Observed; obs != nil {
		brg.AD = geomath.NormalizeBearing(obs.FromA)
		brg.BC = geomath.NormalizeBearing(obs.FromB)
	} else {
		c, d := pts[RoleC], pts[RoleD]
		if geomath.Distance(a, d) < minBaseline {
			return nil, invalidInput("point D coincides with station A")
		}
		if geomath.Distance(b, c) < minBaseline {
			return nil, invalidInput("point C coincides with station B")
		}
		brg.AD = geomath.InitialBearing(a, d)
		brg.BC = geomath.InitialBearing(b, c)
	}

	res := &Result{Bearings: brg, Baseline: baseline}
	var fos geomath.GeoPoint
	switch s.method {
	case MethodTriangle:
		angles, afos, err := solveTriangle(brg, baseline)
		if err != nil {
			return nil, err
		}
		res.Angles = &angles
		fos = geomath.DestinationPoint(a, brg.AD, afos)
	case MethodIntersection:
		var err error
		if fos, err = intersectGeographic(a, b, brg); err != nil {
			return nil, err
		}
	default:
		return nil, invalidInput("unsupported method %s", s.method)
	}
	res.DistanceAFOS = geomath.Distance(a, fos)

	target := pts[RoleTarget]
	var err error
	if res.FOS, err = s.locateGeo(fos); err != nil {
		return nil, err
	}
	if res.Target, err = s.locateGeo(target); err != nil {
		return nil, err
	}

	res.Correction = GeographicCorrection(fos, target)
	res.Report = buildReport(func(role Role) (float64, float64, bool) {
		p, ok := pts[role]
		if !ok {
			return 0, 0, false
		}
		return geomath.Distance(fos, p), geomath.InitialBearing(fos, p), true
	})
	return res, nil
}

func (s *solver) planar() (*Result, error) {
	zoned := s.conv.Projection().System() == coord.SystemUTM

	pts := make(map[Role]planar.Point, len(s.in.Grid))
	for role, p := range s.in.Grid {
		if p.Zone.IsZero() {
			p.Zone = s.in.Zone
		}
		pts[role] = p
	}
	for _, role := range s.requiredRoles() {
		p, ok := pts[role]
		if !ok {
			return nil, invalidInput("point %s is missing", role)
		}
		if err := p.Validate(); err != nil {
			return nil, newError(KindInvalidInput, err, "point %s", role)
		}
		switch {
		case zoned && p.Zone.IsZero():
			return nil, invalidInput("point %s has no UTM zone", role)
		case !zoned && !p.Zone.IsZero():
			return nil, invalidInput("point %s: %s is a single-zone grid, got zone %s",
				role, s.conv.Projection().System(), p.Zone)
		}
	}
	a, b := pts[RoleA], pts[RoleB]
	for _, role := range Roles {
		if p, ok := pts[role]; ok && !p.Zone.Same(a.Zone) {
			return nil, invalidInput("point %s is in zone %s, station A in %s", role, p.Zone, a.Zone)
		}
	}

	baseline := planar.Distance(a, b)
	if baseline < minBaseline {
		return nil, newError(KindZeroBaseline, nil, "stations A and B coincide at %s", a)
	}

	brg := Bearings{
		AB: planar.Bearing(a, b),
		BA: planar.Bearing(b, a),
	}
	if obs := s.in.Observed; obs != nil {
		brg.AD = geomath.NormalizeBearing(obs.FromA)
		brg.BC = geomath.NormalizeBearing(obs.FromB)
	} else {
		c, d := pts[RoleC], pts[RoleD]
		if planar.Distance(a, d) < minBaseline {
			return nil, invalidInput("point D coincides with station A")
		}
		if planar.Distance(b, c) < minBaseline {
			return nil, invalidInput("point C coincides with station B")
		}
		brg.AD = planar.Bearing(a, d)
		brg.BC = planar.Bearing(b, c)
	}

	res := &Result{Bearings: brg, Baseline: baseline}
	var fos planar.Point
	switch s.method {
	case MethodTriangle:
		angles, afos, err := solveTriangle(brg, baseline)
		if err != nil {
			return nil, err
		}
		res.Angles = &angles
		fos = planar.Destination(a, brg.AD, afos)
	case MethodIntersection:
		var err error
		if fos, err = intersectPlanar(a, b, brg); err != nil {
			return nil, err
		}
	default:
		return nil, invalidInput("unsupported method %s", s.method)
	}
	res.DistanceAFOS = planar.Distance(a, fos)

	target := pts[RoleTarget]
	var err error
	if res.FOS, err = s.locateGrid(fos); err != nil {
		return nil, err
	}
	if res.Target, err = s.locateGrid(target); err != nil {
		return nil, err
	}

	res.Correction = PlanarCorrection(fos, target)
	res.Report = buildReport(func(role Role) (float64, float64, bool) {
		p, ok := pts[role]
		if !ok {
			return 0, 0, false
		}
		return planar.Distance(fos, p), planar.Bearing(fos, p), true
	})
	return res, nil
}

func (s *solver) locateGeo(g geomath.GeoPoint) (Location, error) {
	p, err := s.conv.ToProjected(g, s.in.Zone)
	if err != nil {
		return Location{}, conversionError(err, "projecting %s", g)
	}
	return s.locate(g, p)
}

func (s *solver) locateGrid(p planar.Point) (Location, error) {
	g, err := s.conv.ToGeographic(p)
	if err != nil {
		return Location{}, conversionError(err, "unprojecting %s", p)
	}
	if p.Zone.Band == 0 && s.conv.Projection().System() == coord.SystemUTM {
		if band, err := coord.BandLetter(g.Lat); err == nil {
			p.Zone.Band = band
		}
	}
	return s.locate(g, p)
}

func (s *solver) locate(g geomath.GeoPoint, p planar.Point) (Location, error) {
	loc := Location{Geo: g, Grid: p}
	var err error
	if loc.GridRef, err = coord.GridReference(p, s.precision); err != nil {
		return Location{}, conversionError(err, "grid reference for %s", p)
	}
	if s.conv.Projection().System() == coord.SystemUTM {
		if loc.MGRS, err = s.conv.MGRS(p, s.precision); err != nil {
			return Location{}, conversionError(err, "MGRS for %s", p)
		}
	}
	return loc, nil
}

// checkSystem rejects grids unsuitable for resection and zones given to
// single-zone grids.
func checkSystem(proj coord.Projection, zone planar.Zone) error {
	switch proj.System() {
	case coord.SystemUTM:
		return nil
	case coord.SystemWebMercator:
		return invalidInput("%s does not preserve distances and cannot be used for resection", proj.System())
	}
	if !zone.IsZero() {
		return invalidInput("%s is a single-zone grid, got zone %s", proj.System(), zone)
	}
	return nil
}

func conversionError(err error, format string, args ...any) *Error {
	kind := KindInvalidInput
	if errors.Is(err, coord.ErrOutOfDomain) {
		kind = KindConversionOutOfDomain
	}
	return newError(kind, err, format, args...)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
