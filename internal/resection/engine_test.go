package resection

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pspoerri/fosfix/internal/coord"
	"github.com/pspoerri/fosfix/internal/geomath"
	"github.com/pspoerri/fosfix/internal/planar"
)

var zone43N = planar.Zone{Number: 43, North: true}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(Config{}, opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// symmetricGrid is the isosceles layout: lines at 45° from A and 135° from
// B cross at (502500, 4002500).
func symmetricGrid() map[Role]planar.Point {
	return map[Role]planar.Point{
		RoleA:      {Easting: 500000, Northing: 4000000},
		RoleB:      {Easting: 505000, Northing: 4000000},
		RoleD:      {Easting: 501000, Northing: 4001000}, // 45° from A
		RoleC:      {Easting: 506000, Northing: 3999000}, // 135° from B
		RoleTarget: {Easting: 503000, Northing: 4003000},
	}
}

// delhiGeo builds C and D on the great circles from B and A through a
// known FOS.
func delhiGeo() (map[Role]geomath.GeoPoint, geomath.GeoPoint) {
	a := geomath.GeoPoint{Lat: 28.6139, Lon: 77.2090}
	b := geomath.GeoPoint{Lat: 28.7041, Lon: 77.1025}
	fos := geomath.GeoPoint{Lat: 28.70, Lon: 77.30}

	d := geomath.DestinationPoint(a, geomath.InitialBearing(a, fos), 2*geomath.Distance(a, fos))
	c := geomath.DestinationPoint(b, geomath.InitialBearing(b, fos), 2*geomath.Distance(b, fos))
	return map[Role]geomath.GeoPoint{
		RoleA:      a,
		RoleB:      b,
		RoleC:      c,
		RoleD:      d,
		RoleTarget: {Lat: 28.71, Lon: 77.31},
	}, fos
}

func wantKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("got nil error, want %s", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("KindOf(%v) = %s, want %s", err, got, want)
	}
}

func TestSolve_PlanarSymmetric(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Solve(context.Background(), Input{
		Model: ModelPlanar,
		Grid:  symmetricGrid(),
		Zone:  zone43N,
	})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if res.Method != MethodIntersection {
		t.Errorf("method = %s, want intersection", res.Method)
	}
	if math.Abs(res.FOS.Grid.Easting-502500) > 1e-6 || math.Abs(res.FOS.Grid.Northing-4002500) > 1e-6 {
		t.Errorf("FOS = %v, want E 502500 N 4002500", res.FOS.Grid)
	}
	if math.Abs(res.Baseline-5000) > 1e-9 {
		t.Errorf("baseline = %v, want 5000", res.Baseline)
	}
	if want := 2500 * math.Sqrt2; math.Abs(res.DistanceAFOS-want) > 1e-6 {
		t.Errorf("AFOS = %v, want %v", res.DistanceAFOS, want)
	}
	if res.Angles != nil {
		t.Errorf("intersection produced triangle angles %+v", res.Angles)
	}
	if res.FOS.GridRef != "02500 02500" {
		t.Errorf("FOS grid ref = %q, want %q", res.FOS.GridRef, "02500 02500")
	}
	if res.FOS.MGRS != "43SEA0250002500" {
		t.Errorf("FOS MGRS = %q, want 43SEA0250002500", res.FOS.MGRS)
	}
	if res.FOS.Geo.Lat < 36 || res.FOS.Geo.Lat > 36.3 || math.Abs(res.FOS.Geo.Lon-75.0279) > 0.01 {
		t.Errorf("FOS geo = %v, want about 36.16N 75.03E", res.FOS.Geo)
	}

	c := res.Correction
	if c.NorthDirection != DirUp || c.EastDirection != DirRight {
		t.Errorf("directions = %s/%s, want %s/%s", c.NorthDirection, c.EastDirection, DirUp, DirRight)
	}
	if math.Abs(c.North-500) > 1e-6 || math.Abs(c.East-500) > 1e-6 {
		t.Errorf("correction = %+v, want +500/+500", c)
	}

	if len(res.Report.Entries) != len(Roles) {
		t.Fatalf("report has %d entries, want %d", len(res.Report.Entries), len(Roles))
	}
	for i, entry := range res.Report.Entries {
		if entry.Role != Roles[i] {
			t.Errorf("report[%d] = %s, want %s", i, entry.Role, Roles[i])
		}
	}
	ea, _ := res.Report.Get(RoleA)
	if math.Abs(ea.Distance-res.DistanceAFOS) > 1e-9 {
		t.Errorf("report A distance = %v, want %v", ea.Distance, res.DistanceAFOS)
	}
	if math.Abs(ea.Bearing-225) > 1e-9 || math.Abs(ea.BackBearing-45) > 1e-9 {
		t.Errorf("report A bearing/back = %v/%v, want 225/45", ea.Bearing, ea.BackBearing)
	}
}

func TestSolve_PlanarObservedBearings(t *testing.T) {
	e := newTestEngine(t)
	grid := symmetricGrid()
	delete(grid, RoleC)
	delete(grid, RoleD)

	res, err := e.Solve(context.Background(), Input{
		Model:    ModelPlanar,
		Grid:     grid,
		Zone:     zone43N,
		Observed: &Observed{FromA: 45, FromB: -225},
	})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if math.Abs(res.FOS.Grid.Easting-502500) > 1e-6 || math.Abs(res.FOS.Grid.Northing-4002500) > 1e-6 {
		t.Errorf("FOS = %v, want E 502500 N 4002500", res.FOS.Grid)
	}
	if res.Bearings.BC != 135 {
		t.Errorf("normalized B bearing = %v, want 135", res.Bearings.BC)
	}
	if len(res.Report.Entries) != 3 {
		t.Errorf("report has %d entries, want A, B and Target", len(res.Report.Entries))
	}
}

func TestSolve_PlanarTriangleMatchesIntersection(t *testing.T) {
	e := newTestEngine(t)
	grid := map[Role]planar.Point{
		RoleA:      {Easting: 500000, Northing: 4000000},
		RoleB:      {Easting: 505000, Northing: 4000000},
		RoleD:      {Easting: 501000, Northing: 4002000},
		RoleC:      {Easting: 504000, Northing: 4001500},
		RoleTarget: {Easting: 502000, Northing: 4001000},
	}

	tri, err := e.Solve(context.Background(), Input{Model: ModelPlanar, Method: MethodTriangle, Grid: grid, Zone: zone43N})
	if err != nil {
		t.Fatalf("triangle: %v", err)
	}
	isect, err := e.Solve(context.Background(), Input{Model: ModelPlanar, Method: MethodIntersection, Grid: grid, Zone: zone43N})
	if err != nil {
		t.Fatalf("intersection: %v", err)
	}
	if d := planar.Distance(tri.FOS.Grid, isect.FOS.Grid); d > 1e-6 {
		t.Errorf("triangle and intersection FOS differ by %v m", d)
	}
	if tri.Angles == nil {
		t.Fatal("triangle result has no angles")
	}
	if sum := tri.Angles.A + tri.Angles.B + tri.Angles.FOS; math.Abs(sum-180) > 1e-9 {
		t.Errorf("angles sum to %v", sum)
	}
}

func TestSolve_LV95(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Solve(context.Background(), Input{
		Model:  ModelPlanar,
		System: "lv95",
		Grid: map[Role]planar.Point{
			RoleA:      {Easting: 2600000, Northing: 1200000},
			RoleB:      {Easting: 2605000, Northing: 1200000},
			RoleD:      {Easting: 2601000, Northing: 1201000},
			RoleC:      {Easting: 2606000, Northing: 1199000},
			RoleTarget: {Easting: 2602000, Northing: 1202000},
		},
	})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.FOS.GridRef != "02500 02500" {
		t.Errorf("grid ref = %q", res.FOS.GridRef)
	}
	if res.FOS.MGRS != "" {
		t.Errorf("LV95 result carries MGRS %q", res.FOS.MGRS)
	}
	if res.Correction.NorthDirection != DirDown || res.Correction.EastDirection != DirLeft {
		t.Errorf("correction = %+v, want Down/Drop and Left", res.Correction)
	}
	if math.Abs(res.Correction.North+500) > 1e-6 || math.Abs(res.Correction.East+500) > 1e-6 {
		t.Errorf("correction = %+v, want -500/-500", res.Correction)
	}
}

func TestSolve_GeographicTriangle(t *testing.T) {
	e := newTestEngine(t)
	pts, want := delhiGeo()

	res, err := e.Solve(context.Background(), Input{Model: ModelGeographic, Geo: pts})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Method != MethodTriangle {
		t.Errorf("method = %s, want triangle", res.Method)
	}
	// Planar law of sines on a sphere: off by the spherical excess.
	if d := geomath.Distance(res.FOS.Geo, want); d > 5 {
		t.Errorf("FOS %v is %.3f m from %v", res.FOS.Geo, d, want)
	}
	if res.Angles == nil {
		t.Fatal("no angles")
	}
	for name, v := range map[string]float64{"A": res.Angles.A, "B": res.Angles.B, "FOS": res.Angles.FOS} {
		if v <= 0 || v >= 180 {
			t.Errorf("angle %s = %v, want in (0, 180)", name, v)
		}
	}
	if !strings.HasPrefix(res.FOS.MGRS, "43R") || len(res.FOS.MGRS) != 15 {
		t.Errorf("FOS MGRS = %q, want a 10-figure 43R reference", res.FOS.MGRS)
	}
	if math.Abs(res.Baseline-geomath.Distance(pts[RoleA], pts[RoleB])) > 1e-9 {
		t.Errorf("baseline = %v", res.Baseline)
	}
}

func TestSolve_GeographicAndPlanarMGRSAgree(t *testing.T) {
	e := newTestEngine(t)
	pts, _ := delhiGeo()

	geo, err := e.Solve(context.Background(), Input{Model: ModelGeographic, Method: MethodIntersection, Geo: pts})
	if err != nil {
		t.Fatalf("geographic: %v", err)
	}

	conv := coord.NewConverter(&coord.UTM{})
	grid := make(map[Role]planar.Point, len(pts))
	for role, p := range pts {
		g, err := conv.ToProjected(p, zone43N)
		if err != nil {
			t.Fatalf("ToProjected(%s): %v", role, err)
		}
		grid[role] = g
	}
	flat, err := e.Solve(context.Background(), Input{Model: ModelPlanar, Method: MethodIntersection, Grid: grid, Zone: zone43N})
	if err != nil {
		t.Fatalf("planar: %v", err)
	}

	g, p := geo.FOS.MGRS, flat.FOS.MGRS
	if len(g) != 15 || len(p) != 15 {
		t.Fatalf("MGRS lengths: geographic %q, planar %q", g, p)
	}
	if g[:5] != "43RGM" || p[:5] != g[:5] {
		t.Errorf("grid zone and square differ: geographic %q, planar %q", g, p)
	}
	// Straight grid lines and great circles part by about a meter here.
	for _, span := range [][2]int{{5, 10}, {10, 15}} {
		gv, _ := strconv.Atoi(g[span[0]:span[1]])
		pv, _ := strconv.Atoi(p[span[0]:span[1]])
		if d := gv - pv; d < -3 || d > 3 {
			t.Errorf("MGRS digits %q and %q differ by %d m", g, p, d)
		}
	}
	if geo.Target.MGRS[:3] != "43R" {
		t.Errorf("target MGRS = %q, want band R", geo.Target.MGRS)
	}
}

func TestSolve_GeographicIntersection(t *testing.T) {
	e := newTestEngine(t)
	pts, want := delhiGeo()

	res, err := e.Solve(context.Background(), Input{Model: ModelGeographic, Method: MethodIntersection, Geo: pts})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if d := geomath.Distance(res.FOS.Geo, want); d > 0.01 {
		t.Errorf("FOS %v is %.4f m from %v", res.FOS.Geo, d, want)
	}

	tri, err := e.Solve(context.Background(), Input{Model: ModelGeographic, Method: MethodTriangle, Geo: pts})
	if err != nil {
		t.Fatalf("triangle: %v", err)
	}
	if d := geomath.Distance(res.FOS.Geo, tri.FOS.Geo); d > 5 {
		t.Errorf("triangle and great-circle FOS differ by %.3f m", d)
	}
}

func TestSolve_GeographicObservedUsesIntersection(t *testing.T) {
	e := newTestEngine(t)
	pts, want := delhiGeo()

	obs := &Observed{
		FromA: geomath.InitialBearing(pts[RoleA], want),
		FromB: geomath.InitialBearing(pts[RoleB], want),
	}
	delete(pts, RoleC)
	delete(pts, RoleD)

	res, err := e.Solve(context.Background(), Input{Model: ModelGeographic, Geo: pts, Observed: obs})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Method != MethodIntersection {
		t.Errorf("method = %s, want intersection", res.Method)
	}
	if d := geomath.Distance(res.FOS.Geo, want); d > 0.01 {
		t.Errorf("FOS is %.4f m from %v", d, want)
	}
}

func TestSolve_GeometricFailures(t *testing.T) {
	e := newTestEngine(t)
	equator := func(lons ...float64) map[Role]geomath.GeoPoint {
		m := map[Role]geomath.GeoPoint{}
		for i, lon := range lons {
			m[Roles[i]] = geomath.GeoPoint{Lat: 0, Lon: lon}
		}
		return m
	}

	tests := []struct {
		name string
		in   Input
		want Kind
	}{
		{
			name: "planar zero baseline",
			in: Input{Model: ModelPlanar, Zone: zone43N, Grid: map[Role]planar.Point{
				RoleA: {Easting: 500000, Northing: 4000000}, RoleB: {Easting: 500000, Northing: 4000000},
				RoleC: {Easting: 501000, Northing: 4001000}, RoleD: {Easting: 499000, Northing: 4001000},
				RoleTarget: {Easting: 500000, Northing: 4002000},
			}},
			want: KindZeroBaseline,
		},
		{
			name: "geographic zero baseline",
			in:   Input{Model: ModelGeographic, Geo: equator(0, 0, 1, 2, 3)},
			want: KindZeroBaseline,
		},
		{
			name: "planar D on the baseline",
			in: Input{Model: ModelPlanar, Method: MethodTriangle, Zone: zone43N, Grid: map[Role]planar.Point{
				RoleA: {Easting: 500000, Northing: 4000000}, RoleB: {Easting: 505000, Northing: 4000000},
				RoleC: {Easting: 502500, Northing: 4002500}, RoleD: {Easting: 510000, Northing: 4000000},
				RoleTarget: {Easting: 500000, Northing: 4002000},
			}},
			want: KindDegenerateTriangle,
		},
		{
			name: "geographic D on the baseline",
			in: Input{Model: ModelGeographic, Geo: map[Role]geomath.GeoPoint{
				RoleA: {Lat: 0, Lon: 0}, RoleB: {Lat: 0, Lon: 1},
				RoleC: {Lat: 1, Lon: 0.5}, RoleD: {Lat: 0, Lon: 2},
				RoleTarget: {Lat: 0.5, Lon: 0.5},
			}},
			want: KindDegenerateTriangle,
		},
		{
			name: "rays on opposite sides",
			in: Input{Model: ModelPlanar, Method: MethodTriangle, Zone: zone43N, Grid: map[Role]planar.Point{
				RoleA: {Easting: 500000, Northing: 4000000}, RoleB: {Easting: 505000, Northing: 4000000},
				RoleD: {Easting: 502500, Northing: 4002500}, RoleC: {Easting: 502500, Northing: 3997500},
				RoleTarget: {Easting: 500000, Northing: 4002000},
			}},
			want: KindDegenerateTriangle,
		},
		{
			name: "planar parallel",
			in: Input{Model: ModelPlanar, Zone: zone43N, Observed: &Observed{FromA: 45, FromB: 45}, Grid: map[Role]planar.Point{
				RoleA: {Easting: 500000, Northing: 4000000}, RoleB: {Easting: 505000, Northing: 4000000},
				RoleTarget: {Easting: 500000, Northing: 4002000},
			}},
			want: KindParallelRays,
		},
		{
			name: "planar anti-parallel",
			in: Input{Model: ModelPlanar, Zone: zone43N, Observed: &Observed{FromA: 10, FromB: 190}, Grid: map[Role]planar.Point{
				RoleA: {Easting: 500000, Northing: 4000000}, RoleB: {Easting: 505000, Northing: 4000000},
				RoleTarget: {Easting: 500000, Northing: 4002000},
			}},
			want: KindParallelRays,
		},
		{
			name: "same great circle",
			in:   Input{Model: ModelGeographic, Observed: &Observed{FromA: 90, FromB: 90}, Geo: equator(0, 1, 0, 0, 3)},
			want: KindParallelRays,
		},
		{
			name: "diverging great circles",
			in:   Input{Model: ModelGeographic, Observed: &Observed{FromA: 0, FromB: 180}, Geo: equator(0, 1, 0, 0, 3)},
			want: KindNoSphericalIntersection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Solve(context.Background(), tt.in)
			wantKind(t, err, tt.want)
			if !KindOf(err).Geometric() {
				t.Errorf("%s not reported as geometric", KindOf(err))
			}
		})
	}
}

func TestSolve_DegenerateReportsAngles(t *testing.T) {
	e := newTestEngine(t)
	grid := symmetricGrid()
	grid[RoleD] = planar.Point{Easting: 510000, Northing: 4000000}

	_, err := e.Solve(context.Background(), Input{Model: ModelPlanar, Method: MethodTriangle, Grid: grid, Zone: zone43N})
	wantKind(t, err, KindDegenerateTriangle)

	var rerr *Error
	if !errors.As(err, &rerr) || rerr.Angles == nil {
		t.Fatalf("error %v carries no angles", err)
	}
	for _, part := range []string{"A=0.000000°", "B=", "FOS="} {
		if !strings.Contains(err.Error(), part) {
			t.Errorf("message %q lacks %q", err.Error(), part)
		}
	}
}

func TestSolve_InvalidInput(t *testing.T) {
	e := newTestEngine(t)
	pts, _ := delhiGeo()
	missingC := map[Role]geomath.GeoPoint{}
	for k, v := range pts {
		if k != RoleC {
			missingC[k] = v
		}
	}
	badLat := map[Role]geomath.GeoPoint{}
	for k, v := range pts {
		badLat[k] = v
	}
	badLat[RoleTarget] = geomath.GeoPoint{Lat: 95, Lon: 0}

	noZone := symmetricGrid()
	mixed := symmetricGrid()
	mixed[RoleTarget] = planar.Point{Easting: 503000, Northing: 4003000, Zone: planar.Zone{Number: 44, North: true}}

	tests := []struct {
		name string
		in   Input
	}{
		{"missing C", Input{Model: ModelGeographic, Geo: missingC}},
		{"latitude out of range", Input{Model: ModelGeographic, Geo: badLat}},
		{"unknown system", Input{Model: ModelGeographic, Geo: pts, System: "osgb"}},
		{"web mercator", Input{Model: ModelGeographic, Geo: pts, System: "webmercator"}},
		{"zone on single-zone grid", Input{Model: ModelGeographic, Geo: pts, System: "lv95", Zone: zone43N}},
		{"precision", Input{Model: ModelGeographic, Geo: pts, Precision: 9}},
		{"no zone", Input{Model: ModelPlanar, Grid: noZone}},
		{"mixed zones", Input{Model: ModelPlanar, Grid: mixed, Zone: zone43N}},
		{"NaN bearing", Input{Model: ModelGeographic, Geo: pts, Observed: &Observed{FromA: math.NaN(), FromB: 10}}},
		{"unknown model", Input{Model: Model(7), Geo: pts}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Solve(context.Background(), tt.in)
			wantKind(t, err, KindInvalidInput)
		})
	}
}

func TestSolve_ConversionOutOfDomain(t *testing.T) {
	e := newTestEngine(t)
	pts, _ := delhiGeo()

	_, err := e.Solve(context.Background(), Input{Model: ModelGeographic, Geo: pts, System: "lv95"})
	wantKind(t, err, KindConversionOutOfDomain)
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (f *fakeRecorder) ObserveResection(model, method, outcome string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, model+"/"+method+"/"+outcome)
}

func TestSolve_RecordsOutcome(t *testing.T) {
	rec := &fakeRecorder{}
	e := newTestEngine(t, WithRecorder(rec))

	if _, err := e.Solve(context.Background(), Input{Model: ModelPlanar, Grid: symmetricGrid(), Zone: zone43N}); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	_, _ = e.Solve(context.Background(), Input{Model: ModelPlanar, Grid: symmetricGrid()})

	want := []string{"planar/intersection/ok", "planar/intersection/invalid_input"}
	if len(rec.outcomes) != len(want) {
		t.Fatalf("outcomes = %v, want %v", rec.outcomes, want)
	}
	for i := range want {
		if rec.outcomes[i] != want[i] {
			t.Errorf("outcome[%d] = %q, want %q", i, rec.outcomes[i], want[i])
		}
	}
}

func TestSolve_Concurrent(t *testing.T) {
	e := newTestEngine(t)
	pts, _ := delhiGeo()

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := e.Solve(context.Background(), Input{Model: ModelGeographic, Geo: pts})
			if err != nil {
				t.Errorf("Solve: %v", err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()
	for _, r := range results[1:] {
		if r != nil && results[0] != nil && r.FOS.Geo != results[0].FOS.Geo {
			t.Errorf("concurrent solves disagree: %v vs %v", r.FOS.Geo, results[0].FOS.Geo)
		}
	}
}

func TestNewEngine_Rejects(t *testing.T) {
	if _, err := NewEngine(Config{System: "osgb"}); err == nil {
		t.Error("unknown system accepted")
	}
	if _, err := NewEngine(Config{Precision: 6}); err == nil {
		t.Error("precision 6 accepted")
	}
	if _, err := NewEngine(Config{System: "webmercator"}); err == nil {
		t.Error("web mercator accepted")
	}
}
