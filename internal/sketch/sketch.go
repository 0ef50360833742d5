// Package sketch draws a resection as a small raster plan: the two stations,
// the baseline between them, the rays that meet at FOS, and the correction
// from FOS to the target.
package sketch

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/pspoerri/fosfix/internal/coord"
	"github.com/pspoerri/fosfix/internal/geomath"
	"github.com/pspoerri/fosfix/internal/planar"
	"github.com/pspoerri/fosfix/internal/resection"
)

const (
	DefaultSize = 512
	MinSize     = 64
	MaxSize     = 4096
)

// ErrInvalidSize is returned for canvas sizes outside MinSize-MaxSize.
var ErrInvalidSize = errors.New("sketch: invalid canvas size")

// Palette.
var (
	Background  = color.RGBA{255, 255, 255, 255}
	BaselineCol = color.RGBA{128, 128, 128, 255}
	RayACol     = color.RGBA{31, 119, 180, 255}
	RayBCol     = color.RGBA{214, 39, 40, 255}
	SightCol    = color.RGBA{200, 200, 200, 255}
	FOSCol      = color.RGBA{0, 0, 0, 255}
	TargetCol   = color.RGBA{44, 160, 44, 255}
	CorrCol     = color.RGBA{255, 127, 14, 255}
)

// Layout maps plan coordinates (meters east/north) to pixels.
type Layout struct {
	Size   int
	MinX   float64
	MinY   float64
	Scale  float64 // pixels per plan meter
	OffX   float64
	OffY   float64
	Ground float64 // ground meters per pixel
}

// Pixel returns the canvas position of plan point (x, y). The y axis is
// flipped so north is up.
func (l Layout) Pixel(x, y float64) (int, int) {
	px := l.OffX + (x-l.MinX)*l.Scale
	py := float64(l.Size) - l.OffY - (y-l.MinY)*l.Scale
	return int(math.Round(px)), int(math.Round(py))
}

// XY is a plan position in meters east and north.
type XY struct{ X, Y float64 }

// Plan holds the points of a solved resection in a common plane.
type Plan struct {
	Points map[resection.Role]XY
	FOS    XY
	// groundFactor converts plan meters to ground meters.
	groundFactor float64
}

// NewPlan places the stations of in and the FOS/target of res on a plane.
// Geographic points go through Web Mercator; grid points are used as is.
func NewPlan(res *resection.Result, in resection.Input) (*Plan, error) {
	if res == nil {
		return nil, errors.New("sketch: nil result")
	}
	p := &Plan{Points: make(map[resection.Role]XY, len(resection.Roles)), groundFactor: 1}

	switch res.Model {
	case resection.ModelGeographic:
		wm := &coord.WebMercatorProj{}
		project := func(g geomath.GeoPoint) (XY, error) {
			q, err := wm.FromWGS84(g.Lon, g.Lat, planar.Zone{})
			if err != nil {
				return XY{}, err
			}
			return XY{q.Easting, q.Northing}, nil
		}
		for role, g := range in.Geo {
			q, err := project(g)
			if err != nil {
				return nil, fmt.Errorf("sketch: point %s: %w", role, err)
			}
			p.Points[role] = q
		}
		fos, err := project(res.FOS.Geo)
		if err != nil {
			return nil, fmt.Errorf("sketch: FOS: %w", err)
		}
		p.FOS = fos
		if t, err := project(res.Target.Geo); err == nil {
			p.Points[resection.RoleTarget] = t
		}
		p.groundFactor = coord.ResolutionAtLat(res.FOS.Geo.Lat)
	default:
		for role, g := range in.Grid {
			p.Points[role] = XY{g.Easting, g.Northing}
		}
		p.FOS = XY{res.FOS.Grid.Easting, res.FOS.Grid.Northing}
		p.Points[resection.RoleTarget] = XY{res.Target.Grid.Easting, res.Target.Grid.Northing}
	}

	for role, q := range p.Points {
		if !finite(q.X) || !finite(q.Y) {
			return nil, fmt.Errorf("sketch: point %s is not finite", role)
		}
	}
	if _, ok := p.Points[resection.RoleA]; !ok {
		return nil, errors.New("sketch: station A missing")
	}
	if _, ok := p.Points[resection.RoleB]; !ok {
		return nil, errors.New("sketch: station B missing")
	}
	return p, nil
}

// Layout fits every point of the plan into a size x size canvas with a
// margin of one sixteenth of the canvas on each side.
func (p *Plan) Layout(size int) Layout {
	minX, minY := p.FOS.X, p.FOS.Y
	maxX, maxY := minX, minY
	for _, q := range p.Points {
		minX, maxX = math.Min(minX, q.X), math.Max(maxX, q.X)
		minY, maxY = math.Min(minY, q.Y), math.Max(maxY, q.Y)
	}
	span := math.Max(maxX-minX, maxY-minY)
	if span <= 0 {
		span = 1
	}
	margin := float64(size) / 16
	inner := float64(size) - 2*margin
	scale := inner / span
	return Layout{
		Size:   size,
		MinX:   minX,
		MinY:   minY,
		Scale:  scale,
		OffX:   margin + (inner-(maxX-minX)*scale)/2,
		OffY:   margin + (inner-(maxY-minY)*scale)/2,
		Ground: p.groundFactor / scale,
	}
}

// Render draws res on a size x size canvas taken from the canvas pool. A size
// of 0 selects DefaultSize. Callers may hand the image back with PutCanvas.
func Render(res *resection.Result, in resection.Input, size int) (*image.RGBA, Layout, error) {
	if size == 0 {
		size = DefaultSize
	}
	if size < MinSize || size > MaxSize {
		return nil, Layout{}, fmt.Errorf("%w: %d (want %d-%d)", ErrInvalidSize, size, MinSize, MaxSize)
	}
	plan, err := NewPlan(res, in)
	if err != nil {
		return nil, Layout{}, err
	}
	l := plan.Layout(size)

	img := GetCanvas(size, size)
	fill(img, Background)

	stroke := max(1, size/256)
	marker := max(3, size/64)
	at := func(q XY) [2]int {
		x, y := l.Pixel(q.X, q.Y)
		return [2]int{x, y}
	}

	a, b := plan.Points[resection.RoleA], plan.Points[resection.RoleB]
	if d, ok := plan.Points[resection.RoleD]; ok {
		line(img, at(a), at(d), SightCol, stroke)
	}
	if c, ok := plan.Points[resection.RoleC]; ok {
		line(img, at(b), at(c), SightCol, stroke)
	}
	line(img, at(a), at(b), BaselineCol, stroke)
	line(img, at(a), at(plan.FOS), RayACol, stroke)
	line(img, at(b), at(plan.FOS), RayBCol, stroke)

	t, hasTarget := plan.Points[resection.RoleTarget]
	if hasTarget {
		line(img, at(plan.FOS), at(t), CorrCol, stroke)
	}

	square(img, at(a), marker, RayACol)
	square(img, at(b), marker, RayBCol)
	if hasTarget {
		disc(img, at(t), marker, TargetCol)
	}
	disc(img, at(plan.FOS), marker, FOSCol)

	return img, l, nil
}

func fill(img *image.RGBA, c color.RGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
}

// line draws a Bresenham line with a square pen of width w.
func line(img *image.RGBA, p0, p1 [2]int, c color.RGBA, w int) {
	x0, y0 := p0[0], p0[1]
	x1, y1 := p1[0], p1[1]
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		pen(img, x0, y0, w, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func pen(img *image.RGBA, x, y, w int, c color.RGBA) {
	lo := -(w - 1) / 2
	for oy := lo; oy < lo+w; oy++ {
		for ox := lo; ox < lo+w; ox++ {
			set(img, x+ox, y+oy, c)
		}
	}
}

func square(img *image.RGBA, p [2]int, r int, c color.RGBA) {
	for y := p[1] - r; y <= p[1]+r; y++ {
		for x := p[0] - r; x <= p[0]+r; x++ {
			set(img, x, y, c)
		}
	}
}

func disc(img *image.RGBA, p [2]int, r int, c color.RGBA) {
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				set(img, p[0]+x, p[1]+y, c)
			}
		}
	}
}

func set(img *image.RGBA, x, y int, c color.RGBA) {
	if !(image.Point{x, y}.In(img.Rect)) {
		return
	}
	img.SetRGBA(x, y, c)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
