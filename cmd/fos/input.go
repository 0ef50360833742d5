package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pspoerri/fosfix/internal/api"
	"github.com/pspoerri/fosfix/internal/resection"
)

// requestFlags are the command-line values that override a scenario file.
type requestFlags struct {
	model, method, zone, system string
	precision                   int
	points                      map[string]string
	fromA, fromB                string
}

// apply merges the non-empty flags into req.
func (f requestFlags) apply(req *api.ResectRequest) error {
	if f.model != "" {
		req.Model = f.model
	}
	if req.Model == "" {
		req.Model = resection.ModelGeographic.String()
	}
	m, err := resection.ParseModel(req.Model)
	if err != nil {
		return err
	}
	if f.method != "" {
		req.Method = f.method
	}
	if f.zone != "" {
		req.Zone = f.zone
	}
	if f.system != "" {
		req.System = f.system
	}
	if f.precision != 0 {
		req.Precision = f.precision
	}

	for role, raw := range f.points {
		if raw == "" {
			continue
		}
		p, err := parsePoint(raw, m)
		if err != nil {
			return fmt.Errorf("-%s: %w", strings.ToLower(role), err)
		}
		if req.Points == nil {
			req.Points = make(map[string]api.Point)
		}
		// Scenario keys may differ in case; drop them so the flag wins.
		for k := range req.Points {
			if strings.EqualFold(k, role) {
				delete(req.Points, k)
			}
		}
		req.Points[role] = p
	}

	switch {
	case f.fromA != "" && f.fromB != "":
		fromA, err := strconv.ParseFloat(strings.TrimSpace(f.fromA), 64)
		if err != nil {
			return fmt.Errorf("-from-a: %w", err)
		}
		fromB, err := strconv.ParseFloat(strings.TrimSpace(f.fromB), 64)
		if err != nil {
			return fmt.Errorf("-from-b: %w", err)
		}
		req.Observed = &api.Observed{FromA: fromA, FromB: fromB}
	case f.fromA != "" || f.fromB != "":
		return fmt.Errorf("-from-a and -from-b must be given together")
	}
	return nil
}

// parsePoint reads two numbers separated by whitespace or a comma: latitude
// then longitude for the geographic model, easting then northing for grid.
func parsePoint(s string, m resection.Model) (api.Point, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) != 2 {
		return api.Point{}, fmt.Errorf("%q: want two numbers", s)
	}
	var v [2]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return api.Point{}, fmt.Errorf("%q: %w", s, err)
		}
		v[i] = x
	}
	if m == resection.ModelPlanar {
		return api.Grid(v[0], v[1]), nil
	}
	return api.Geo(v[0], v[1]), nil
}
