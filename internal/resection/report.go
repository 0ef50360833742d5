package resection

import (
	"encoding/json"
	"fmt"

	"github.com/iancoleman/orderedmap"

	"github.com/pspoerri/fosfix/internal/geomath"
)

// ReportEntry describes one named point as seen from FOS.
type ReportEntry struct {
	Role        Role    `json:"-"`
	Distance    float64 `json:"distance_m"`
	Bearing     float64 `json:"bearing"`
	BackBearing float64 `json:"back_bearing"`
}

// Report lists the named points in role order (A, B, C, D, Target). Roles
// absent from the input are skipped.
type Report struct {
	Entries []ReportEntry
}

// Get returns the entry for role.
func (r Report) Get(role Role) (ReportEntry, bool) {
	for _, e := range r.Entries {
		if e.Role == role {
			return e, true
		}
	}
	return ReportEntry{}, false
}

// MarshalJSON encodes the report as an object keyed by role name, keeping
// role order.
func (r Report) MarshalJSON() ([]byte, error) {
	om := orderedmap.New()
	om.SetEscapeHTML(false)
	for _, e := range r.Entries {
		om.Set(e.Role.String(), e)
	}
	return json.Marshal(om)
}

func (r *Report) UnmarshalJSON(data []byte) error {
	om := orderedmap.New()
	if err := json.Unmarshal(data, om); err != nil {
		return err
	}
	r.Entries = r.Entries[:0]
	for _, key := range om.Keys() {
		role, err := ParseRole(key)
		if err != nil {
			return err
		}
		v, _ := om.Get(key)
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		e := ReportEntry{Role: role}
		if err := json.Unmarshal(raw, &e); err != nil {
			return fmt.Errorf("report entry %s: %w", key, err)
		}
		r.Entries = append(r.Entries, e)
	}
	return nil
}

// measureFunc returns the distance and bearing from FOS to role's point.
type measureFunc func(role Role) (distance, bearing float64, ok bool)

func buildReport(measure measureFunc) Report {
	var r Report
	for _, role := range Roles {
		d, b, ok := measure(role)
		if !ok {
			continue
		}
		r.Entries = append(r.Entries, ReportEntry{
			Role:        role,
			Distance:    d,
			Bearing:     b,
			BackBearing: geomath.BackBearing(b),
		})
	}
	return r
}
