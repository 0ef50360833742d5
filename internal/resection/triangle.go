package resection

import (
	"math"

	"github.com/pspoerri/fosfix/internal/geomath"
)

const (
	// AngleTolerance is the margin in degrees by which an interior angle must
	// clear 0 and 180.
	AngleTolerance = 1e-9
	// SineTolerance is the smallest sine of the angle at FOS accepted by the
	// law-of-sines step.
	SineTolerance = 1e-9
)

// solveTriangle closes the triangle A-B-FOS from the station bearings and
// the baseline length. It returns the interior angles and the side A-FOS.
// Both models share it: only the bearings and the baseline differ.
func solveTriangle(b Bearings, baseline float64) (Angles, float64, error) {
	angles := Angles{
		A: geomath.AngleBetween(b.AB, b.AD),
		B: geomath.AngleBetween(b.BA, b.BC),
	}
	angles.FOS = 180 - angles.A - angles.B

	if angles.A <= AngleTolerance || angles.A >= 180-AngleTolerance ||
		angles.B <= AngleTolerance || angles.B >= 180-AngleTolerance ||
		angles.FOS <= AngleTolerance {
		return angles, 0, degenerate(angles, "invalid triangle geometry")
	}

	sinFOS := math.Sin(angles.FOS * math.Pi / 180)
	if sinFOS < SineTolerance {
		return angles, 0, degenerate(angles, "angle at FOS too small for the law of sines")
	}

	// Unsigned angles cannot tell whether the rays leave the baseline on
	// the same side. Walking A->B, a FOS to the left is a counter-clockwise
	// turn at A and a clockwise turn at B, and vice versa.
	turnA := geomath.SignedTurn(b.AB, b.AD)
	turnB := geomath.SignedTurn(b.BA, b.BC)
	if (turnA > 0) == (turnB > 0) {
		return angles, 0, degenerate(angles, "rays leave the baseline on opposite sides")
	}

	afos := baseline * math.Sin(angles.B*math.Pi/180) / sinFOS
	return angles, afos, nil
}

func degenerate(angles Angles, msg string) *Error {
	return &Error{Kind: KindDegenerateTriangle, Msg: msg, Angles: &angles}
}
