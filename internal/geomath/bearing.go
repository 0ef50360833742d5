package geomath

import "math"

// NormalizeBearing reduces a bearing in degrees to [0, 360).
func NormalizeBearing(b float64) float64 {
	b = math.Mod(b, 360)
	if b < 0 {
		b += 360
	}
	// -1e-17 + 360 rounds to exactly 360.
	if b >= 360 {
		b -= 360
	}
	return b
}

// BackBearing returns the reciprocal of b, i.e. b+180 modulo 360.
func BackBearing(b float64) float64 {
	return NormalizeBearing(b + 180)
}

// AngleBetween returns the smallest non-negative difference between two
// bearings. The result is always in [0, 180].
func AngleBetween(b1, b2 float64) float64 {
	d := NormalizeBearing(b2 - b1)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// SignedTurn returns the signed rotation from bearing from to bearing to in
// (-180, 180]; positive values turn clockwise.
func SignedTurn(from, to float64) float64 {
	d := NormalizeBearing(to - from)
	if d > 180 {
		d -= 360
	}
	return d
}
