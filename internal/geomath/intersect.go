package geomath

import "math"

// sinTolerance bounds the course-angle sines below which a path is treated as
// running along the baseline. 1e-9 rad puts the other station well under a
// millimetre off a path for any baseline on Earth.
const sinTolerance = 1e-9

// normalTolerance bounds |n1 x n2| below which two great circles coincide.
const normalTolerance = 1e-12

// Intersection returns the point where the great circle leaving p1 on
// bearing1 crosses the great circle leaving p2 on bearing2. Of the two
// antipodal crossings it selects the one ahead of both observers, as
// determined by the signs of the course angles relative to the baseline.
// A path that runs along the baseline meets the other path at its station.
func Intersection(p1 GeoPoint, bearing1 float64, p2 GeoPoint, bearing2 float64) (GeoPoint, error) {
	phi1, lambda1 := deg2rad(p1.Lat), deg2rad(p1.Lon)
	phi2, lambda2 := deg2rad(p2.Lat), deg2rad(p2.Lon)
	theta13, theta23 := deg2rad(bearing1), deg2rad(bearing2)

	dPhi := phi2 - phi1
	dLambda := lambda2 - lambda1

	// Angular distance p1-p2.
	delta12 := 2 * math.Asin(math.Sqrt(math.Min(1,
		math.Sin(dPhi/2)*math.Sin(dPhi/2)+
			math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2))))
	if math.Abs(delta12) < 1e-15 {
		return GeoPoint{}, ErrCoincident
	}

	if sameGreatCircle(phi1, lambda1, theta13, phi2, lambda2, theta23) {
		return GeoPoint{}, ErrSameGreatCircle
	}

	// Initial/final bearings between the two observers.
	cosThetaA := (math.Sin(phi2) - math.Sin(phi1)*math.Cos(delta12)) / (math.Sin(delta12) * math.Cos(phi1))
	cosThetaB := (math.Sin(phi1) - math.Sin(phi2)*math.Cos(delta12)) / (math.Sin(delta12) * math.Cos(phi2))
	thetaA := math.Acos(clamp(cosThetaA, -1, 1))
	thetaB := math.Acos(clamp(cosThetaB, -1, 1))

	var theta12, theta21 float64
	if math.Sin(dLambda) > 0 {
		theta12 = thetaA
		theta21 = 2*math.Pi - thetaB
	} else {
		theta12 = 2*math.Pi - thetaA
		theta21 = thetaB
	}

	alpha1 := theta13 - theta12 // angle at p1
	alpha2 := theta21 - theta23 // angle at p2
	sinA1, sinA2 := math.Sin(alpha1), math.Sin(alpha2)

	along1, along2 := math.Abs(sinA1) < sinTolerance, math.Abs(sinA2) < sinTolerance
	switch {
	case along1 && along2:
		return GeoPoint{}, ErrNoIntersection
	case along1:
		// The path from p1 runs through p2, where the second path starts.
		return p2, nil
	case along2:
		return p1, nil
	}
	if sinA1*sinA2 < 0 {
		return GeoPoint{}, ErrNoIntersection
	}

	cosAlpha3 := -math.Cos(alpha1)*math.Cos(alpha2) + sinA1*sinA2*math.Cos(delta12)
	delta13 := math.Atan2(sinA1*sinA2*math.Sin(delta12), math.Cos(alpha2)+math.Cos(alpha1)*cosAlpha3)

	sinPhi3 := math.Sin(phi1)*math.Cos(delta13) + math.Cos(phi1)*math.Sin(delta13)*math.Cos(theta13)
	phi3 := math.Asin(clamp(sinPhi3, -1, 1))
	dLambda13 := math.Atan2(
		math.Sin(theta13)*math.Sin(delta13)*math.Cos(phi1),
		math.Cos(delta13)-math.Sin(phi1)*math.Sin(phi3))

	p3 := GeoPoint{
		Lat: rad2deg(phi3),
		Lon: NormalizeLongitude(rad2deg(lambda1 + dLambda13)),
	}
	// Observers at a pole have no defined bearing; the formulas yield NaN.
	if math.IsNaN(p3.Lat) || math.IsNaN(p3.Lon) {
		return GeoPoint{}, ErrNoIntersection
	}
	return p3, nil
}

// sameGreatCircle reports whether the great circles through the two
// (point, bearing) pairs coincide, by comparing their unit normals.
func sameGreatCircle(phi1, lambda1, theta1, phi2, lambda2, theta2 float64) bool {
	n1 := circleNormal(phi1, lambda1, theta1)
	n2 := circleNormal(phi2, lambda2, theta2)
	cx := n1[1]*n2[2] - n1[2]*n2[1]
	cy := n1[2]*n2[0] - n1[0]*n2[2]
	cz := n1[0]*n2[1] - n1[1]*n2[0]
	return math.Sqrt(cx*cx+cy*cy+cz*cz) < normalTolerance
}

// circleNormal returns the unit normal of the great circle leaving
// (phi, lambda) on bearing theta, in earth-centred coordinates.
func circleNormal(phi, lambda, theta float64) [3]float64 {
	sinPhi, cosPhi := math.Sincos(phi)
	sinLambda, cosLambda := math.Sincos(lambda)
	sinTheta, cosTheta := math.Sincos(theta)
	return [3]float64{
		sinLambda*cosTheta - sinPhi*cosLambda*sinTheta,
		-cosLambda*cosTheta - sinPhi*sinLambda*sinTheta,
		cosPhi * sinTheta,
	}
}
