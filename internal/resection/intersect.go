package resection

import (
	"errors"

	"github.com/pspoerri/fosfix/internal/geomath"
	"github.com/pspoerri/fosfix/internal/planar"
)

// intersectGeographic crosses the great circles (a, b.AD) and (bp, b.BC).
func intersectGeographic(a, bp geomath.GeoPoint, b Bearings) (geomath.GeoPoint, error) {
	fos, err := geomath.Intersection(a, b.AD, bp, b.BC)
	switch {
	case err == nil:
		return fos, nil
	case errors.Is(err, geomath.ErrCoincident):
		return fos, newError(KindZeroBaseline, err, "stations A and B coincide")
	case errors.Is(err, geomath.ErrSameGreatCircle):
		return fos, newError(KindParallelRays, err,
			"bearings A→D=%.6f° and B→C=%.6f° lie on one great circle", b.AD, b.BC)
	case errors.Is(err, geomath.ErrNoIntersection):
		return fos, newError(KindNoSphericalIntersection, err,
			"bearings A→D=%.6f° and B→C=%.6f° diverge", b.AD, b.BC)
	default:
		return fos, newError(KindUnknown, err, "great-circle intersection failed")
	}
}

// intersectPlanar crosses the lines (a, b.AD) and (bp, b.BC).
func intersectPlanar(a, bp planar.Point, b Bearings) (planar.Point, error) {
	fos, err := planar.IntersectRays(a, b.AD, bp, b.BC)
	if err != nil {
		if errors.Is(err, planar.ErrParallel) {
			return fos, newError(KindParallelRays, err,
				"bearings A→D=%.6f° and B→C=%.6f° are parallel", b.AD, b.BC)
		}
		return fos, newError(KindUnknown, err, "line intersection failed")
	}
	return fos, nil
}
