package coord

import (
	"fmt"
	"math"

	"github.com/pspoerri/fosfix/internal/planar"
)

// MaxPrecision is the number of digits per axis in a 10-figure (1 m) grid
// reference.
const MaxPrecision = 5

// gridDigits rounds v to the nearest meter, keeps the position inside its
// 100 km square and truncates it to precision digits.
func gridDigits(v float64, precision int) int64 {
	m := int64(math.Round(v)) % 100_000
	if m < 0 {
		m += 100_000
	}
	div := int64(math.Pow10(MaxPrecision - precision))
	return m / div
}

func checkPrecision(precision int) error {
	if precision < 1 || precision > MaxPrecision {
		return fmt.Errorf("grid reference precision %d outside 1-%d", precision, MaxPrecision)
	}
	return nil
}

// GridReference formats the low-order digits of p's easting and northing as
// two fixed-width, zero-padded groups, e.g. "23487 06483" at precision 5
// (1 m) or "234 064" at precision 3 (100 m).
func GridReference(p planar.Point, precision int) (string, error) {
	if err := checkPrecision(precision); err != nil {
		return "", err
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d %0*d",
		precision, gridDigits(p.Easting, precision),
		precision, gridDigits(p.Northing, precision)), nil
}
