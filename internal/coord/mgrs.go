package coord

import (
	"fmt"
	"math"

	"github.com/pspoerri/fosfix/internal/planar"
)

// 100 km square identification letters (WGS84 "AA" lettering scheme).
var (
	mgrsColumnSets = [3]string{"ABCDEFGH", "JKLMNPQR", "STUVWXYZ"}
	mgrsRowLetters = "ABCDEFGHJKLMNPQRSTUV"
	mgrsBands      = "CDEFGHJKLMNPQRSTUVWX"
)

// BandLetter returns the MGRS latitude band letter for lat. Band X extends to
// 84°N; latitudes outside [-80, 84] have no band.
func BandLetter(lat float64) (byte, error) {
	if lat < -80 || lat > 84 {
		return 0, fmt.Errorf("%w: latitude %.6f has no MGRS band", ErrOutOfDomain, lat)
	}
	i := int(math.Floor((lat + 80) / 8))
	if i >= len(mgrsBands) {
		i = len(mgrsBands) - 1
	}
	return mgrsBands[i], nil
}

// MGRS formats a UTM point as a Military Grid Reference System string such
// as "18SUJ2348706483" (precision 5). p.Zone.Band must be set.
func MGRS(p planar.Point, precision int) (string, error) {
	if err := checkPrecision(precision); err != nil {
		return "", err
	}
	z := p.Zone
	if z.Number < 1 || z.Number > 60 {
		return "", fmt.Errorf("%w: MGRS needs a UTM zone, got %d", ErrOutOfDomain, z.Number)
	}
	if z.Band == 0 {
		return "", fmt.Errorf("MGRS: zone %d has no latitude band", z.Number)
	}

	col := int(math.Floor(math.Round(p.Easting) / 100_000))
	if col < 1 || col > 8 {
		return "", fmt.Errorf("%w: easting %.0f outside the UTM 100 km columns", ErrOutOfDomain, p.Easting)
	}
	colLetter := mgrsColumnSets[(z.Number-1)%3][col-1]

	row := int(math.Floor(math.Round(p.Northing)/100_000)) % len(mgrsRowLetters)
	if row < 0 {
		return "", fmt.Errorf("%w: negative northing %.0f", ErrOutOfDomain, p.Northing)
	}
	if z.Number%2 == 0 {
		row = (row + 5) % len(mgrsRowLetters)
	}
	rowLetter := mgrsRowLetters[row]

	return fmt.Sprintf("%d%c%c%c%0*d%0*d", z.Number, z.Band, colLetter, rowLetter,
		precision, gridDigits(p.Easting, precision),
		precision, gridDigits(p.Northing, precision)), nil
}
