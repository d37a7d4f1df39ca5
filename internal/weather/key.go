package weather

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ObjectKey derives the storage key for a request. It uses the requested
// coordinates, not the grid point the upstream resolved them to.
func ObjectKey(req Request) string {
	return fmt.Sprintf("weather_data_%s_%s_%s_to_%s.json",
		FormatCoordinate(req.Latitude),
		FormatCoordinate(req.Longitude),
		req.RawStartDate,
		req.RawEndDate,
	)
}

// FormatCoordinate renders v as its shortest round-trip decimal and always
// keeps a fractional part, so 13 becomes "13.0" and 52.52 stays "52.52".
// Very small and very large magnitudes use exponent notation.
func FormatCoordinate(v float64) string {
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
