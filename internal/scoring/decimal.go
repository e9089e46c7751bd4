package scoring

import (
	"math"
	"strconv"
	"strings"
)

// exactDigits is enough precision to print any float64 without rounding.
const exactDigits = 1100

// FormatFixed formats x with the given number of decimals the way browsers
// render Number.prototype.toFixed: an exact half rounds away from zero, where
// strconv would round it to even. Negative zero prints without a sign.
func FormatFixed(x float64, digits int) string {
	if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		if x == 0 {
			x = 0
		}
		return strconv.FormatFloat(x, 'f', digits, 64)
	}

	if isExactHalf(x, digits) {
		x = math.Nextafter(x, math.Copysign(math.Inf(1), x))
	}
	return strconv.FormatFloat(x, 'f', digits, 64)
}

// isExactHalf reports whether the exact decimal expansion of x ends with a 5
// in the first position past the requested digits.
func isExactHalf(x float64, digits int) bool {
	exact := strconv.FormatFloat(math.Abs(x), 'f', exactDigits, 64)
	exact = strings.TrimRight(exact, "0")

	dot := strings.IndexByte(exact, '.')
	if dot < 0 {
		return false
	}

	decimals := exact[dot+1:]
	return len(decimals) == digits+1 && decimals[digits] == '5'
}

// formatPlain prints x with the fewest digits that round-trip.
func formatPlain(x float64) string {
	if x == 0 {
		x = 0
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}
