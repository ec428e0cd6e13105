package format

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders value with a fixed number of decimals, grouping the
// integer part in thousands.
func FormatNumber(value float64, precision int, thousand, decimal string) string {
	if precision < 0 {
		precision = 0
	}
	fixed := strconv.FormatFloat(math.Abs(value), 'f', precision, 64)

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if value < 0 && strings.Trim(fixed, "0.") != "" {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(thousand)
		}
		b.WriteRune(r)
	}
	if fracPart != "" {
		b.WriteString(decimal)
		b.WriteString(fracPart)
	}
	return b.String()
}
