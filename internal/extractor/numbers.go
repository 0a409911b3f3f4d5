package extractor

import (
	"strconv"
	"strings"
)

// ParseEuropeanNumber converts a German-formatted number ("1.234,56") to a
// float. Dots are thousands separators and the comma is the decimal mark.
//
// RETURNS:
//   - The parsed value, or 0 when the token is empty or unparsable.
//     Extraction never fails on a bad number.
func ParseEuropeanNumber(value string) float64 {
	if value == "" {
		return 0
	}
	value = strings.ReplaceAll(value, ".", "")
	value = strings.ReplaceAll(value, ",", ".")
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

// ConvertDate rewrites "DD.MM.YYYY" to "YYYY-MM-DD". Values without exactly
// three dot-separated parts are returned unchanged.
func ConvertDate(value string) string {
	parts := strings.Split(value, ".")
	if len(parts) != 3 {
		return value
	}
	return parts[2] + "-" + pad2(parts[1]) + "-" + pad2(parts[0])
}

func pad2(s string) string {
	if len(s) >= 2 {
		return s
	}
	return strings.Repeat("0", 2-len(s)) + s
}
