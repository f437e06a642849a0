// Package viewcount abbreviates YouTube view-count display text.
package viewcount

import (
	"strconv"
	"strings"
)

const suffix = "views"

var scales = []struct {
	min    float64
	letter string
}{
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// Format turns "1,234,567 views" into "1.2M views". Text without "views" or
// whose leading token is not a plain number is returned unchanged.
func Format(text string) string {
	if !strings.Contains(text, suffix) {
		return text
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return text
	}
	digits := strings.ReplaceAll(fields[0], ",", "")
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return text
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return text
	}

	v := float64(n)
	for _, s := range scales {
		if v >= s.min {
			return strconv.FormatFloat(v/s.min, 'f', 1, 64) + s.letter + " " + suffix
		}
	}
	return strconv.FormatUint(n, 10) + " " + suffix
}
