package runtime

import (
	"math"
	"strconv"
	"strings"
)

// formatFloat renders a double the short way: integers without a decimal
// point, everything else with up to five significant digits, matching the
// default display format.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'g', 5, 64)
}

// FormatFloat is formatFloat for callers outside the package (num2str,
// disp).
func FormatFloat(f float64) string { return formatFloat(f) }

// FormatAssign renders the echo block for name = value, the text printed
// after an unsuppressed statement:
//
//	x =
//	     5
func FormatAssign(name string, v Value) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteString(" =\n")
	body := v.String()
	if ch, ok := v.(Char); ok {
		body = "'" + string(ch) + "'"
	}
	for _, line := range strings.Split(body, "\n") {
		sb.WriteString("    ")
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
