package curvefit

import (
	"strconv"
	"strings"
)

// FormatFunc formats a coefficient or constant value for a numeric formula.
type FormatFunc func(v float64) string

// DefaultFormat renders the shortest representation that round-trips.
func DefaultFormat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// PrecisionFormat returns a FormatFunc rendering values with the given number of
// significant digits.
func PrecisionFormat(digits int) FormatFunc {
	return func(v float64) string {
		return strconv.FormatFloat(v, 'g', digits, 64)
	}
}

// Render substitutes every {name} of template with the formatted value from values.
// Placeholders without a value are left untouched. A nil format selects DefaultFormat.
func Render(template string, values map[string]float64, format FormatFunc) string {
	if format == nil {
		format = DefaultFormat
	}

	var sb strings.Builder
	sb.Grow(len(template) + 8*len(values))

	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			break
		}
		end += open

		sb.WriteString(rest[:open])
		if v, ok := values[rest[open+1:end]]; ok {
			sb.WriteString(format(v))
		} else {
			sb.WriteString(rest[open : end+1])
		}
		rest = rest[end+1:]
	}
	sb.WriteString(rest)

	return sb.String()
}

// cleanFormula removes polynomial rendering artifacts: "+-" and "+ -" sign pairs,
// trailing "*x**0" factors, "**1" powers and np. prefixes.
func cleanFormula(s string) string {
	s = strings.ReplaceAll(s, "np.", "")
	s = strings.ReplaceAll(s, "+ -", "- ")
	s = strings.ReplaceAll(s, "+-", "-")
	s = removePower(s, "*x**0", "")
	s = removePower(s, "**1", "")

	return s
}

// removePower replaces every occurrence of pattern that is not followed by a digit
// or a decimal point.
func removePower(s, pattern, repl string) string {
	var sb strings.Builder
	for {
		idx := strings.Index(s, pattern)
		if idx < 0 {
			sb.WriteString(s)
			return sb.String()
		}

		next := idx + len(pattern)
		if next < len(s) && (isDigit(s[next]) || s[next] == '.') {
			sb.WriteString(s[:next])
		} else {
			sb.WriteString(s[:idx])
			sb.WriteString(repl)
		}
		s = s[next:]
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
