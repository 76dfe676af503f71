package xlsx2json

import (
	"math"
	"strconv"
	"strings"
)

// CellText returns the text of a cell, or false when the cell has no value.
// Numbers are rendered the way a spreadsheet shows them in General format,
// formulas are returned as their expression.
func CellText(c Cell) (string, bool) {
	var text string
	switch c.Kind {
	case CellBlank:
		return "", false
	case CellNumeric:
		v, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return "", false
		}
		text = NumberText(v)
	default:
		text = c.Value
	}
	if text == "" {
		return "", false
	}
	return text, true
}

// maxPlainExponent is the largest decimal exponent rendered without E
// notation.
const maxPlainExponent = 19

// maxPlainLength is the longest "0.000ddd" rendering used for magnitudes
// below one.
const maxPlainLength = 20

// NumberText renders v with at most 15 significant digits, no trailing
// zeros and no grouping, as a spreadsheet does in General format. E
// notation with an exponent of at least two digits is used for exponents
// above 19 and for small magnitudes whose plain form would exceed 20
// characters.
func NumberText(v float64) string {
	sign := ""
	if math.Signbit(v) {
		sign = "-"
		v = -v
	}
	if v < minNormal {
		return sign + "0"
	}

	// d.dddddddddddddde±XX
	s := strconv.FormatFloat(v, 'e', 14, 64)
	mant, expStr, _ := strings.Cut(s, "e")
	exp, _ := strconv.Atoi(expStr)
	digits := strings.TrimRight(strings.Replace(mant, ".", "", 1), "0")

	switch {
	case exp > maxPlainExponent:
		return sign + scientific(digits, exp)
	case exp < 0:
		zeros := -exp - 1
		if 2+zeros+len(digits) > maxPlainLength {
			return sign + scientific(digits, exp)
		}
		return sign + "0." + strings.Repeat("0", zeros) + digits
	case len(digits) <= exp+1:
		return sign + digits + strings.Repeat("0", exp+1-len(digits))
	default:
		return sign + digits[:exp+1] + "." + digits[exp+1:]
	}
}

// minNormal is the smallest positive normal float64. Subnormals render as
// zero.
const minNormal = 0x1p-1022

func scientific(digits string, exp int) string {
	var b strings.Builder
	b.WriteByte(digits[0])
	if len(digits) > 1 {
		b.WriteByte('.')
		b.WriteString(digits[1:])
	}
	b.WriteByte('E')
	if exp < 0 {
		b.WriteByte('-')
		exp = -exp
	} else {
		b.WriteByte('+')
	}
	if exp < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.Itoa(exp))
	return b.String()
}
