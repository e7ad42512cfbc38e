package mapping

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Number is a numeric field value written by the editor.
//
// It may hold NaN or an infinity. Those are kept as-is in memory and encode
// to JSON null, the way a browser's JSON.stringify writes them.
type Number float64

// NaN returns a not-a-number Number.
func NaN() Number {
	return Number(math.NaN())
}

// IsNaN reports whether n is not-a-number.
func (n Number) IsNaN() bool {
	return math.IsNaN(float64(n))
}

// IsFinite reports whether n is neither NaN nor an infinity.
func (n Number) IsFinite() bool {
	f := float64(n)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Int returns n truncated to an int. Non-finite values return 0.
func (n Number) Int() int {
	if !n.IsFinite() {
		return 0
	}
	return int(n)
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.IsFinite() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(n))
}

// String formats n the way it is shown in an edit field: integers without
// a fraction, NaN as "NaN" and infinities as "Infinity" / "-Infinity".
func (n Number) String() string {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	// 1e-07 -> 1e-7
	if i := strings.IndexAny(s, "e"); i >= 0 && i+2 < len(s) {
		mant, exp := s[:i+2], strings.TrimLeft(s[i+2:], "0")
		if exp == "" {
			exp = "0"
		}
		s = mant + exp
	}
	return s
}

var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber converts the text of an edit field to a Number.
//
// Conversion is permissive: surrounding whitespace is ignored, empty text is
// zero, 0x / 0o / 0b prefixes select the base, "Infinity" is accepted with an
// optional sign, and anything else that is not a decimal literal yields NaN
// instead of an error.
func ParseNumber(text string) Number {
	s := strings.TrimFunc(text, isNumberSpace)
	if s == "" {
		return 0
	}

	switch s {
	case "Infinity", "+Infinity":
		return Number(math.Inf(1))
	case "-Infinity":
		return Number(math.Inf(-1))
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			if s[2] == '+' || s[2] == '-' {
				return NaN()
			}
			i, ok := new(big.Int).SetString(s[2:], base)
			if !ok {
				return NaN()
			}
			f, _ := new(big.Float).SetInt(i).Float64()
			return Number(f)
		}
	}

	if !decimalLiteral.MatchString(s) {
		return NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			// ParseFloat already returned ±Inf or ±0.
			return Number(f)
		}
		return NaN()
	}
	return Number(f)
}

// isNumberSpace matches the characters Number() trims: Unicode space
// separators, tab, vertical tab, form feed, BOM and line terminators.
func isNumberSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u00A0', '\u2028', '\u2029', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}
