// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lualex

import (
	"errors"
	"strconv"
	"strings"
)

// numeral is the decomposition of a Lua numeral.
type numeral struct {
	neg bool
	hex bool
	// mantissa is the digits of the numeral,
	// possibly including a single radix point.
	mantissa string
	// exp is the exponent without its marker, possibly signed.
	// It is empty if the numeral has no exponent.
	exp string
}

func (n numeral) hasPoint() bool  { return strings.Contains(n.mantissa, ".") }
func (n numeral) isInteger() bool { return !n.hasPoint() && n.exp == "" }
func (n numeral) signPrefix() string {
	if n.neg {
		return "-"
	}
	return ""
}

// scanNumeral splits s into its parts.
// Surrounding whitespace and a leading sign are permitted.
// It returns false if s is not a well-formed numeral.
func scanNumeral(s string) (numeral, bool) {
	var n numeral
	s = trimSpace(s)
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		n.neg = s[0] == '-'
		s = s[1:]
	}
	digit := isDigit
	expMarker := "eE"
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		n.hex = true
		s = s[2:]
		digit = isHexDigit
		expMarker = "pP"
	}

	i := 0
	digits := 0
	sawPoint := false
mantissa:
	for ; i < len(s); i++ {
		switch c := s[i]; {
		case digit(c):
			digits++
		case c == '.' && !sawPoint:
			sawPoint = true
		default:
			break mantissa
		}
	}
	if digits == 0 {
		return numeral{}, false
	}
	n.mantissa = s[:i]
	if i == len(s) {
		return n, true
	}

	if !strings.ContainsRune(expMarker, rune(s[i])) {
		return numeral{}, false
	}
	n.exp = s[i+1:]
	e := n.exp
	if len(e) > 0 && (e[0] == '+' || e[0] == '-') {
		e = e[1:]
	}
	if e == "" {
		return numeral{}, false
	}
	for i := 0; i < len(e); i++ {
		if !isDigit(e[i]) {
			return numeral{}, false
		}
	}
	return n, true
}

// wrapHex converts hexadecimal digits to an integer,
// keeping the 64 least-significant bits.
func wrapHex(digits string) uint64 {
	var x uint64
	for i := 0; i < len(digits); i++ {
		d, _ := hexDigit(digits[i])
		x = x<<4 | uint64(d)
	}
	return x
}

// ParseInt converts the given string to a 64-bit signed integer
// according to the [lexical rules of Lua].
// Surrounding whitespace is permitted,
// and any error returned will be of type [*strconv.NumError].
// Hexadecimal integers wrap around on overflow;
// decimal integers that overflow return an error wrapping [strconv.ErrRange].
//
// [lexical rules of Lua]: https://lua.org/manual/5.4/manual.html#3.1
func ParseInt(s string) (int64, error) {
	n, ok := scanNumeral(s)
	if !ok || !n.isInteger() {
		return 0, &strconv.NumError{Func: "ParseInt", Num: s, Err: strconv.ErrSyntax}
	}
	if n.hex {
		x := wrapHex(n.mantissa)
		if n.neg {
			x = -x
		}
		return int64(x), nil
	}
	i, err := strconv.ParseInt(n.signPrefix()+n.mantissa, 10, 64)
	if err != nil {
		err.(*strconv.NumError).Num = s
	}
	return i, err
}

// ParseNumber converts the given string to a 64-bit floating-point number
// according to the [lexical rules of Lua].
// Surrounding whitespace is permitted,
// and any error returned will be of type [*strconv.NumError].
// Values too large to represent become infinities without error.
//
// [lexical rules of Lua]: https://lua.org/manual/5.4/manual.html#3.1
func ParseNumber(s string) (float64, error) {
	n, ok := scanNumeral(s)
	if !ok {
		return 0, &strconv.NumError{Func: "ParseNumber", Num: s, Err: strconv.ErrSyntax}
	}
	var toParse string
	switch {
	case n.hex && n.isInteger():
		// “Hexadecimal numerals with neither a radix point nor an exponent
		// always denote an integer value;
		// if the value overflows, it wraps around to fit into a valid integer.”
		x := wrapHex(n.mantissa)
		if n.neg {
			x = -x
		}
		return float64(int64(x)), nil
	case n.hex:
		exp := n.exp
		if exp == "" {
			exp = "0"
		}
		toParse = n.signPrefix() + "0x" + n.mantissa + "p" + exp
	case n.exp != "":
		toParse = n.signPrefix() + n.mantissa + "e" + n.exp
	default:
		toParse = n.signPrefix() + n.mantissa
	}
	f, err := strconv.ParseFloat(toParse, 64)
	if errors.Is(err, strconv.ErrRange) {
		err = nil
	} else if err != nil {
		err = &strconv.NumError{Func: "ParseNumber", Num: s, Err: strconv.ErrSyntax}
	}
	return f, err
}

// IsFloatNumeral reports whether the numeral s denotes a float
// rather than an integer:
// decimal numerals with a radix point or an exponent,
// and hexadecimal numerals with a radix point or a binary exponent.
// Decimal integer numerals that overflow an int64 also denote floats.
// IsFloatNumeral returns false for malformed numerals.
func IsFloatNumeral(s string) bool {
	n, ok := scanNumeral(s)
	switch {
	case !ok:
		return false
	case !n.isInteger():
		return true
	case n.hex:
		return false
	default:
		_, err := strconv.ParseInt(n.mantissa, 10, 64)
		return err != nil
	}
}

func trimSpace(s string) string {
	for len(s) > 0 && isSpace(s[0]) {
		s = s[1:]
	}
	for len(s) > 0 && isSpace(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	return s
}
