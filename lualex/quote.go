// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lualex

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Quote returns a double-quoted Lua string literal representing s.
func Quote(s string) string {
	sb := new(strings.Builder)
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for {
		c, size := utf8.DecodeRuneInString(s)
		switch {
		case size == 0:
			sb.WriteByte('"')
			return sb.String()
		case c == utf8.RuneError && size == 1:
			sb.WriteString(`\x`)
			for _, digit := range toHexDigits(s[0]) {
				sb.WriteByte(digit)
			}
		case c == '\\' || c == '"':
			sb.WriteByte('\\')
			sb.WriteRune(c)
		case isPrint(c):
			sb.WriteRune(c)
		case c == '\a':
			sb.WriteString(`\a`)
		case c == '\b':
			sb.WriteString(`\b`)
		case c == '\f':
			sb.WriteString(`\f`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c == '\v':
			sb.WriteString(`\v`)
		default:
			fmt.Fprintf(sb, `\u{%x}`, c)
		}
		s = s[size:]
	}
}

// Unquote interprets s as a single-quoted, double-quoted, or bracket-delimited Lua string literal,
// returning the string value that s quotes.
// Unquote is the inverse of [Quote]
// and accepts the Text of any [StringToken] that was scanned without error.
func Unquote(s string) (string, error) {
	if len(s) < 2 {
		return "", errUnquoteSyntax
	}
	switch s[0] {
	case '\'', '"':
		v, _, err := unquoteShort(s)
		if err != nil {
			return "", errUnquoteSyntax
		}
		return v, nil
	case '[':
		return unquoteLong(s)
	default:
		return "", errUnquoteSyntax
	}
}

var errUnquoteSyntax = errors.New("invalid syntax")

// unquoteShort decodes a quoted string literal.
// On error, bad is the byte offset of the offending escape sequence in lit.
func unquoteShort(lit string) (_ string, bad int, err error) {
	delim := lit[0]
	if len(lit) < 2 || lit[len(lit)-1] != delim {
		return "", 0, errUnquoteSyntax
	}
	body := lit[1 : len(lit)-1]
	sb := new(strings.Builder)
	sb.Grow(len(body))
	for i := 0; i < len(body); {
		c := body[i]
		switch {
		case c == delim:
			return "", i + 1, errUnquoteSyntax
		case isNewline(c):
			return "", i + 1, errors.New("unescaped newline in string")
		case c != '\\':
			sb.WriteByte(c)
			i++
			continue
		}

		esc := i
		i++
		if i >= len(body) {
			return "", esc + 1, errors.New("invalid escape sequence")
		}
		switch c := body[i]; c {
		case 'a':
			sb.WriteByte('\a')
			i++
		case 'b':
			sb.WriteByte('\b')
			i++
		case 'f':
			sb.WriteByte('\f')
			i++
		case 'n':
			sb.WriteByte('\n')
			i++
		case 'r':
			sb.WriteByte('\r')
			i++
		case 't':
			sb.WriteByte('\t')
			i++
		case 'v':
			sb.WriteByte('\v')
			i++
		case '\\', '\'', '"':
			sb.WriteByte(c)
			i++
		case '\n', '\r':
			i++
			if i < len(body) && isNewline(body[i]) && body[i] != c {
				i++
			}
			sb.WriteByte('\n')
		case 'z':
			// "'\z' skips the following span of whitespace characters, including line breaks"
			i++
			for i < len(body) && isSpace(body[i]) {
				i++
			}
		case 'x':
			if i+2 >= len(body) {
				return "", esc + 1, errors.New("hexadecimal digit expected")
			}
			hi, err1 := hexDigit(body[i+1])
			lo, err2 := hexDigit(body[i+2])
			if err1 != nil || err2 != nil {
				return "", esc + 1, errors.New("hexadecimal digit expected")
			}
			sb.WriteByte(hi<<4 | lo)
			i += 3
		case 'u':
			// \u{XXX}, 1+ hex digits to UTF-8 limited to 2^31
			i++
			if i >= len(body) || body[i] != '{' {
				return "", esc + 1, errors.New("missing '{' in \\u{xxxx}")
			}
			i++
			var r rune
			ndigits := 0
			for ; i < len(body) && body[i] != '}'; i++ {
				nibble, err := hexDigit(body[i])
				if err != nil {
					return "", esc + 1, errors.New("hexadecimal digit expected")
				}
				if r > 0x7FFFFFFF>>4 {
					return "", esc + 1, errors.New("UTF-8 value too large")
				}
				r = r<<4 | rune(nibble)
				ndigits++
			}
			if i >= len(body) || ndigits == 0 {
				return "", esc + 1, errors.New("missing '}' in \\u{xxxx}")
			}
			i++
			writeExtendedUTF8(sb, r)
		default:
			if !isDigit(c) {
				return "", esc + 1, errors.New("invalid escape sequence")
			}
			// Decimal escape (1-3 digits).
			result := 0
			for n := 0; n < 3 && i < len(body) && isDigit(body[i]); n++ {
				result = 10*result + int(body[i]-'0')
				i++
			}
			if result > 0xff {
				return "", esc + 1, errors.New("decimal escape too large")
			}
			sb.WriteByte(byte(result))
		}
	}
	return sb.String(), 0, nil
}

// escapeLen returns the length of the escape sequence at the start of s,
// which must begin with a backslash.
func escapeLen(s string) int {
	if len(s) < 2 {
		return len(s)
	}
	n := 2
	switch s[1] {
	case 'x':
		for n < len(s) && n < 4 && isHexDigit(s[n]) {
			n++
		}
	case 'u':
		for n < len(s) && s[n] != '}' && !isSpace(s[n]) && s[n] != '"' && s[n] != '\'' {
			n++
		}
		if n < len(s) && s[n] == '}' {
			n++
		}
	default:
		if isDigit(s[1]) {
			for n < len(s) && n < 4 && isDigit(s[n]) {
				n++
			}
		}
	}
	return n
}

// writeExtendedUTF8 encodes r the way Lua does,
// permitting values up to 2^31 that Go's UTF-8 encoder rejects.
func writeExtendedUTF8(sb *strings.Builder, r rune) {
	if utf8.ValidRune(r) {
		sb.WriteRune(r)
		return
	}
	x := uint32(r)
	var buf [6]byte
	n := 1
	// Maximum value that fits in the first byte.
	mfb := uint32(0x3f)
	for x > mfb {
		buf[len(buf)-n] = byte(0x80 | (x & 0x3f))
		n++
		x >>= 6
		mfb >>= 1
	}
	buf[len(buf)-n] = byte((^mfb << 1) | x)
	sb.Write(buf[len(buf)-n:])
}

// unquoteLong decodes a long bracket string literal.
// As in Lua, a line break immediately after the opening bracket is skipped
// and every line break sequence is translated to "\n".
func unquoteLong(lit string) (string, error) {
	level := 0
	i := 1
	for i < len(lit) && lit[i] == '=' {
		level++
		i++
	}
	if i >= len(lit) || lit[i] != '[' {
		return "", errUnquoteSyntax
	}
	i++
	closing := "]" + strings.Repeat("=", level) + "]"
	if !strings.HasSuffix(lit, closing) || len(lit)-len(closing) < i {
		return "", errUnquoteSyntax
	}
	body := lit[i : len(lit)-len(closing)]
	if strings.Contains(body, closing) {
		return "", errUnquoteSyntax
	}

	body = skipLineBreak(body)
	sb := new(strings.Builder)
	sb.Grow(len(body))
	for len(body) > 0 {
		if isNewline(body[0]) {
			sb.WriteByte('\n')
			body = skipLineBreak(body)
			continue
		}
		sb.WriteByte(body[0])
		body = body[1:]
	}
	return sb.String(), nil
}

// skipLineBreak returns s without its leading line break sequence, if any.
func skipLineBreak(s string) string {
	switch {
	case len(s) >= 2 && isNewline(s[0]) && isNewline(s[1]) && s[0] != s[1]:
		return s[2:]
	case len(s) >= 1 && isNewline(s[0]):
		return s[1:]
	default:
		return s
	}
}

func toHexDigits(x byte) [2]byte {
	var result [2]byte
	if hi := x >> 4; hi < 0xa {
		result[0] = hi + '0'
	} else {
		result[0] = hi - 0xa + 'a'
	}
	if lo := x & 0xf; lo < 0xa {
		result[1] = lo + '0'
	} else {
		result[1] = lo - 0xa + 'a'
	}
	return result
}

func isPrint(c rune) bool {
	return 0x20 <= c && c < 0x7f
}

func hexDigit(c byte) (byte, error) {
	switch {
	case isDigit(c):
		return c - '0', nil
	case 'a' <= c && c <= 'f':
		return c - 'a' + 0xa, nil
	case 'A' <= c && c <= 'F':
		return c - 'A' + 0xa, nil
	default:
		return 0, fmt.Errorf("unexpected %q (want hex digit)", c)
	}
}
