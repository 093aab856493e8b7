// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lualex

import (
	"fmt"
	"strconv"
)

// ErrorKind is an enumeration of lexical error categories.
type ErrorKind int

// [ErrorKind] values.
const (
	// UnexpectedSymbol indicates a character that cannot start a token.
	UnexpectedSymbol ErrorKind = 1 + iota
	// UnterminatedString indicates a quoted string
	// that reaches a line break or the end of the source before its closing quote.
	UnterminatedString
	// UnterminatedLongString indicates a long string or long comment
	// that reaches the end of the source before its closing bracket.
	UnterminatedLongString
	// MalformedNumber indicates a numeral that does not follow Lua's numeral syntax.
	MalformedNumber
	// InvalidEscape indicates a terminated quoted string
	// with an invalid escape sequence.
	InvalidEscape
)

// String returns the kind's name, like "UnterminatedString".
func (kind ErrorKind) String() string {
	switch kind {
	case UnexpectedSymbol:
		return "UnexpectedSymbol"
	case UnterminatedString:
		return "UnterminatedString"
	case UnterminatedLongString:
		return "UnterminatedLongString"
	case MalformedNumber:
		return "MalformedNumber"
	case InvalidEscape:
		return "InvalidEscape"
	default:
		return "ErrorKind(" + strconv.Itoa(int(kind)) + ")"
	}
}

// Error is a lexical error.
type Error struct {
	Kind ErrorKind
	Span Span
	Msg  string
}

func (e *Error) Error() string {
	return e.Span.Start.String() + ": " + e.Msg
}

func (s *Scanner) errorf(kind ErrorKind, span Span, format string, args ...any) {
	s.errs = append(s.errs, &Error{
		Kind: kind,
		Span: span,
		Msg:  fmt.Sprintf(format, args...),
	})
}
