// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package luaparse

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"zb.256lights.llc/luaparse/lualex"
)

// ErrorKind is an enumeration of the kinds of problems
// that [Parse] can report.
type ErrorKind int

// [ErrorKind] values.
// The first group is [LexError]s reported by the scanner;
// the second is [SyntaxError]s reported by the grammar.
const (
	UnexpectedSymbol ErrorKind = 1 + iota
	UnterminatedString
	UnterminatedLongString
	MalformedNumber
	InvalidEscape

	UnexpectedToken
	MissingExpectedToken
	UnexpectedEndOfInput
	DepthLimitExceeded
)

var errorKindNames = [...]string{
	UnexpectedSymbol:       "UnexpectedSymbol",
	UnterminatedString:     "UnterminatedString",
	UnterminatedLongString: "UnterminatedLongString",
	MalformedNumber:        "MalformedNumber",
	InvalidEscape:          "InvalidEscape",
	UnexpectedToken:        "UnexpectedToken",
	MissingExpectedToken:   "MissingExpectedToken",
	UnexpectedEndOfInput:   "UnexpectedEndOfInput",
	DepthLimitExceeded:     "DepthLimitExceeded",
}

// String returns the kind's name, like "MissingExpectedToken".
func (kind ErrorKind) String() string {
	if kind <= 0 || int(kind) >= len(errorKindNames) {
		return "ErrorKind(" + strconv.Itoa(int(kind)) + ")"
	}
	return errorKindNames[kind]
}

// Category returns the phase of parsing that reports errors of the given kind.
func (kind ErrorKind) Category() Category {
	if kind < UnexpectedToken {
		return LexError
	}
	return SyntaxError
}

// ParseErrorKind returns the kind whose String method returns s.
func ParseErrorKind(s string) (ErrorKind, bool) {
	for kind, name := range errorKindNames {
		if name != "" && name == s {
			return ErrorKind(kind), true
		}
	}
	return 0, false
}

// lexErrorKind converts a scanner error kind to an [ErrorKind].
func lexErrorKind(kind lualex.ErrorKind) ErrorKind {
	switch kind {
	case lualex.UnexpectedSymbol:
		return UnexpectedSymbol
	case lualex.UnterminatedString:
		return UnterminatedString
	case lualex.UnterminatedLongString:
		return UnterminatedLongString
	case lualex.MalformedNumber:
		return MalformedNumber
	case lualex.InvalidEscape:
		return InvalidEscape
	default:
		return UnexpectedSymbol
	}
}

// Category is an enumeration of [ErrorKind] groups.
type Category int

// [Category] values.
const (
	LexError Category = 1 + iota
	SyntaxError
)

// String returns "LexError" or "SyntaxError".
func (c Category) String() string {
	switch c {
	case LexError:
		return "LexError"
	case SyntaxError:
		return "SyntaxError"
	default:
		return "Category(" + strconv.Itoa(int(c)) + ")"
	}
}

// ParseError is a single problem found in Lua source.
type ParseError struct {
	Kind ErrorKind
	Span lualex.Span
	// Expected is the set of token kinds that would have been accepted.
	// It is only populated for some syntax errors.
	Expected lualex.TokenSet
	// Found is the token the parser was looking at when it found the error,
	// or nil for lexical errors.
	Found   *lualex.Token
	Message string
}

// Error formats the error like "1:13: 'end' expected near <eof>".
func (e *ParseError) Error() string {
	sb := new(strings.Builder)
	if e.Span.Start.IsValid() {
		sb.WriteString(e.Span.Start.String())
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	if e.Found != nil {
		sb.WriteString(" near ")
		sb.WriteString(near(e.Found))
	}
	return sb.String()
}

// near formats a token the way upstream Lua does in error messages.
func near(tok *lualex.Token) string {
	if tok.Kind == lualex.EOFToken {
		return "<eof>"
	}
	return "'" + tok.Text + "'"
}

// ErrorList is a list of [*ParseError]s.
type ErrorList []*ParseError

// Error returns the first error's message
// along with the number of additional errors.
func (list ErrorList) Error() string {
	switch len(list) {
	case 0:
		return "no errors"
	case 1:
		return list[0].Error()
	default:
		return list[0].Error() + " (and " + strconv.Itoa(len(list)-1) + " more errors)"
	}
}

// Err returns list as an error or nil if list is empty.
func (list ErrorList) Err() error {
	if len(list) == 0 {
		return nil
	}
	return list
}

// diagnostics collects the errors found during a parse.
// Exact repeats of the same kind at the same span are dropped.
type diagnostics struct {
	list []*ParseError
	seen map[diagnosticKey]struct{}
}

type diagnosticKey struct {
	kind       ErrorKind
	start, end int
}

func keyOf(e *ParseError) diagnosticKey {
	return diagnosticKey{e.Kind, e.Span.Start.Offset, e.Span.End.Offset}
}

// add records e unless an error of the same kind and span was already recorded.
func (d *diagnostics) add(e *ParseError) {
	k := keyOf(e)
	if _, dup := d.seen[k]; dup {
		return
	}
	if d.seen == nil {
		d.seen = make(map[diagnosticKey]struct{})
	}
	d.seen[k] = struct{}{}
	d.list = append(d.list, e)
}

// mark returns a value that can be passed to rollback
// to discard all errors added after the call to mark.
func (d *diagnostics) mark() int {
	return len(d.list)
}

func (d *diagnostics) rollback(mark int) {
	for _, e := range d.list[mark:] {
		delete(d.seen, keyOf(e))
	}
	clear(d.list[mark:])
	d.list = d.list[:mark]
}

// sorted returns the collected errors ordered by start offset.
// Errors at the same offset keep the order they were added in.
func (d *diagnostics) sorted() ErrorList {
	list := slices.Clone(d.list)
	slices.SortStableFunc(list, func(a, b *ParseError) int {
		return cmp.Compare(a.Span.Start.Offset, b.Span.Start.Offset)
	})
	return list
}
