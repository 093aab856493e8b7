// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lualex

import (
	"fmt"
	"strconv"
)

// Token represents a single lexical element in a Lua source file.
// Concatenating the Text of every trivia and token
// in a token sequence reproduces the source exactly.
type Token struct {
	Kind TokenKind
	// Text is the exact source text of the token.
	// It is empty for [EOFToken] and for synthetic tokens.
	Text string
	Span Span
	// LeadingTrivia is the whitespace and comments
	// that appear between the previous token and this one.
	LeadingTrivia []Trivia
	// Synthetic is true if the token does not appear in the source
	// and was inserted by a parser during error recovery.
	// Synthetic tokens have a zero-length span.
	Synthetic bool
}

// Synthesize returns a new zero-length synthetic token of the given kind
// positioned at pos.
func Synthesize(kind TokenKind, pos Position) *Token {
	return &Token{
		Kind:      kind,
		Span:      Span{Start: pos, End: pos},
		Synthetic: true,
	}
}

// String formats the token as it would appear in Lua source.
// String returns "<eof>" for [EOFToken].
func (tok *Token) String() string {
	switch {
	case tok == nil || tok.Kind == EOFToken:
		return "<eof>"
	case tok.Synthetic:
		return tok.Kind.String()
	case tok.Kind == ErrorToken, tok.Kind == StringToken, tok.Kind == NameToken, tok.Kind == NumeralToken:
		return tok.Text
	default:
		return tok.Kind.String()
	}
}

// Position represents a position in a textual source file.
type Position struct {
	// Offset is the 0-based byte offset.
	Offset int
	// Line is the 1-based line number.
	Line int
	// Column is the 1-based column number.
	// Columns are based in bytes.
	// Zero indicates that the position only has line number information.
	Column int
}

// Pos returns a new position with the given line number and column.
// It panics if the resulting Position would not be valid
// (as reported by [Position.IsValid]).
func Pos(offset, line, col int) Position {
	pos := Position{Offset: offset, Line: line, Column: col}
	if !pos.IsValid() {
		panic("invalid Pos()")
	}
	return pos
}

// String formats the position as "line:col".
func (pos Position) String() string {
	if !pos.IsValid() {
		return "<invalid position>"
	}
	if pos.Column == 0 {
		return strconv.Itoa(pos.Line)
	}
	return fmt.Sprintf("%d:%d", pos.Line, pos.Column)
}

// IsValid reports whether pos has a positive line number,
// a non-negative column, and a non-negative offset.
// (A zero column indicates line-only position information.)
func (pos Position) IsValid() bool {
	return pos.Line > 0 && pos.Column >= 0 && pos.Offset >= 0
}

// Span is a half-open range of source text.
type Span struct {
	Start Position
	End   Position
}

// Len returns the number of bytes in the span.
func (span Span) Len() int {
	return span.End.Offset - span.Start.Offset
}

// IsValid reports whether both ends of the span are valid
// and the span does not end before it starts.
func (span Span) IsValid() bool {
	return span.Start.IsValid() && span.End.IsValid() && span.Start.Offset <= span.End.Offset
}

// Cover returns the smallest span that contains both span and other.
func (span Span) Cover(other Span) Span {
	if other.Start.Offset < span.Start.Offset {
		span.Start = other.Start
	}
	if other.End.Offset > span.End.Offset {
		span.End = other.End
	}
	return span
}

// String formats the span as "line:col-line:col".
func (span Span) String() string {
	return span.Start.String() + "-" + span.End.String()
}

// TokenKind is an enumeration of valid [Token] types.
// The zero value is [ErrorToken].
type TokenKind int

// [TokenKind] values.
const (
	// ErrorToken indicates an invalid token.
	// The Text field of [Token] will contain the unrecognized source text.
	ErrorToken TokenKind = iota
	// EOFToken indicates the end of the source.
	EOFToken
	// NameToken indicates a name.
	// The Text field of [Token] will contain the identifier.
	NameToken
	// StringToken indicates a literal string.
	// The Text field of [Token] will contain the string as written,
	// including its delimiters.
	StringToken
	// NumeralToken indicates a numeric constant.
	// The Text field of [Token] will contain the constant as written.
	NumeralToken

	// Keywords

	AndToken      // and
	BreakToken    // break
	DoToken       // do
	ElseToken     // else
	ElseifToken   // elseif
	EndToken      // end
	FalseToken    // false
	ForToken      // for
	FunctionToken // function
	GotoToken     // goto
	IfToken       // if
	InToken       // in
	LocalToken    // local
	NilToken      // nil
	NotToken      // not
	OrToken       // or
	RepeatToken   // repeat
	ReturnToken   // return
	ThenToken     // then
	TrueToken     // true
	UntilToken    // until
	WhileToken    // while

	// Operators

	AddToken          // +
	SubToken          // -
	MulToken          // *
	DivToken          // /
	ModToken          // %
	PowToken          // ^
	LenToken          // #
	BitAndToken       // &
	BitXorToken       // ~
	BitOrToken        // |
	LShiftToken       // <<
	RShiftToken       // >>
	IntDivToken       // //
	EqualToken        // ==
	NotEqualToken     // ~=
	LessEqualToken    // <=
	GreaterEqualToken // >=
	LessToken         // <
	GreaterToken      // >
	AssignToken       // =
	LParenToken       // (
	RParenToken       // )
	LBraceToken       // {
	RBraceToken       // }
	LBracketToken     // [
	RBracketToken     // ]
	LabelToken        // ::
	SemiToken         // ;
	ColonToken        // :
	CommaToken        // ,
	DotToken          // .
	ConcatToken       // ..
	VarargToken       // ...

	numTokenKinds = iota
)

var tokenKindStrings = [numTokenKinds]string{
	ErrorToken:   "<error>",
	EOFToken:     "<eof>",
	NameToken:    "<name>",
	StringToken:  "<string>",
	NumeralToken: "<number>",

	AndToken:      "and",
	BreakToken:    "break",
	DoToken:       "do",
	ElseToken:     "else",
	ElseifToken:   "elseif",
	EndToken:      "end",
	FalseToken:    "false",
	ForToken:      "for",
	FunctionToken: "function",
	GotoToken:     "goto",
	IfToken:       "if",
	InToken:       "in",
	LocalToken:    "local",
	NilToken:      "nil",
	NotToken:      "not",
	OrToken:       "or",
	RepeatToken:   "repeat",
	ReturnToken:   "return",
	ThenToken:     "then",
	TrueToken:     "true",
	UntilToken:    "until",
	WhileToken:    "while",

	AddToken:          "+",
	SubToken:          "-",
	MulToken:          "*",
	DivToken:          "/",
	ModToken:          "%",
	PowToken:          "^",
	LenToken:          "#",
	BitAndToken:       "&",
	BitXorToken:       "~",
	BitOrToken:        "|",
	LShiftToken:       "<<",
	RShiftToken:       ">>",
	IntDivToken:       "//",
	EqualToken:        "==",
	NotEqualToken:     "~=",
	LessEqualToken:    "<=",
	GreaterEqualToken: ">=",
	LessToken:         "<",
	GreaterToken:      ">",
	AssignToken:       "=",
	LParenToken:       "(",
	RParenToken:       ")",
	LBraceToken:       "{",
	RBraceToken:       "}",
	LBracketToken:     "[",
	RBracketToken:     "]",
	LabelToken:        "::",
	SemiToken:         ";",
	ColonToken:        ":",
	CommaToken:        ",",
	DotToken:          ".",
	ConcatToken:       "..",
	VarargToken:       "...",
}

// String returns the kind as it appears in Lua source
// or a bracketed description like "<name>" for variable-text kinds.
func (k TokenKind) String() string {
	if !k.IsValid() {
		return "TokenKind(" + strconv.Itoa(int(k)) + ")"
	}
	return tokenKindStrings[k]
}

// Name returns the kind's stable identifier used in serialized token streams
// (e.g. "End" or "TwoEqual").
func (k TokenKind) Name() string {
	if !k.IsValid() {
		return "TokenKind(" + strconv.Itoa(int(k)) + ")"
	}
	return tokenKindNames[k]
}

// ParseTokenKindName returns the kind with the given [TokenKind.Name].
func ParseTokenKindName(name string) (TokenKind, bool) {
	for k, n := range tokenKindNames {
		if n == name {
			return TokenKind(k), true
		}
	}
	return ErrorToken, false
}

// IsValid reports whether k is one of the defined [TokenKind] constants.
func (k TokenKind) IsValid() bool {
	return 0 <= k && k < numTokenKinds
}

// IsKeyword reports whether k is a reserved word.
func (k TokenKind) IsKeyword() bool {
	return AndToken <= k && k <= WhileToken
}

// IsOperator reports whether k is an operator or punctuator.
func (k TokenKind) IsOperator() bool {
	return AddToken <= k && k <= VarargToken
}

var tokenKindNames = [numTokenKinds]string{
	ErrorToken:        "Error",
	EOFToken:          "Eof",
	NameToken:         "Identifier",
	StringToken:       "StringLiteral",
	NumeralToken:      "Number",
	AndToken:          "And",
	BreakToken:        "Break",
	DoToken:           "Do",
	ElseToken:         "Else",
	ElseifToken:       "ElseIf",
	EndToken:          "End",
	FalseToken:        "False",
	ForToken:          "For",
	FunctionToken:     "Function",
	GotoToken:         "Goto",
	IfToken:           "If",
	InToken:           "In",
	LocalToken:        "Local",
	NilToken:          "Nil",
	NotToken:          "Not",
	OrToken:           "Or",
	RepeatToken:       "Repeat",
	ReturnToken:       "Return",
	ThenToken:         "Then",
	TrueToken:         "True",
	UntilToken:        "Until",
	WhileToken:        "While",
	AddToken:          "Plus",
	SubToken:          "Minus",
	MulToken:          "Star",
	DivToken:          "Slash",
	ModToken:          "Percent",
	PowToken:          "Caret",
	LenToken:          "Hash",
	BitAndToken:       "Ampersand",
	BitXorToken:       "Tilde",
	BitOrToken:        "Pipe",
	LShiftToken:       "DoubleLessThan",
	RShiftToken:       "DoubleGreaterThan",
	IntDivToken:       "DoubleSlash",
	EqualToken:        "TwoEqual",
	NotEqualToken:     "TildeEqual",
	LessEqualToken:    "LessThanEqual",
	GreaterEqualToken: "GreaterThanEqual",
	LessToken:         "LessThan",
	GreaterToken:      "GreaterThan",
	AssignToken:       "Equal",
	LParenToken:       "LeftParen",
	RParenToken:       "RightParen",
	LBraceToken:       "LeftBrace",
	RBraceToken:       "RightBrace",
	LBracketToken:     "LeftBracket",
	RBracketToken:     "RightBracket",
	LabelToken:        "TwoColons",
	SemiToken:         "Semicolon",
	ColonToken:        "Colon",
	CommaToken:        "Comma",
	DotToken:          "Dot",
	ConcatToken:       "TwoDots",
	VarargToken:       "Ellipsis",
}

var keywords = map[string]TokenKind{
	"and":      AndToken,
	"break":    BreakToken,
	"do":       DoToken,
	"else":     ElseToken,
	"elseif":   ElseifToken,
	"end":      EndToken,
	"false":    FalseToken,
	"for":      ForToken,
	"function": FunctionToken,
	"goto":     GotoToken,
	"if":       IfToken,
	"in":       InToken,
	"local":    LocalToken,
	"nil":      NilToken,
	"not":      NotToken,
	"or":       OrToken,
	"repeat":   RepeatToken,
	"return":   ReturnToken,
	"then":     ThenToken,
	"true":     TrueToken,
	"until":    UntilToken,
	"while":    WhileToken,
}
