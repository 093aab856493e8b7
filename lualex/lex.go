// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

// Package lualex provides a lossless scanner that splits Lua source
// into [Lua lexical elements].
//
// Every byte of the source belongs either to a [Token] or to the [Trivia]
// attached to the token that follows it,
// so concatenating trivia and token text reproduces the source exactly.
// The scanner never stops at a malformed input:
// it reports an [*Error] and keeps going.
//
// [Lua lexical elements]: https://www.lua.org/manual/5.4/manual.html#3.1
package lualex

import (
	"unicode/utf8"
)

// A Scanner splits a Lua source string into tokens.
type Scanner struct {
	src  string
	pos  Position
	errs []*Error
}

// NewScanner returns a [Scanner] that reads from src.
func NewScanner(src string) *Scanner {
	return &Scanner{
		src: src,
		pos: Position{Line: 1, Column: 1},
	}
}

// Tokenize splits src into tokens.
// The returned slice always ends with exactly one [EOFToken].
// Lexical errors are returned in the order they were encountered.
func Tokenize(src string) ([]Token, []*Error) {
	s := NewScanner(src)
	var tokens []Token
	for {
		tok := s.Scan()
		tokens = append(tokens, tok)
		if tok.Kind == EOFToken {
			return tokens, s.Errors()
		}
	}
}

// Errors returns the errors encountered so far.
func (s *Scanner) Errors() []*Error {
	return s.errs
}

// Scan returns the next [Token] from the source.
// At the end of the source, Scan returns an [EOFToken]
// holding any trailing trivia.
// Subsequent calls return [EOFToken] with no trivia.
func (s *Scanner) Scan() Token {
	trivia := s.trivia()
	start := s.pos
	if s.atEOF() {
		return Token{
			Kind:          EOFToken,
			Span:          Span{Start: start, End: start},
			LeadingTrivia: trivia,
		}
	}
	kind := s.token()
	return Token{
		Kind:          kind,
		Text:          s.src[start.Offset:s.pos.Offset],
		Span:          Span{Start: start, End: s.pos},
		LeadingTrivia: trivia,
	}
}

func (s *Scanner) trivia() []Trivia {
	var trivia []Trivia
	if s.pos.Offset == 0 && len(s.src) > 0 && s.src[0] == '#' {
		start := s.pos
		for !s.atEOF() && !isNewline(s.peek(0)) {
			s.readByte()
		}
		trivia = append(trivia, s.makeTrivia(ShebangTrivia, start))
	}

	for !s.atEOF() {
		start := s.pos
		switch c := s.peek(0); {
		case isSpace(c):
			for !s.atEOF() && isSpace(s.peek(0)) {
				s.readByte()
			}
			trivia = append(trivia, s.makeTrivia(WhitespaceTrivia, start))
		case c == '-' && s.peek(1) == '-':
			s.readByte()
			s.readByte()
			if level, ok := s.longOpenBracket(0); ok {
				s.skip(level + 2)
				if !s.findClosingLongBracket(level) {
					s.errorf(UnterminatedLongString, Span{Start: start, End: s.pos}, "unfinished long comment")
				}
			} else {
				for !s.atEOF() && !isNewline(s.peek(0)) {
					s.readByte()
				}
			}
			trivia = append(trivia, s.makeTrivia(CommentTrivia, start))
		default:
			return trivia
		}
	}
	return trivia
}

func (s *Scanner) makeTrivia(kind TriviaKind, start Position) Trivia {
	return Trivia{
		Kind: kind,
		Text: s.src[start.Offset:s.pos.Offset],
		Span: Span{Start: start, End: s.pos},
	}
}

// token consumes a single token starting at a non-trivia byte
// and returns its kind.
func (s *Scanner) token() TokenKind {
	start := s.pos
	c := s.readByte()
	switch {
	case isLetter(c) || c == '_':
		for !s.atEOF() && isAlnum(s.peek(0)) {
			s.readByte()
		}
		if kind, isKeyword := keywords[s.src[start.Offset:s.pos.Offset]]; isKeyword {
			return kind
		}
		return NameToken
	case isDigit(c) || c == '.' && isDigit(s.peek(0)):
		s.numeral(start, c)
		return NumeralToken
	case c == '\'' || c == '"':
		s.shortLiteralString(start, c)
		return StringToken
	case c == '[':
		level, ok := s.longOpenBracket(-1)
		if !ok {
			return LBracketToken
		}
		s.skip(level + 1)
		if !s.findClosingLongBracket(level) {
			s.errorf(UnterminatedLongString, Span{Start: start, End: s.pos}, "unfinished long string")
		}
		return StringToken
	case c == '+':
		return AddToken
	case c == '-':
		return SubToken
	case c == '*':
		return MulToken
	case c == '/':
		if s.next('/') {
			return IntDivToken
		}
		return DivToken
	case c == '%':
		return ModToken
	case c == '^':
		return PowToken
	case c == '#':
		return LenToken
	case c == '&':
		return BitAndToken
	case c == '~':
		if s.next('=') {
			return NotEqualToken
		}
		return BitXorToken
	case c == '|':
		return BitOrToken
	case c == '<':
		switch {
		case s.next('<'):
			return LShiftToken
		case s.next('='):
			return LessEqualToken
		default:
			return LessToken
		}
	case c == '>':
		switch {
		case s.next('>'):
			return RShiftToken
		case s.next('='):
			return GreaterEqualToken
		default:
			return GreaterToken
		}
	case c == '=':
		if s.next('=') {
			return EqualToken
		}
		return AssignToken
	case c == '(':
		return LParenToken
	case c == ')':
		return RParenToken
	case c == '{':
		return LBraceToken
	case c == '}':
		return RBraceToken
	case c == ']':
		return RBracketToken
	case c == ':':
		if s.next(':') {
			return LabelToken
		}
		return ColonToken
	case c == ';':
		return SemiToken
	case c == ',':
		return CommaToken
	case c == '.':
		if !s.next('.') {
			return DotToken
		}
		if s.next('.') {
			return VarargToken
		}
		return ConcatToken
	default:
		// Consume the rest of a multi-byte UTF-8 sequence
		// so that the error token holds a whole character.
		if c >= utf8.RuneSelf {
			_, size := utf8.DecodeRuneInString(s.src[start.Offset:])
			s.skip(size - 1)
		}
		text := s.src[start.Offset:s.pos.Offset]
		s.errorf(UnexpectedSymbol, Span{Start: start, End: s.pos}, "unexpected symbol near '%s'", text)
		return ErrorToken
	}
}

// numeral consumes the rest of a numeral whose first byte is first,
// the same way upstream Lua's read_numeral does,
// then validates the result.
func (s *Scanner) numeral(start Position, first byte) {
	expo := [2]byte{'E', 'e'}
	if first == '0' && (s.peek(0) == 'x' || s.peek(0) == 'X') {
		s.readByte()
		expo = [2]byte{'P', 'p'}
	}
loop:
	for !s.atEOF() {
		c := s.peek(0)
		switch {
		case c == expo[0] || c == expo[1]:
			s.readByte()
			if c := s.peek(0); c == '+' || c == '-' {
				s.readByte()
			}
		case isHexDigit(c) || c == '.':
			s.readByte()
		default:
			break loop
		}
	}
	// A numeral touching a letter is malformed.
	// Take the whole run so the error covers it.
	for !s.atEOF() && isAlnum(s.peek(0)) {
		s.readByte()
	}

	text := s.src[start.Offset:s.pos.Offset]
	if _, err := ParseNumber(text); err != nil {
		s.errorf(MalformedNumber, Span{Start: start, End: s.pos}, "malformed number near '%s'", text)
	}
}

// shortLiteralString consumes the rest of a quoted string.
// The opening delimiter has already been consumed.
func (s *Scanner) shortLiteralString(start Position, delim byte) {
	for {
		if s.atEOF() || isNewline(s.peek(0)) {
			s.errorf(UnterminatedString, Span{Start: start, End: s.pos}, "unfinished string")
			return
		}
		c := s.readByte()
		switch c {
		case delim:
			text := s.src[start.Offset:s.pos.Offset]
			if _, bad, err := unquoteShort(text); err != nil {
				escStart := s.positionAt(start, bad)
				escEnd := s.positionAt(escStart, escapeLen(text[bad:]))
				s.errorf(InvalidEscape, Span{Start: escStart, End: escEnd}, "%v", err)
			}
			return
		case '\\':
			if s.atEOF() {
				continue
			}
			if s.readByte() == 'z' {
				for !s.atEOF() && isSpace(s.peek(0)) {
					s.readByte()
				}
			}
		}
	}
}

// longOpenBracket reports whether the bytes starting at s.peek(i)
// form an opening long bracket ("[", zero or more "=", "[").
// If so, it returns the bracket's level (number of equal signs).
// longOpenBracket does not consume any bytes.
func (s *Scanner) longOpenBracket(i int) (level int, ok bool) {
	if s.peek(i) != '[' {
		return 0, false
	}
	i++
	for s.peek(i) == '=' {
		i++
		level++
	}
	return level, s.peek(i) == '['
}

// findClosingLongBracket consumes bytes until after
// a closing long bracket of the given level,
// or until the end of the source.
// It reports whether the closing bracket was found.
// (For example, a closing long bracket of level 4 is "]====]".)
func (s *Scanner) findClosingLongBracket(level int) bool {
	for !s.atEOF() {
		if s.readByte() != ']' {
			continue
		}
		n := 0
		for s.peek(n) == '=' {
			n++
		}
		if n == level && s.peek(n) == ']' {
			s.skip(n + 1)
			return true
		}
	}
	return false
}

func (s *Scanner) atEOF() bool {
	return s.pos.Offset >= len(s.src)
}

// peek returns the byte i bytes past the current position
// or zero if that is past the end of the source.
func (s *Scanner) peek(i int) byte {
	if j := s.pos.Offset + i; 0 <= j && j < len(s.src) {
		return s.src[j]
	}
	return 0
}

// next consumes the next byte if it is c.
func (s *Scanner) next(c byte) bool {
	if s.atEOF() || s.peek(0) != c {
		return false
	}
	s.readByte()
	return true
}

// readByte consumes a byte and returns it.
// Line breaks ("\n", "\r", "\n\r", or "\r\n") are consumed as a unit.
func (s *Scanner) readByte() byte {
	c := s.src[s.pos.Offset]
	s.pos = advancePosition(s.src, s.pos)
	return c
}

func (s *Scanner) skip(n int) {
	for range n {
		if s.atEOF() {
			return
		}
		s.readByte()
	}
}

// positionAt returns the position n bytes after start.
func (s *Scanner) positionAt(start Position, n int) Position {
	pos := start
	for pos.Offset < start.Offset+n && pos.Offset < len(s.src) {
		pos = advancePosition(s.src, pos)
	}
	return pos
}

// advancePosition returns the position after the byte or line break at pos.
func advancePosition(src string, pos Position) Position {
	c := src[pos.Offset]
	pos.Offset++
	if !isNewline(c) {
		pos.Column++
		return pos
	}
	if pos.Offset < len(src) {
		if c2 := src[pos.Offset]; isNewline(c2) && c2 != c {
			pos.Offset++
		}
	}
	pos.Line++
	pos.Column = 1
	return pos
}

// isSpace reports whether the given byte represents a space in Lua source code.
// According to the [reference],
// "[i]n source code, Lua recognizes as spaces the standard ASCII whitespace characters
// space, form feed, newline, carriage return, horizontal tab, and vertical tab."
//
// [reference]: https://www.lua.org/manual/5.4/manual.html#:~:text=In%20source%20code%2C%20Lua%20recognizes%20as%20spaces,.
func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r' || c == '\f' || c == '\v'
}

func isNewline(c byte) bool {
	return c == '\n' || c == '\r'
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isAlnum(c byte) bool {
	return c == '_' || isLetter(c) || isDigit(c)
}

func isHexDigit(c byte) bool {
	return isDigit(c) || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
