// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

// Package luaparse provides a lossless, error-tolerant parser for Lua 5.4 source.
//
// [Parse] always produces a syntax tree unless the input is damaged beyond recovery.
// Problems are reported as a list of [*ParseError]s
// and the tree is patched with synthetic tokens, [luaast.BadStmt] and [luaast.BadExpr] nodes
// so that every byte of input is still accounted for:
// printing the tree with [luaast.Print] reproduces the input exactly.
package luaparse

import (
	"fmt"

	"zb.256lights.llc/luaparse/luaast"
	"zb.256lights.llc/luaparse/lualex"
)

// depthLimit is the maximum recursion depth for syntax constructs.
//
// Equivalent to `LUAI_MAXCCALLS` in upstream Lua.
const depthLimit = 200

// OutcomeKind is an enumeration of the ways a parse can end.
type OutcomeKind int

// [OutcomeKind] values.
const (
	// Complete indicates the source parsed without any errors.
	Complete OutcomeKind = iota
	// Recovered indicates the source had errors,
	// but the parser was able to produce a syntax tree.
	Recovered
	// Fatal indicates the parser could not produce a meaningful syntax tree.
	Fatal
)

// String returns "Complete", "Recovered", or "Fatal".
func (kind OutcomeKind) String() string {
	switch kind {
	case Complete:
		return "Complete"
	case Recovered:
		return "Recovered"
	case Fatal:
		return "Fatal"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(kind))
	}
}

// Outcome is the result of a [Parse] call.
type Outcome struct {
	Kind OutcomeKind
	// Chunk is the syntax tree.
	// It is nil if and only if Kind is [Fatal].
	Chunk *luaast.Chunk
	// Errors is the list of problems found, ordered by position.
	// It is empty if and only if Kind is [Complete].
	Errors ErrorList
	// Source is the text that was parsed.
	Source string
}

// Err returns the outcome's errors as an error
// or nil if the parse was [Complete].
func (o *Outcome) Err() error {
	return o.Errors.Err()
}

// Parse parses a Lua source file.
// Parse never fails outright: see [Outcome] for how problems are reported.
func Parse(source string) *Outcome {
	p := newParser(source)
	return p.run(func() *luaast.Chunk {
		block := p.block(true)
		return &luaast.Chunk{
			Block: block,
			EOF:   p.c.Advance(),
		}
	})
}

// ParseExpression parses source as a single Lua expression.
// The returned chunk's block holds a single [*luaast.ExprStmt],
// followed by a [*luaast.BadStmt] if there are tokens after the expression.
func ParseExpression(source string) *Outcome {
	p := newParser(source)
	return p.run(func() *luaast.Chunk {
		pos := p.c.Current().Span.Start
		block := &luaast.Block{
			Pos:   pos,
			Stmts: []luaast.Stmt{&luaast.ExprStmt{X: p.expression()}},
		}
		if tok := p.c.Current(); tok.Kind != lualex.EOFToken {
			p.unexpected(lualex.NewTokenSet(lualex.EOFToken), "'<eof>' expected")
			bad := new(luaast.BadStmt)
			for p.c.Current().Kind != lualex.EOFToken {
				bad.Tokens = append(bad.Tokens, p.c.Advance())
			}
			block.Stmts = append(block.Stmts, bad)
		}
		return &luaast.Chunk{
			Block: block,
			EOF:   p.c.Advance(),
		}
	})
}

// parser is the in-progress state of a [Parse] call.
type parser struct {
	c      *lualex.Cursor
	diags  diagnostics
	lexErr []*lualex.Error
	depth  int
	source string

	// firstStmtEnd is the end offset of the first complete top-level statement
	// or -1 if none has been parsed yet.
	firstStmtEnd int
}

// bailout is the panic value used to abandon a parse
// once the depth limit has been exceeded.
type bailout struct{}

func newParser(source string) *parser {
	tokens, lexErrs := lualex.Tokenize(source)
	p := &parser{
		c:            lualex.NewCursor(tokens),
		lexErr:       lexErrs,
		source:       source,
		firstStmtEnd: -1,
	}
	for _, err := range lexErrs {
		p.diags.add(lexError(err))
	}
	return p
}

// Tokenize splits source into tokens without parsing it.
// The last token is always an [lualex.EOFToken]
// and the returned errors are all lexical errors.
func Tokenize(source string) ([]lualex.Token, ErrorList) {
	tokens, lexErrs := lualex.Tokenize(source)
	var errs ErrorList
	for _, err := range lexErrs {
		errs = append(errs, lexError(err))
	}
	return tokens, errs
}

func lexError(err *lualex.Error) *ParseError {
	return &ParseError{
		Kind:    lexErrorKind(err.Kind),
		Span:    err.Span,
		Message: err.Msg,
	}
}

// run calls f to build the syntax tree and classifies the outcome.
func (p *parser) run(f func() *luaast.Chunk) (outcome *Outcome) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := r.(bailout); !ok {
			panic(r)
		}
		outcome = &Outcome{
			Kind:   Fatal,
			Errors: p.diags.sorted(),
			Source: p.source,
		}
	}()

	chunk := f()
	outcome = &Outcome{
		Kind:   Complete,
		Chunk:  chunk,
		Errors: p.diags.sorted(),
		Source: p.source,
	}
	switch {
	case len(outcome.Errors) == 0:
		outcome.Errors = nil
	case p.desynchronized():
		outcome.Kind = Fatal
		outcome.Chunk = nil
	default:
		outcome.Kind = Recovered
	}
	return outcome
}

// desynchronized reports whether an unterminated string or long comment
// swallowed the rest of the input before any top-level statement was completed.
// In that case no statement boundary can be trusted.
func (p *parser) desynchronized() bool {
	for _, err := range p.lexErr {
		if err.Kind != lualex.UnterminatedString && err.Kind != lualex.UnterminatedLongString {
			continue
		}
		if !reachesEOF(p.source, err.Span) {
			continue
		}
		if p.firstStmtEnd < 0 || p.firstStmtEnd > err.Span.Start.Offset {
			return true
		}
	}
	return false
}

// reachesEOF reports whether span ends at the end of source,
// ignoring a trailing line break.
func reachesEOF(source string, span lualex.Span) bool {
	rest := source[span.End.Offset:]
	switch rest {
	case "", "\n", "\r", "\r\n", "\n\r":
		return true
	default:
		return false
	}
}

// enter increments the recursion depth,
// abandoning the parse if it exceeds [depthLimit].
// Each call to enter must be paired with a call to leave.
func (p *parser) enter() {
	p.depth++
	if p.depth > depthLimit {
		tok := p.c.Current()
		p.diags.add(&ParseError{
			Kind:    DepthLimitExceeded,
			Span:    tok.Span,
			Found:   tok,
			Message: fmt.Sprintf("chunk has too many syntax levels (limit is %d)", depthLimit),
		})
		panic(bailout{})
	}
}

func (p *parser) leave() {
	p.depth--
}

// at reports whether the current token is of the given kind.
func (p *parser) at(kind lualex.TokenKind) bool {
	return p.c.Current().Kind == kind
}

// accept consumes the current token if it is of the given kind.
// Otherwise, accept returns nil.
func (p *parser) accept(kind lualex.TokenKind) *lualex.Token {
	if !p.at(kind) {
		return nil
	}
	return p.c.Advance()
}

// expect consumes a token of the given kind.
// If the current token is of a different kind,
// expect reports the missing token and returns a synthetic one.
func (p *parser) expect(kind lualex.TokenKind) *lualex.Token {
	if tok := p.accept(kind); tok != nil {
		return tok
	}
	return p.missing(kind, fmt.Sprintf("'%v' expected", kind))
}

// checkMatch consumes the closing token of a bracketed construct.
// If the closing token is absent, the error message refers back to open
// when it is on a different line.
//
// Equivalent to `check_match` in upstream Lua.
func (p *parser) checkMatch(open *lualex.Token, close lualex.TokenKind) *lualex.Token {
	if tok := p.accept(close); tok != nil {
		return tok
	}
	var msg string
	if open.Synthetic || p.c.Current().Span.Start.Line == open.Span.Start.Line {
		msg = fmt.Sprintf("'%v' expected", close)
	} else {
		msg = fmt.Sprintf("'%v' expected (to close '%v' at %v)", close, open.Kind, open.Span.Start)
	}
	return p.missing(close, msg)
}

// name consumes a name token,
// synthesizing one if the current token is not a name.
//
// Equivalent to `str_checkname` in upstream Lua.
func (p *parser) name() *lualex.Token {
	if tok := p.accept(lualex.NameToken); tok != nil {
		return tok
	}
	return p.missing(lualex.NameToken, "<name> expected")
}

// missing reports a [MissingExpectedToken] error at the current token
// and returns a synthetic token of the given kind
// placed right after the previous token.
func (p *parser) missing(kind lualex.TokenKind, msg string) *lualex.Token {
	tok := p.c.Current()
	p.report(&ParseError{
		Kind:     MissingExpectedToken,
		Span:     tok.Span,
		Expected: lualex.NewTokenSet(kind),
		Found:    tok,
		Message:  msg,
	})
	return lualex.Synthesize(kind, p.insertPos())
}

// unexpected reports that the current token cannot start or continue a construct.
// At the end of input, the error is an [UnexpectedEndOfInput].
func (p *parser) unexpected(expected lualex.TokenSet, msg string) {
	tok := p.c.Current()
	kind := UnexpectedToken
	if tok.Kind == lualex.EOFToken {
		kind = UnexpectedEndOfInput
	}
	p.report(&ParseError{
		Kind:     kind,
		Span:     tok.Span,
		Expected: expected,
		Found:    tok,
		Message:  msg,
	})
}

// report adds a syntax error to the diagnostics.
// Errors found at an [lualex.ErrorToken] are dropped,
// since the scanner already reported the bad symbol.
func (p *parser) report(err *ParseError) {
	if err.Found != nil && err.Found.Kind == lualex.ErrorToken {
		return
	}
	p.diags.add(err)
}

// insertPos returns the position at which a synthetic token should be placed.
func (p *parser) insertPos() lualex.Position {
	if prev := p.c.Prev(); prev != nil {
		return prev.Span.End
	}
	return p.c.Current().Span.Start
}

// isBlockFollow reports whether a token terminates a block.
//
// Equivalent to `block_follow` in upstream Lua
// with the withuntil parameter set.
func isBlockFollow(k lualex.TokenKind) bool {
	return blockFollow.Has(k)
}

var (
	blockFollow = lualex.NewTokenSet(
		lualex.EOFToken,
		lualex.ElseToken,
		lualex.ElseifToken,
		lualex.EndToken,
		lualex.UntilToken,
	)

	// statementStart is the set of keywords that can only begin a statement.
	statementStart = lualex.NewTokenSet(
		lualex.BreakToken,
		lualex.DoToken,
		lualex.ForToken,
		lualex.FunctionToken,
		lualex.GotoToken,
		lualex.IfToken,
		lualex.LocalToken,
		lualex.RepeatToken,
		lualex.ReturnToken,
		lualex.WhileToken,
		lualex.LabelToken,
		lualex.SemiToken,
	)
)

// skip consumes tokens into a [luaast.BadStmt] after a statement-level error
// found on the given line.
// It always consumes at least one token unless the current token is EOF,
// and stops before a block boundary, a statement keyword,
// or a name or "(" that begins a later line.
func (p *parser) skip(errLine int) *luaast.BadStmt {
	bad := new(luaast.BadStmt)
	if !p.at(lualex.EOFToken) {
		bad.Tokens = append(bad.Tokens, p.c.Advance())
	}
	for {
		tok := p.c.Current()
		if isBlockFollow(tok.Kind) || statementStart.Has(tok.Kind) {
			return bad
		}
		if (tok.Kind == lualex.NameToken || tok.Kind == lualex.LParenToken) && tok.Span.Start.Line > errLine {
			return bad
		}
		bad.Tokens = append(bad.Tokens, p.c.Advance())
	}
}
