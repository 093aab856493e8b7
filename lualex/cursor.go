// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lualex

// Cursor is a lookahead and backtracking view over a materialized token sequence.
// The tokens are borrowed: pointers returned by a Cursor point into the slice
// passed to [NewCursor].
type Cursor struct {
	tokens []Token
	i      int
}

// A Mark is a saved [Cursor] position.
type Mark struct {
	i int
}

// NewCursor returns a new [Cursor] positioned at the first token.
// If tokens does not end with an [EOFToken],
// NewCursor appends one positioned at the end of the last token.
func NewCursor(tokens []Token) *Cursor {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != EOFToken {
		pos := Position{Line: 1, Column: 1}
		if len(tokens) > 0 {
			pos = tokens[len(tokens)-1].Span.End
		}
		tokens = append(tokens[:len(tokens):len(tokens)], Token{
			Kind: EOFToken,
			Span: Span{Start: pos, End: pos},
		})
	}
	return &Cursor{tokens: tokens}
}

// Current returns the token at the cursor.
func (c *Cursor) Current() *Token {
	return &c.tokens[c.i]
}

// Peek returns the token n positions after the current one.
// Peek(0) is equivalent to [Cursor.Current].
// Looking past the end returns the final [EOFToken].
func (c *Cursor) Peek(n int) *Token {
	i := c.i + n
	if i < 0 {
		i = 0
	}
	if i >= len(c.tokens) {
		i = len(c.tokens) - 1
	}
	return &c.tokens[i]
}

// Advance returns the current token and moves the cursor past it.
// The cursor never moves past the final [EOFToken].
func (c *Cursor) Advance() *Token {
	tok := &c.tokens[c.i]
	if c.i < len(c.tokens)-1 {
		c.i++
	}
	return tok
}

// Prev returns the most recently consumed token
// or nil if no token has been consumed.
func (c *Cursor) Prev() *Token {
	if c.i == 0 {
		return nil
	}
	return &c.tokens[c.i-1]
}

// Checkpoint returns a [Mark] for the cursor's current position.
func (c *Cursor) Checkpoint() Mark {
	return Mark{c.i}
}

// Restore moves the cursor back to a position saved with [Cursor.Checkpoint].
func (c *Cursor) Restore(m Mark) {
	c.i = m.i
}

// Len returns the number of tokens, including the final [EOFToken].
func (c *Cursor) Len() int {
	return len(c.tokens)
}
