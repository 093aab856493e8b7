// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lualex

import "strconv"

// Trivia is source text that carries no syntactic meaning.
// Trivia is attached to the token that follows it.
type Trivia struct {
	Kind TriviaKind
	Text string
	Span Span
}

// TriviaKind is an enumeration of [Trivia] types.
type TriviaKind int

// [TriviaKind] values.
const (
	// WhitespaceTrivia is a maximal run of spaces, tabs, and line breaks.
	WhitespaceTrivia TriviaKind = 1 + iota
	// CommentTrivia is a short ("--") or long ("--[[ ]]") comment.
	// Short comments do not include the line break that ends them.
	CommentTrivia
	// ShebangTrivia is a first line that starts with "#".
	// It does not include the line break that ends it.
	ShebangTrivia
)

// String returns the kind's serialized name.
func (k TriviaKind) String() string {
	switch k {
	case WhitespaceTrivia:
		return "Whitespace"
	case CommentTrivia:
		return "Comment"
	case ShebangTrivia:
		return "Shebang"
	default:
		return "TriviaKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ParseTriviaKind returns the kind whose String method returns s.
func ParseTriviaKind(s string) (TriviaKind, bool) {
	for k := WhitespaceTrivia; k <= ShebangTrivia; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}
