// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lualex

import (
	"fmt"
	"iter"
	"math/bits"
	"strings"
)

// TokenSet is a set of [TokenKind] values.
// The zero value is an empty set.
type TokenSet struct {
	word uint64
}

// Every TokenKind must fit in a single word.
var _ [64 - numTokenKinds]struct{}

// NewTokenSet returns a new set that contains the arguments passed to it.
func NewTokenSet(kinds ...TokenKind) TokenSet {
	var s TokenSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// With returns a set that contains the elements of s and k.
func (s TokenSet) With(k TokenKind) TokenSet {
	if !k.IsValid() {
		return s
	}
	s.word |= 1 << uint(k)
	return s
}

// Union returns the set of kinds in either s or other.
func (s TokenSet) Union(other TokenSet) TokenSet {
	return TokenSet{s.word | other.word}
}

// Has reports whether the set contains k.
func (s TokenSet) Has(k TokenKind) bool {
	return k.IsValid() && s.word&(1<<uint(k)) != 0
}

// Len returns the number of elements in the set.
func (s TokenSet) Len() int {
	return bits.OnesCount64(s.word)
}

// IsEmpty reports whether the set has no elements.
func (s TokenSet) IsEmpty() bool {
	return s.word == 0
}

// All returns an iterator of the elements of s.
// Elements are in ascending order.
func (s TokenSet) All() iter.Seq[TokenKind] {
	return func(yield func(TokenKind) bool) {
		for w := s.word; w != 0; w &= w - 1 {
			if !yield(TokenKind(bits.TrailingZeros64(w))) {
				return
			}
		}
	}
}

// String formats the set like "{'end', 'else'}".
func (s TokenSet) String() string {
	sb := new(strings.Builder)
	sb.WriteString("{")
	first := true
	for k := range s.All() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(sb, "'%v'", k)
	}
	sb.WriteString("}")
	return sb.String()
}
