// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package luaparse

import "zb.256lights.llc/luaparse/lualex"

// precedence is the left and right binding power of a binary operator.
// An operator is right associative if its right power is lower than its left.
type precedence struct {
	left  uint8
	right uint8
}

// binaryPrecedence is the precedence table for binary operators,
// indexed by token kind.
// Kinds that are not binary operators have a zero entry.
//
// Equivalent to `priority` in upstream Lua.
var binaryPrecedence = [...]precedence{
	lualex.AddToken:          {10, 10},
	lualex.SubToken:          {10, 10},
	lualex.MulToken:          {11, 11},
	lualex.ModToken:          {11, 11},
	lualex.PowToken:          {14, 13}, // right associative
	lualex.DivToken:          {11, 11},
	lualex.IntDivToken:       {11, 11},
	lualex.BitAndToken:       {6, 6},
	lualex.BitOrToken:        {4, 4},
	lualex.BitXorToken:       {5, 5},
	lualex.LShiftToken:       {7, 7},
	lualex.RShiftToken:       {7, 7},
	lualex.ConcatToken:       {9, 8}, // right associative
	lualex.EqualToken:        {3, 3},
	lualex.LessToken:         {3, 3},
	lualex.LessEqualToken:    {3, 3},
	lualex.NotEqualToken:     {3, 3},
	lualex.GreaterToken:      {3, 3},
	lualex.GreaterEqualToken: {3, 3},
	lualex.AndToken:          {2, 2},
	lualex.OrToken:           {1, 1},
}

// unaryPrecedence is the right binding power of all unary operators.
//
// Equivalent to `UNARY_PRIORITY` in upstream Lua.
const unaryPrecedence = 12

// binaryOperator returns the precedence of the binary operator k.
// ok is false if k is not a binary operator.
func binaryOperator(k lualex.TokenKind) (prec precedence, ok bool) {
	if k < 0 || int(k) >= len(binaryPrecedence) {
		return precedence{}, false
	}
	prec = binaryPrecedence[k]
	return prec, prec.left > 0
}

// isUnaryOperator reports whether k is a prefix operator.
func isUnaryOperator(k lualex.TokenKind) bool {
	return k == lualex.NotToken ||
		k == lualex.SubToken ||
		k == lualex.LenToken ||
		k == lualex.BitXorToken
}
