// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package luaparse

import (
	"zb.256lights.llc/luaparse/luaast"
	"zb.256lights.llc/luaparse/lualex"
)

// expressionStart is the set of tokens that can begin an expression.
var expressionStart = lualex.NewTokenSet(
	lualex.NameToken,
	lualex.StringToken,
	lualex.NumeralToken,
	lualex.NilToken,
	lualex.TrueToken,
	lualex.FalseToken,
	lualex.VarargToken,
	lualex.FunctionToken,
	lualex.LParenToken,
	lualex.LBraceToken,
	lualex.NotToken,
	lualex.SubToken,
	lualex.LenToken,
	lualex.BitXorToken,
)

func canStartExpression(k lualex.TokenKind) bool {
	return expressionStart.Has(k)
}

// expressionList parses one or more comma-separated expressions.
//
//	explist ::= expr {',' expr}
//
// Equivalent to `explist` in upstream Lua.
func (p *parser) expressionList() luaast.List[luaast.Expr] {
	var list luaast.List[luaast.Expr]
	list.Items = append(list.Items, p.expression())
	for p.at(lualex.CommaToken) {
		list.Seps = append(list.Seps, p.c.Advance())
		list.Items = append(list.Items, p.expression())
	}
	return list
}

// expression parses an expression.
//
// Equivalent to `expr` in upstream Lua.
func (p *parser) expression() luaast.Expr {
	return p.subExpression(0)
}

// subExpression parses an expression
// whose binary operators bind tighter than limit.
//
//	subexpr ::= (simpleexp | unop subexpr) { binop subexpr }
//
// Equivalent to `subexpr` in upstream Lua.
func (p *parser) subExpression(limit uint8) luaast.Expr {
	p.enter()
	defer p.leave()

	var x luaast.Expr
	if isUnaryOperator(p.c.Current().Kind) {
		op := p.c.Advance()
		x = &luaast.UnaryExpr{
			Op: op,
			X:  p.subExpression(unaryPrecedence),
		}
	} else {
		x = p.simpleExpression()
	}

	// Expand while operators have priorities higher than limit.
	for {
		prec, ok := binaryOperator(p.c.Current().Kind)
		if !ok || prec.left <= limit {
			return x
		}
		op := p.c.Advance()
		x = &luaast.BinaryExpr{
			X:  x,
			Op: op,
			Y:  p.subExpression(prec.right),
		}
	}
}

// simpleExpression parses a literal, constructor, function, or suffixed expression.
//
//	simpleexp ::= FLT | INT | STRING | NIL | TRUE | FALSE | ... |
//	              constructor | FUNCTION body | suffixedexp
//
// Equivalent to `simpleexp` in upstream Lua.
func (p *parser) simpleExpression() luaast.Expr {
	switch p.c.Current().Kind {
	case lualex.NumeralToken:
		return &luaast.NumberExpr{Token: p.c.Advance()}
	case lualex.StringToken:
		return &luaast.StringExpr{Token: p.c.Advance()}
	case lualex.NilToken:
		return &luaast.NilExpr{Token: p.c.Advance()}
	case lualex.TrueToken:
		return &luaast.TrueExpr{Token: p.c.Advance()}
	case lualex.FalseToken:
		return &luaast.FalseExpr{Token: p.c.Advance()}
	case lualex.VarargToken:
		return &luaast.VarargExpr{Token: p.c.Advance()}
	case lualex.LBraceToken:
		return p.constructor()
	case lualex.FunctionToken:
		f := &luaast.FunctionExpr{Function: p.c.Advance()}
		f.Body = p.functionBody(f.Function)
		return f
	default:
		return p.suffixedExpression()
	}
}

// primaryExpression parses a name or a parenthesized expression.
// Anything else is reported and yields a [*luaast.BadExpr]
// without consuming any tokens.
//
//	primaryexp ::= NAME | '(' expr ')'
//
// Equivalent to `primaryexp` in upstream Lua.
func (p *parser) primaryExpression() luaast.Expr {
	switch tok := p.c.Current(); tok.Kind {
	case lualex.NameToken:
		return &luaast.NameExpr{Name: p.c.Advance()}
	case lualex.LParenToken:
		paren := &luaast.ParenExpr{LParen: p.c.Advance()}
		paren.X = p.expression()
		paren.RParen = p.checkMatch(paren.LParen, lualex.RParenToken)
		return paren
	default:
		if tok.Kind == lualex.EOFToken {
			p.unexpected(expressionStart, "expression expected")
		} else {
			p.unexpected(expressionStart, "unexpected symbol")
		}
		return &luaast.BadExpr{Pos: p.insertPos()}
	}
}

// suffixedExpression parses a primary expression
// followed by any number of field selectors, indexes, and calls.
//
//	suffixedexp ::= primaryexp { '.' NAME | '[' exp ']' | ':' NAME funcargs | funcargs }
//
// Equivalent to `suffixedexp` in upstream Lua.
func (p *parser) suffixedExpression() luaast.Expr {
	x := p.primaryExpression()
	if _, bad := x.(*luaast.BadExpr); bad {
		return x
	}
	for {
		switch p.c.Current().Kind {
		case lualex.DotToken:
			dot := p.c.Advance()
			x = &luaast.FieldExpr{
				X:    x,
				Dot:  dot,
				Name: p.name(),
			}
		case lualex.LBracketToken:
			index := &luaast.IndexExpr{
				X:        x,
				LBracket: p.c.Advance(),
			}
			index.Index = p.expression()
			index.RBracket = p.checkMatch(index.LBracket, lualex.RBracketToken)
			x = index
		case lualex.ColonToken:
			call := &luaast.CallExpr{
				Fn:    x,
				Colon: p.c.Advance(),
			}
			call.Method = p.name()
			call.Args = p.functionArguments()
			x = call
		case lualex.LParenToken, lualex.StringToken, lualex.LBraceToken:
			x = &luaast.CallExpr{
				Fn:   x,
				Args: p.functionArguments(),
			}
		default:
			return x
		}
	}
}

// functionArguments parses the arguments of a call.
// If the current token cannot begin an argument list,
// functionArguments reports the problem and returns an empty synthetic list.
//
//	funcargs ::= '(' [ explist ] ')' | constructor | STRING
//
// Equivalent to `funcargs` in upstream Lua.
func (p *parser) functionArguments() luaast.Args {
	switch p.c.Current().Kind {
	case lualex.StringToken:
		return &luaast.StringArgs{String: p.c.Advance()}
	case lualex.LBraceToken:
		return &luaast.TableArgs{Table: p.constructor()}
	case lualex.LParenToken:
		args := &luaast.ParenArgs{LParen: p.c.Advance()}
		if !p.at(lualex.RParenToken) {
			args.List = p.expressionList()
		}
		args.RParen = p.checkMatch(args.LParen, lualex.RParenToken)
		return args
	default:
		tok := p.c.Current()
		p.report(&ParseError{
			Kind:     MissingExpectedToken,
			Span:     tok.Span,
			Expected: lualex.NewTokenSet(lualex.LParenToken, lualex.StringToken, lualex.LBraceToken),
			Found:    tok,
			Message:  "function arguments expected",
		})
		pos := p.insertPos()
		return &luaast.ParenArgs{
			LParen: lualex.Synthesize(lualex.LParenToken, pos),
			RParen: lualex.Synthesize(lualex.RParenToken, pos),
		}
	}
}

// constructor parses a table constructor.
//
//	constructor ::= '{' [ field { sep field } [sep] ] '}'
//	sep ::= ',' | ';'
//
// Equivalent to `constructor` in upstream Lua.
func (p *parser) constructor() *luaast.TableExpr {
	t := &luaast.TableExpr{LBrace: p.c.Advance()}
	for !p.at(lualex.RBraceToken) && canStartField(p.c.Current().Kind) {
		t.Fields.Items = append(t.Fields.Items, p.field())
		sep := p.accept(lualex.CommaToken)
		if sep == nil {
			sep = p.accept(lualex.SemiToken)
		}
		if sep == nil {
			break
		}
		t.Fields.Seps = append(t.Fields.Seps, sep)
	}
	t.RBrace = p.checkMatch(t.LBrace, lualex.RBraceToken)
	return t
}

func canStartField(k lualex.TokenKind) bool {
	return k == lualex.LBracketToken || canStartExpression(k)
}

// field parses a single table constructor field.
//
//	field ::= NAME '=' exp | '[' exp ']' '=' exp | exp
//
// Equivalent to `field` in upstream Lua.
func (p *parser) field() luaast.Field {
	switch {
	case p.at(lualex.NameToken) && p.c.Peek(1).Kind == lualex.AssignToken:
		f := &luaast.NamedField{
			Name:   p.c.Advance(),
			Assign: p.c.Advance(),
		}
		f.Value = p.expression()
		return f
	case p.at(lualex.LBracketToken):
		f := &luaast.KeyedField{LBracket: p.c.Advance()}
		f.Key = p.expression()
		f.RBracket = p.checkMatch(f.LBracket, lualex.RBracketToken)
		f.Assign = p.expect(lualex.AssignToken)
		f.Value = p.expression()
		return f
	default:
		return &luaast.PositionalField{Value: p.expression()}
	}
}

// functionBody parses a function's parameter list and body.
// fn is the "function" keyword, used in error messages.
//
//	body ::= '(' parlist ')' block END
//
// Equivalent to `body` in upstream Lua.
func (p *parser) functionBody(fn *lualex.Token) *luaast.FuncBody {
	body := &luaast.FuncBody{LParen: p.expect(lualex.LParenToken)}
	body.Params = p.parameterList()
	body.RParen = p.expect(lualex.RParenToken)
	body.Body = p.block(false)
	body.End = p.checkMatch(fn, lualex.EndToken)
	return body
}

// parameterList parses a function's parameter names.
//
//	parlist ::= [ {NAME ','} (NAME | '...') ]
//
// Equivalent to `parlist` in upstream Lua.
func (p *parser) parameterList() luaast.List[*luaast.Param] {
	var list luaast.List[*luaast.Param]
	if p.at(lualex.RParenToken) {
		return list
	}
	for {
		switch p.c.Current().Kind {
		case lualex.NameToken:
			list.Items = append(list.Items, &luaast.Param{Name: p.c.Advance()})
		case lualex.VarargToken:
			list.Items = append(list.Items, &luaast.Param{Name: p.c.Advance()})
			return list
		default:
			list.Items = append(list.Items, &luaast.Param{Name: p.name()})
			return list
		}
		sep := p.accept(lualex.CommaToken)
		if sep == nil {
			return list
		}
		list.Seps = append(list.Seps, sep)
	}
}
