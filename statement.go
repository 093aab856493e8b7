// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package luaparse

import (
	"zb.256lights.llc/luaparse/luaast"
	"zb.256lights.llc/luaparse/lualex"
)

// block parses a sequence of statements up to a block boundary.
// A top-level block only ends at EOF:
// other boundary keywords are reported and skipped.
//
// Equivalent to `statlist` in upstream Lua.
func (p *parser) block(topLevel bool) *luaast.Block {
	b := &luaast.Block{Pos: p.c.Current().Span.Start}
	for {
		tok := p.c.Current()
		if tok.Kind == lualex.EOFToken {
			return b
		}
		if isBlockFollow(tok.Kind) {
			if !topLevel {
				return b
			}
			p.unexpected(lualex.NewTokenSet(lualex.EOFToken), "'<eof>' expected")
			b.Stmts = append(b.Stmts, p.skip(tok.Span.Start.Line))
			continue
		}

		if tok.Kind == lualex.ReturnToken {
			ret := p.returnStatement()
			if isBlockFollow(p.c.Current().Kind) {
				b.Return = ret
				return b
			}
			// Keep the misplaced return in sequence with the statements around it.
			msg := "'<eof>' expected"
			if !topLevel {
				msg = "'end' expected"
			}
			p.unexpected(blockFollow, msg)
			b.Stmts = append(b.Stmts, ret)
			continue
		}

		start := p.c.Checkpoint()
		stmt := p.statement()
		if p.c.Checkpoint() == start {
			// No progress. Should not happen, but never loop forever.
			stmt = p.skip(tok.Span.Start.Line)
		}
		b.Stmts = append(b.Stmts, stmt)
		if topLevel && p.firstStmtEnd < 0 {
			if _, bad := stmt.(*luaast.BadStmt); !bad {
				p.firstStmtEnd = stmt.Span().End.Offset
			}
		}
	}
}

// statement parses a single statement other than "return".
//
// Equivalent to `statement` in upstream Lua.
func (p *parser) statement() luaast.Stmt {
	p.enter()
	defer p.leave()

	switch p.c.Current().Kind {
	case lualex.SemiToken:
		return &luaast.EmptyStmt{Semi: p.c.Advance()}
	case lualex.IfToken:
		return p.ifStatement()
	case lualex.WhileToken:
		return p.whileStatement()
	case lualex.DoToken:
		do := p.c.Advance()
		body := p.block(false)
		return &luaast.DoStmt{
			Do:   do,
			Body: body,
			End:  p.checkMatch(do, lualex.EndToken),
		}
	case lualex.ForToken:
		return p.forStatement()
	case lualex.RepeatToken:
		return p.repeatStatement()
	case lualex.FunctionToken:
		return p.functionStatement()
	case lualex.LocalToken:
		if p.c.Peek(1).Kind == lualex.FunctionToken {
			return p.localFunction()
		}
		return p.localStatement()
	case lualex.LabelToken:
		open := p.c.Advance()
		name := p.name()
		return &luaast.LabelStmt{
			Open:  open,
			Name:  name,
			Close: p.expect(lualex.LabelToken),
		}
	case lualex.ReturnToken:
		return p.returnStatement()
	case lualex.BreakToken:
		return &luaast.BreakStmt{Break: p.c.Advance()}
	case lualex.GotoToken:
		g := p.c.Advance()
		return &luaast.GotoStmt{
			Goto:  g,
			Label: p.name(),
		}
	default:
		return p.exprStatement()
	}
}

// ifStatement parses an "if" statement.
//
//	ifstat ::= IF cond THEN block {ELSEIF cond THEN block} [ELSE block] END
//
// Equivalent to `ifstat` in upstream Lua.
func (p *parser) ifStatement() *luaast.IfStmt {
	stmt := &luaast.IfStmt{If: p.c.Advance()}
	stmt.Cond = p.expression()
	stmt.Then = p.expect(lualex.ThenToken)
	stmt.Body = p.block(false)
	for p.at(lualex.ElseifToken) {
		clause := &luaast.ElseIfClause{ElseIf: p.c.Advance()}
		clause.Cond = p.expression()
		clause.Then = p.expect(lualex.ThenToken)
		clause.Body = p.block(false)
		stmt.ElseIfs = append(stmt.ElseIfs, clause)
	}
	if stmt.Else = p.accept(lualex.ElseToken); stmt.Else != nil {
		stmt.ElseBody = p.block(false)
	}
	stmt.End = p.checkMatch(stmt.If, lualex.EndToken)
	return stmt
}

// whileStatement parses a "while" loop.
//
// Equivalent to `whilestat` in upstream Lua.
func (p *parser) whileStatement() *luaast.WhileStmt {
	stmt := &luaast.WhileStmt{While: p.c.Advance()}
	stmt.Cond = p.expression()
	stmt.Do = p.expect(lualex.DoToken)
	stmt.Body = p.block(false)
	stmt.End = p.checkMatch(stmt.While, lualex.EndToken)
	return stmt
}

// repeatStatement parses a "repeat" loop.
//
// Equivalent to `repeatstat` in upstream Lua.
func (p *parser) repeatStatement() *luaast.RepeatStmt {
	stmt := &luaast.RepeatStmt{Repeat: p.c.Advance()}
	stmt.Body = p.block(false)
	stmt.Until = p.checkMatch(stmt.Repeat, lualex.UntilToken)
	stmt.Cond = p.expression()
	return stmt
}

// forStatement parses a numeric or generic "for" loop.
//
// Equivalent to `forstat` in upstream Lua.
func (p *parser) forStatement() luaast.Stmt {
	forToken := p.c.Advance()
	firstName := p.name()
	switch p.c.Current().Kind {
	case lualex.AssignToken:
		return p.numericFor(forToken, firstName)
	case lualex.CommaToken, lualex.InToken:
		return p.genericFor(forToken, firstName)
	default:
		tok := p.c.Current()
		p.report(&ParseError{
			Kind:     MissingExpectedToken,
			Span:     tok.Span,
			Expected: lualex.NewTokenSet(lualex.AssignToken, lualex.InToken),
			Found:    tok,
			Message:  "'=' or 'in' expected",
		})
		stmt := &luaast.GenericForStmt{
			For:   forToken,
			Names: luaast.List[*luaast.NameExpr]{Items: []*luaast.NameExpr{{Name: firstName}}},
			In:    lualex.Synthesize(lualex.InToken, p.insertPos()),
		}
		p.forTail(&stmt.Do, &stmt.Body, &stmt.End, forToken)
		return stmt
	}
}

// numericFor parses the rest of a numeric "for" loop after its variable name.
//
//	fornum ::= NAME = exp , exp [, exp] forbody
//
// Equivalent to `fornum` in upstream Lua.
func (p *parser) numericFor(forToken, name *lualex.Token) *luaast.NumericForStmt {
	stmt := &luaast.NumericForStmt{
		For:    forToken,
		Var:    name,
		Assign: p.c.Advance(),
	}
	stmt.Start = p.expression()
	stmt.LimitComma = p.expect(lualex.CommaToken)
	stmt.Limit = p.expression()
	if stmt.StepComma = p.accept(lualex.CommaToken); stmt.StepComma != nil {
		stmt.Step = p.expression()
	}
	p.forTail(&stmt.Do, &stmt.Body, &stmt.End, forToken)
	return stmt
}

// genericFor parses the rest of a generic "for" loop after its first variable name.
//
//	forlist ::= NAME {, NAME} IN explist forbody
//
// Equivalent to `forlist` in upstream Lua.
func (p *parser) genericFor(forToken, firstName *lualex.Token) *luaast.GenericForStmt {
	stmt := &luaast.GenericForStmt{For: forToken}
	stmt.Names.Items = append(stmt.Names.Items, &luaast.NameExpr{Name: firstName})
	for p.at(lualex.CommaToken) {
		stmt.Names.Seps = append(stmt.Names.Seps, p.c.Advance())
		stmt.Names.Items = append(stmt.Names.Items, &luaast.NameExpr{Name: p.name()})
	}
	stmt.In = p.expect(lualex.InToken)
	stmt.Exprs = p.expressionList()
	p.forTail(&stmt.Do, &stmt.Body, &stmt.End, forToken)
	return stmt
}

// forTail parses the "do block end" shared by both kinds of "for" loop.
//
// Equivalent to `forbody` in upstream Lua.
func (p *parser) forTail(do **lualex.Token, body **luaast.Block, end **lualex.Token, forToken *lualex.Token) {
	*do = p.expect(lualex.DoToken)
	*body = p.block(false)
	*end = p.checkMatch(forToken, lualex.EndToken)
}

// functionStatement parses a function declaration.
//
//	funcstat ::= FUNCTION funcname body
//
// Equivalent to `funcstat` in upstream Lua.
func (p *parser) functionStatement() *luaast.FunctionStmt {
	stmt := &luaast.FunctionStmt{Function: p.c.Advance()}
	stmt.Name = p.functionName()
	stmt.Body = p.functionBody(stmt.Function)
	return stmt
}

// functionName parses the name of a function declaration.
//
//	funcname ::= NAME {'.' NAME} [':' NAME]
//
// Equivalent to `funcname` in upstream Lua.
func (p *parser) functionName() *luaast.FuncName {
	fn := new(luaast.FuncName)
	fn.Path.Items = append(fn.Path.Items, &luaast.NameExpr{Name: p.name()})
	for p.at(lualex.DotToken) {
		fn.Path.Seps = append(fn.Path.Seps, p.c.Advance())
		fn.Path.Items = append(fn.Path.Items, &luaast.NameExpr{Name: p.name()})
	}
	if fn.Colon = p.accept(lualex.ColonToken); fn.Colon != nil {
		fn.Method = p.name()
	}
	return fn
}

// localFunction parses a local function declaration.
//
// Equivalent to `localfunc` in upstream Lua.
func (p *parser) localFunction() *luaast.LocalFunctionStmt {
	stmt := &luaast.LocalFunctionStmt{
		Local:    p.c.Advance(),
		Function: p.c.Advance(),
	}
	stmt.Name = p.name()
	stmt.Body = p.functionBody(stmt.Function)
	return stmt
}

// localStatement parses a local variable declaration.
//
//	stat ::= LOCAL attnamelist ['=' explist]
//	attnamelist ::= NAME attrib {',' NAME attrib}
//
// Equivalent to `localstat` in upstream Lua.
func (p *parser) localStatement() *luaast.LocalAssignment {
	stmt := &luaast.LocalAssignment{Local: p.c.Advance()}
	for {
		stmt.Names.Items = append(stmt.Names.Items, p.attributeName())
		sep := p.accept(lualex.CommaToken)
		if sep == nil {
			break
		}
		stmt.Names.Seps = append(stmt.Names.Seps, sep)
	}
	if stmt.Assign = p.accept(lualex.AssignToken); stmt.Assign != nil {
		stmt.Values = p.expressionList()
	}
	return stmt
}

// attributeName parses a local variable name with an optional attribute.
//
//	attrib ::= ['<' NAME '>']
//
// Equivalent to `getlocalattribute` in upstream Lua,
// except the attribute name is not checked.
func (p *parser) attributeName() *luaast.AttribName {
	n := &luaast.AttribName{Name: p.name()}
	if n.Open = p.accept(lualex.LessToken); n.Open != nil {
		n.Attrib = p.name()
		n.Close = p.expect(lualex.GreaterToken)
	}
	return n
}

// returnStatement parses a "return" statement.
//
//	retstat ::= RETURN [explist] [';']
//
// Equivalent to `retstat` in upstream Lua.
func (p *parser) returnStatement() *luaast.ReturnStmt {
	stmt := &luaast.ReturnStmt{Return: p.c.Advance()}
	if k := p.c.Current().Kind; !isBlockFollow(k) && k != lualex.SemiToken {
		stmt.Values = p.expressionList()
	}
	stmt.Semi = p.accept(lualex.SemiToken)
	return stmt
}

// exprStatement parses a statement that begins with an expression
// (i.e. a function call or an assignment).
// Anything else is reported and kept in the tree
// as an [*luaast.ExprStmt] or [*luaast.BadStmt].
//
// Equivalent to `exprstat` in upstream Lua.
func (p *parser) exprStatement() luaast.Stmt {
	tok := p.c.Current()
	if tok.Kind != lualex.NameToken && tok.Kind != lualex.LParenToken {
		if !canStartExpression(tok.Kind) {
			p.unexpected(lualex.TokenSet{}, "unexpected symbol")
			return p.skip(tok.Span.Start.Line)
		}
		p.unexpected(lualex.TokenSet{}, "syntax error")
		return &luaast.ExprStmt{X: p.expression()}
	}

	start := p.c.Checkpoint()
	mark := p.diags.mark()
	x := p.suffixedExpression()
	switch next := p.c.Current(); {
	case next.Kind == lualex.AssignToken || next.Kind == lualex.CommaToken:
		return p.assignment(x)
	case isCall(x):
		return &luaast.CallStmt{Call: x.(*luaast.CallExpr)}
	default:
		// Not a statement. Reparse as a full expression
		// so that operators that follow end up in the tree.
		p.c.Restore(start)
		p.diags.rollback(mark)
		x = p.expression()
		kind := UnexpectedToken
		if next.Kind == lualex.EOFToken {
			kind = UnexpectedEndOfInput
		}
		p.report(&ParseError{
			Kind:     kind,
			Span:     next.Span,
			Expected: lualex.NewTokenSet(lualex.AssignToken),
			Found:    next,
			Message:  "syntax error",
		})
		return &luaast.ExprStmt{X: x}
	}
}

func isCall(x luaast.Expr) bool {
	_, ok := x.(*luaast.CallExpr)
	return ok
}

// assignment parses an assignment statement after its first target.
//
//	stat ::= varlist '=' explist
//	varlist ::= var {',' var}
//
// Equivalent to `restassign` in upstream Lua.
func (p *parser) assignment(first luaast.Expr) *luaast.Assignment {
	stmt := new(luaast.Assignment)
	stmt.Targets.Items = append(stmt.Targets.Items, first)
	for p.at(lualex.CommaToken) {
		stmt.Targets.Seps = append(stmt.Targets.Seps, p.c.Advance())
		stmt.Targets.Items = append(stmt.Targets.Items, p.suffixedExpression())
	}
	for _, target := range stmt.Targets.Items {
		if _, bad := target.(*luaast.BadExpr); bad || luaast.IsLValue(target) {
			continue
		}
		p.report(&ParseError{
			Kind:    UnexpectedToken,
			Span:    target.Span(),
			Message: "syntax error (cannot assign to expression)",
		})
	}
	stmt.Assign = p.expect(lualex.AssignToken)
	stmt.Values = p.expressionList()
	return stmt
}
