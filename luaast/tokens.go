// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package luaast

import (
	"io"
	"iter"
	"strings"

	"zb.256lights.llc/luaparse/lualex"
)

// Tokens returns an iterator over the tokens of n in source order.
// Synthetic tokens are included.
func Tokens(n Node) iter.Seq[*lualex.Token] {
	return func(yield func(*lualex.Token) bool) {
		for _, tok := range n.appendTokens(nil) {
			if !yield(tok) {
				return
			}
		}
	}
}

// Print writes the source text of n to w:
// the leading trivia and text of each of its tokens.
// Printing a [*Chunk] reproduces the source it was parsed from exactly.
func Print(w io.Writer, n Node) error {
	sw, ok := w.(io.StringWriter)
	if !ok {
		sw = &stringWriter{w}
	}
	for tok := range Tokens(n) {
		for _, tr := range tok.LeadingTrivia {
			if _, err := sw.WriteString(tr.Text); err != nil {
				return err
			}
		}
		if _, err := sw.WriteString(tok.Text); err != nil {
			return err
		}
	}
	return nil
}

// String returns the source text of n as written by [Print].
func String(n Node) string {
	sb := new(strings.Builder)
	Print(sb, n)
	return sb.String()
}

type stringWriter struct {
	w io.Writer
}

func (sw *stringWriter) WriteString(s string) (int, error) {
	return io.WriteString(sw.w, s)
}

// spanOf returns the span from the start of n's first token
// to the end of its last token.
// If n has no tokens, spanOf returns an empty span at pos.
func spanOf(n Node, pos lualex.Position) lualex.Span {
	tokens := n.appendTokens(nil)
	if len(tokens) == 0 {
		return lualex.Span{Start: pos, End: pos}
	}
	return lualex.Span{
		Start: tokens[0].Span.Start,
		End:   tokens[len(tokens)-1].Span.End,
	}
}

func appendToken(dst []*lualex.Token, tok *lualex.Token) []*lualex.Token {
	if tok == nil {
		return dst
	}
	return append(dst, tok)
}

func appendTokens(dst []*lualex.Token, tokens ...*lualex.Token) []*lualex.Token {
	for _, tok := range tokens {
		dst = appendToken(dst, tok)
	}
	return dst
}

func appendNode(dst []*lualex.Token, n Node) []*lualex.Token {
	if isNil(n) {
		return dst
	}
	return n.appendTokens(dst)
}

// isNil reports whether n is nil or a typed nil pointer.
func isNil(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *Block:
		return n == nil
	case *ReturnStmt:
		return n == nil
	case *FuncBody:
		return n == nil
	case *FuncName:
		return n == nil
	case *TableExpr:
		return n == nil
	case *CallExpr:
		return n == nil
	default:
		return false
	}
}

// Span returns the span of the whole source file.
func (c *Chunk) Span() lualex.Span {
	end := c.EOF.Span.End
	return lualex.Span{Start: lualex.Position{Line: 1, Column: 1}, End: end}
}

func (c *Chunk) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendNode(dst, c.Block)
	return appendToken(dst, c.EOF)
}

func (b *Block) Span() lualex.Span { return spanOf(b, b.Pos) }

func (b *Block) appendTokens(dst []*lualex.Token) []*lualex.Token {
	for _, stmt := range b.Stmts {
		dst = stmt.appendTokens(dst)
	}
	return appendNode(dst, b.Return)
}

func (s *EmptyStmt) Span() lualex.Span { return s.Semi.Span }

func (s *EmptyStmt) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendToken(dst, s.Semi)
}

func (s *LocalAssignment) Span() lualex.Span { return spanOf(s, s.Local.Span.Start) }

func (s *LocalAssignment) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendToken(dst, s.Local)
	dst = s.Names.appendTokens(dst)
	dst = appendToken(dst, s.Assign)
	return s.Values.appendTokens(dst)
}

func (s *Assignment) Span() lualex.Span { return spanOf(s, s.Assign.Span.Start) }

func (s *Assignment) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = s.Targets.appendTokens(dst)
	dst = appendToken(dst, s.Assign)
	return s.Values.appendTokens(dst)
}

func (s *CallStmt) Span() lualex.Span { return s.Call.Span() }

func (s *CallStmt) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendNode(dst, s.Call)
}

func (s *LabelStmt) Span() lualex.Span { return spanOf(s, s.Open.Span.Start) }

func (s *LabelStmt) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendTokens(dst, s.Open, s.Name, s.Close)
}

func (s *BreakStmt) Span() lualex.Span { return s.Break.Span }

func (s *BreakStmt) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendToken(dst, s.Break)
}

func (s *GotoStmt) Span() lualex.Span { return spanOf(s, s.Goto.Span.Start) }

func (s *GotoStmt) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendTokens(dst, s.Goto, s.Label)
}

func (s *DoStmt) Span() lualex.Span { return spanOf(s, s.Do.Span.Start) }

func (s *DoStmt) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendToken(dst, s.Do)
	dst = appendNode(dst, s.Body)
	return appendToken(dst, s.End)
}

func (s *WhileStmt) Span() lualex.Span { return spanOf(s, s.While.Span.Start) }

func (s *WhileStmt) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendToken(dst, s.While)
	dst = appendNode(dst, s.Cond)
	dst = appendToken(dst, s.Do)
	dst = appendNode(dst, s.Body)
	return appendToken(dst, s.End)
}

func (s *RepeatStmt) Span() lualex.Span { return spanOf(s, s.Repeat.Span.Start) }

func (s *RepeatStmt) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendToken(dst, s.Repeat)
	dst = appendNode(dst, s.Body)
	dst = appendToken(dst, s.Until)
	return appendNode(dst, s.Cond)
}

func (s *IfStmt) Span() lualex.Span { return spanOf(s, s.If.Span.Start) }

func (s *IfStmt) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendToken(dst, s.If)
	dst = appendNode(dst, s.Cond)
	dst = appendToken(dst, s.Then)
	dst = appendNode(dst, s.Body)
	for _, clause := range s.ElseIfs {
		dst = clause.appendTokens(dst)
	}
	dst = appendToken(dst, s.Else)
	dst = appendNode(dst, s.ElseBody)
	return appendToken(dst, s.End)
}

func (c *ElseIfClause) Span() lualex.Span { return spanOf(c, c.ElseIf.Span.Start) }

func (c *ElseIfClause) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendToken(dst, c.ElseIf)
	dst = appendNode(dst, c.Cond)
	dst = appendToken(dst, c.Then)
	return appendNode(dst, c.Body)
}

func (s *NumericForStmt) Span() lualex.Span { return spanOf(s, s.For.Span.Start) }

func (s *NumericForStmt) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendTokens(dst, s.For, s.Var, s.Assign)
	dst = appendNode(dst, s.Start)
	dst = appendToken(dst, s.LimitComma)
	dst = appendNode(dst, s.Limit)
	dst = appendToken(dst, s.StepComma)
	dst = appendNode(dst, s.Step)
	dst = appendToken(dst, s.Do)
	dst = appendNode(dst, s.Body)
	return appendToken(dst, s.End)
}

func (s *GenericForStmt) Span() lualex.Span { return spanOf(s, s.For.Span.Start) }

func (s *GenericForStmt) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendToken(dst, s.For)
	dst = s.Names.appendTokens(dst)
	dst = appendToken(dst, s.In)
	dst = s.Exprs.appendTokens(dst)
	dst = appendToken(dst, s.Do)
	dst = appendNode(dst, s.Body)
	return appendToken(dst, s.End)
}

func (s *FunctionStmt) Span() lualex.Span { return spanOf(s, s.Function.Span.Start) }

func (s *FunctionStmt) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendToken(dst, s.Function)
	dst = appendNode(dst, s.Name)
	return appendNode(dst, s.Body)
}

func (s *LocalFunctionStmt) Span() lualex.Span { return spanOf(s, s.Local.Span.Start) }

func (s *LocalFunctionStmt) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendTokens(dst, s.Local, s.Function, s.Name)
	return appendNode(dst, s.Body)
}

func (s *ReturnStmt) Span() lualex.Span { return spanOf(s, s.Return.Span.Start) }

func (s *ReturnStmt) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendToken(dst, s.Return)
	dst = s.Values.appendTokens(dst)
	return appendToken(dst, s.Semi)
}

func (s *ExprStmt) Span() lualex.Span { return s.X.Span() }

func (s *ExprStmt) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendNode(dst, s.X)
}

func (s *BadStmt) Span() lualex.Span {
	if len(s.Tokens) == 0 {
		return lualex.Span{}
	}
	return spanOf(s, s.Tokens[0].Span.Start)
}

func (s *BadStmt) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendTokens(dst, s.Tokens...)
}

func (n *AttribName) Span() lualex.Span { return spanOf(n, n.Name.Span.Start) }

func (n *AttribName) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendTokens(dst, n.Name, n.Open, n.Attrib, n.Close)
}

func (n *FuncName) Span() lualex.Span { return spanOf(n, lualex.Position{}) }

func (n *FuncName) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = n.Path.appendTokens(dst)
	return appendTokens(dst, n.Colon, n.Method)
}

func (b *FuncBody) Span() lualex.Span { return spanOf(b, b.LParen.Span.Start) }

func (b *FuncBody) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendToken(dst, b.LParen)
	dst = b.Params.appendTokens(dst)
	dst = appendToken(dst, b.RParen)
	dst = appendNode(dst, b.Body)
	return appendToken(dst, b.End)
}

func (p *Param) Span() lualex.Span { return p.Name.Span }

func (p *Param) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendToken(dst, p.Name)
}

func (x *NilExpr) Span() lualex.Span { return x.Token.Span }

func (x *NilExpr) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendToken(dst, x.Token)
}

func (x *TrueExpr) Span() lualex.Span { return x.Token.Span }

func (x *TrueExpr) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendToken(dst, x.Token)
}

func (x *FalseExpr) Span() lualex.Span { return x.Token.Span }

func (x *FalseExpr) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendToken(dst, x.Token)
}

func (x *NumberExpr) Span() lualex.Span { return x.Token.Span }

func (x *NumberExpr) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendToken(dst, x.Token)
}

func (x *StringExpr) Span() lualex.Span { return x.Token.Span }

func (x *StringExpr) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendToken(dst, x.Token)
}

func (x *VarargExpr) Span() lualex.Span { return x.Token.Span }

func (x *VarargExpr) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendToken(dst, x.Token)
}

func (x *NameExpr) Span() lualex.Span { return x.Name.Span }

func (x *NameExpr) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendToken(dst, x.Name)
}

func (x *ParenExpr) Span() lualex.Span { return spanOf(x, x.LParen.Span.Start) }

func (x *ParenExpr) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendToken(dst, x.LParen)
	dst = appendNode(dst, x.X)
	return appendToken(dst, x.RParen)
}

func (x *IndexExpr) Span() lualex.Span { return spanOf(x, x.LBracket.Span.Start) }

func (x *IndexExpr) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendNode(dst, x.X)
	dst = appendToken(dst, x.LBracket)
	dst = appendNode(dst, x.Index)
	return appendToken(dst, x.RBracket)
}

func (x *FieldExpr) Span() lualex.Span { return spanOf(x, x.Dot.Span.Start) }

func (x *FieldExpr) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendNode(dst, x.X)
	return appendTokens(dst, x.Dot, x.Name)
}

func (x *CallExpr) Span() lualex.Span { return spanOf(x, x.Args.Span().Start) }

func (x *CallExpr) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendNode(dst, x.Fn)
	dst = appendTokens(dst, x.Colon, x.Method)
	return appendNode(dst, x.Args)
}

func (x *FunctionExpr) Span() lualex.Span { return spanOf(x, x.Function.Span.Start) }

func (x *FunctionExpr) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendToken(dst, x.Function)
	return appendNode(dst, x.Body)
}

func (x *TableExpr) Span() lualex.Span { return spanOf(x, x.LBrace.Span.Start) }

func (x *TableExpr) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendToken(dst, x.LBrace)
	dst = x.Fields.appendTokens(dst)
	return appendToken(dst, x.RBrace)
}

func (x *BinaryExpr) Span() lualex.Span { return spanOf(x, x.Op.Span.Start) }

func (x *BinaryExpr) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendNode(dst, x.X)
	dst = appendToken(dst, x.Op)
	return appendNode(dst, x.Y)
}

func (x *UnaryExpr) Span() lualex.Span { return spanOf(x, x.Op.Span.Start) }

func (x *UnaryExpr) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendToken(dst, x.Op)
	return appendNode(dst, x.X)
}

func (x *BadExpr) Span() lualex.Span { return lualex.Span{Start: x.Pos, End: x.Pos} }

func (x *BadExpr) appendTokens(dst []*lualex.Token) []*lualex.Token { return dst }

func (f *PositionalField) Span() lualex.Span { return f.Value.Span() }

func (f *PositionalField) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendNode(dst, f.Value)
}

func (f *NamedField) Span() lualex.Span { return spanOf(f, f.Name.Span.Start) }

func (f *NamedField) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendTokens(dst, f.Name, f.Assign)
	return appendNode(dst, f.Value)
}

func (f *KeyedField) Span() lualex.Span { return spanOf(f, f.LBracket.Span.Start) }

func (f *KeyedField) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendToken(dst, f.LBracket)
	dst = appendNode(dst, f.Key)
	dst = appendTokens(dst, f.RBracket, f.Assign)
	return appendNode(dst, f.Value)
}

func (a *ParenArgs) Span() lualex.Span { return spanOf(a, a.LParen.Span.Start) }

func (a *ParenArgs) appendTokens(dst []*lualex.Token) []*lualex.Token {
	dst = appendToken(dst, a.LParen)
	dst = a.List.appendTokens(dst)
	return appendToken(dst, a.RParen)
}

func (a *TableArgs) Span() lualex.Span { return a.Table.Span() }

func (a *TableArgs) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendNode(dst, a.Table)
}

func (a *StringArgs) Span() lualex.Span { return a.String.Span }

func (a *StringArgs) appendTokens(dst []*lualex.Token) []*lualex.Token {
	return appendToken(dst, a.String)
}
