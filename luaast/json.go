// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package luaast

import (
	"fmt"
	"strings"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"zb.256lights.llc/luaparse/lualex"
)

// MarshalJSON returns the JSON form of the syntax tree rooted at c.
func (c *Chunk) MarshalJSON() ([]byte, error) {
	return jsonv2.Marshal(c, jsontext.AllowInvalidUTF8(true))
}

// MarshalJSONTo writes the syntax tree rooted at c to the given JSON encoder.
// See [Encode] for the format.
func (c *Chunk) MarshalJSONTo(enc *jsontext.Encoder) error {
	return Encode(enc, c)
}

// MarshalJSONTo writes the block to the given JSON encoder.
func (b *Block) MarshalJSONTo(enc *jsontext.Encoder) error {
	return Encode(enc, b)
}

// Encode writes n to enc as a JSON object.
// Every node is written as an object with a "type" member naming the node,
// "start_position" and "end_position" members holding its span,
// and one member per child.
// Tokens are written as described in [lualex.Token.MarshalJSONTo].
// Absent optional children are written as null.
// Separator-delimited lists are written as objects
// with "items" and "separators" arrays.
func Encode(enc *jsontext.Encoder, n Node) error {
	e := &nodeEncoder{enc: enc}
	e.node(n)
	return e.err
}

type nodeEncoder struct {
	enc *jsontext.Encoder
	err error
}

func (e *nodeEncoder) write(tok jsontext.Token) {
	if e.err == nil {
		e.err = e.enc.WriteToken(tok)
	}
}

func (e *nodeEncoder) key(k string) {
	e.write(jsontext.String(k))
}

func (e *nodeEncoder) token(k string, tok *lualex.Token) {
	e.key(k)
	if e.err == nil {
		e.err = tok.MarshalJSONTo(e.enc)
	}
}

func (e *nodeEncoder) tokens(k string, tokens []*lualex.Token) {
	e.key(k)
	e.write(jsontext.BeginArray)
	for _, tok := range tokens {
		if e.err == nil {
			e.err = tok.MarshalJSONTo(e.enc)
		}
	}
	e.write(jsontext.EndArray)
}

func (e *nodeEncoder) child(k string, n Node) {
	e.key(k)
	if isNil(n) {
		e.write(jsontext.Null)
		return
	}
	e.node(n)
}

func (e *nodeEncoder) position(k string, pos lualex.Position) {
	e.key(k)
	if e.err == nil {
		e.err = pos.MarshalJSONTo(e.enc)
	}
}

func encodeList[T Node](e *nodeEncoder, k string, l List[T]) {
	e.key(k)
	e.write(jsontext.BeginObject)
	e.key("items")
	e.write(jsontext.BeginArray)
	for _, item := range l.Items {
		e.node(item)
	}
	e.write(jsontext.EndArray)
	e.tokens("separators", l.Seps)
	e.write(jsontext.EndObject)
}

func (e *nodeEncoder) node(n Node) {
	if e.err != nil {
		return
	}
	e.write(jsontext.BeginObject)
	e.key("type")
	e.write(jsontext.String(TypeName(n)))
	span := n.Span()
	e.position("start_position", span.Start)
	e.position("end_position", span.End)

	switch n := n.(type) {
	case *Chunk:
		e.child("block", n.Block)
		e.token("eof", n.EOF)
	case *Block:
		e.key("stmts")
		e.write(jsontext.BeginArray)
		for _, stmt := range n.Stmts {
			e.node(stmt)
		}
		e.write(jsontext.EndArray)
		e.child("last_stmt", n.Return)

	case *EmptyStmt:
		e.token("semicolon", n.Semi)
	case *LocalAssignment:
		e.token("local_token", n.Local)
		encodeList(e, "names", n.Names)
		e.token("equal_token", n.Assign)
		encodeList(e, "expr_list", n.Values)
	case *Assignment:
		encodeList(e, "var_list", n.Targets)
		e.token("equal_token", n.Assign)
		encodeList(e, "expr_list", n.Values)
	case *CallStmt:
		e.child("call", n.Call)
	case *LabelStmt:
		e.token("left_colons", n.Open)
		e.token("name", n.Name)
		e.token("right_colons", n.Close)
	case *BreakStmt:
		e.token("break_token", n.Break)
	case *GotoStmt:
		e.token("goto_token", n.Goto)
		e.token("label_name", n.Label)
	case *DoStmt:
		e.token("do_token", n.Do)
		e.child("block", n.Body)
		e.token("end_token", n.End)
	case *WhileStmt:
		e.token("while_token", n.While)
		e.child("condition", n.Cond)
		e.token("do_token", n.Do)
		e.child("block", n.Body)
		e.token("end_token", n.End)
	case *RepeatStmt:
		e.token("repeat_token", n.Repeat)
		e.child("block", n.Body)
		e.token("until_token", n.Until)
		e.child("until", n.Cond)
	case *IfStmt:
		e.token("if_token", n.If)
		e.child("condition", n.Cond)
		e.token("then_token", n.Then)
		e.child("block", n.Body)
		e.key("else_if")
		e.write(jsontext.BeginArray)
		for _, clause := range n.ElseIfs {
			e.node(clause)
		}
		e.write(jsontext.EndArray)
		e.token("else_token", n.Else)
		e.child("else", n.ElseBody)
		e.token("end_token", n.End)
	case *ElseIfClause:
		e.token("else_if_token", n.ElseIf)
		e.child("condition", n.Cond)
		e.token("then_token", n.Then)
		e.child("block", n.Body)
	case *NumericForStmt:
		e.token("for_token", n.For)
		e.token("index_variable", n.Var)
		e.token("equal_token", n.Assign)
		e.child("start", n.Start)
		e.token("start_end_comma", n.LimitComma)
		e.child("end", n.Limit)
		e.token("end_step_comma", n.StepComma)
		e.child("step", n.Step)
		e.token("do_token", n.Do)
		e.child("block", n.Body)
		e.token("end_token", n.End)
	case *GenericForStmt:
		e.token("for_token", n.For)
		encodeList(e, "names", n.Names)
		e.token("in_token", n.In)
		encodeList(e, "expr_list", n.Exprs)
		e.token("do_token", n.Do)
		e.child("block", n.Body)
		e.token("end_token", n.End)
	case *FunctionStmt:
		e.token("function_token", n.Function)
		e.child("name", n.Name)
		e.child("body", n.Body)
	case *LocalFunctionStmt:
		e.token("local_token", n.Local)
		e.token("function_token", n.Function)
		e.token("name", n.Name)
		e.child("body", n.Body)
	case *ReturnStmt:
		e.token("token", n.Return)
		encodeList(e, "returns", n.Values)
		e.token("semicolon", n.Semi)
	case *ExprStmt:
		e.child("expression", n.X)
	case *BadStmt:
		e.tokens("tokens", n.Tokens)

	case *AttribName:
		e.token("name", n.Name)
		e.token("left_angle", n.Open)
		e.token("attribute", n.Attrib)
		e.token("right_angle", n.Close)
	case *FuncName:
		encodeList(e, "names", n.Path)
		e.token("colon_name", n.Colon)
		e.token("method_name", n.Method)
	case *FuncBody:
		e.token("left_paren", n.LParen)
		encodeList(e, "parameters", n.Params)
		e.token("right_paren", n.RParen)
		e.child("block", n.Body)
		e.token("end_token", n.End)
	case *Param:
		e.token("name", n.Name)

	case *NilExpr:
		e.token("token", n.Token)
	case *TrueExpr:
		e.token("token", n.Token)
	case *FalseExpr:
		e.token("token", n.Token)
	case *NumberExpr:
		e.token("token", n.Token)
		e.key("float")
		e.write(jsontext.Bool(lualex.IsFloatNumeral(n.Token.Text)))
	case *StringExpr:
		e.token("token", n.Token)
		if v, err := lualex.Unquote(n.Token.Text); err == nil {
			e.key("value")
			e.write(jsontext.String(strings.ToValidUTF8(v, "\uFFFD")))
		}
	case *VarargExpr:
		e.token("token", n.Token)
	case *NameExpr:
		e.token("token", n.Name)
	case *ParenExpr:
		e.token("left_paren", n.LParen)
		e.child("expression", n.X)
		e.token("right_paren", n.RParen)
	case *IndexExpr:
		e.child("prefix", n.X)
		e.token("left_bracket", n.LBracket)
		e.child("index", n.Index)
		e.token("right_bracket", n.RBracket)
	case *FieldExpr:
		e.child("prefix", n.X)
		e.token("dot", n.Dot)
		e.token("name", n.Name)
	case *CallExpr:
		e.child("prefix", n.Fn)
		e.token("colon_token", n.Colon)
		e.token("method_name", n.Method)
		e.child("args", n.Args)
	case *FunctionExpr:
		e.token("function_token", n.Function)
		e.child("body", n.Body)
	case *TableExpr:
		e.token("left_brace", n.LBrace)
		encodeList(e, "fields", n.Fields)
		e.token("right_brace", n.RBrace)
	case *BinaryExpr:
		e.key("operator")
		e.write(jsontext.String(n.Op.Kind.String()))
		e.child("lhs", n.X)
		e.token("binop", n.Op)
		e.child("rhs", n.Y)
	case *UnaryExpr:
		e.key("operator")
		e.write(jsontext.String(n.Op.Kind.String()))
		e.token("unop", n.Op)
		e.child("expression", n.X)
	case *BadExpr:
		// Span only.

	case *PositionalField:
		e.child("value", n.Value)
	case *NamedField:
		e.token("key", n.Name)
		e.token("equal", n.Assign)
		e.child("value", n.Value)
	case *KeyedField:
		e.token("left_bracket", n.LBracket)
		e.child("key", n.Key)
		e.token("right_bracket", n.RBracket)
		e.token("equal", n.Assign)
		e.child("value", n.Value)

	case *ParenArgs:
		e.token("left_paren", n.LParen)
		encodeList(e, "arguments", n.List)
		e.token("right_paren", n.RParen)
	case *TableArgs:
		e.child("table", n.Table)
	case *StringArgs:
		e.token("string", n.String)

	default:
		if e.err == nil {
			e.err = fmt.Errorf("marshal lua syntax tree: unhandled node type %T", n)
		}
	}
	e.write(jsontext.EndObject)
}

// TypeName returns the name of n's node type as used in its JSON form,
// like "LocalAssignment" or "BinaryExpr".
func TypeName(n Node) string {
	switch n.(type) {
	case *Chunk:
		return "Chunk"
	case *Block:
		return "Block"
	case *EmptyStmt:
		return "EmptyStmt"
	case *LocalAssignment:
		return "LocalAssignment"
	case *Assignment:
		return "Assignment"
	case *CallStmt:
		return "CallStmt"
	case *LabelStmt:
		return "LabelStmt"
	case *BreakStmt:
		return "BreakStmt"
	case *GotoStmt:
		return "GotoStmt"
	case *DoStmt:
		return "DoStmt"
	case *WhileStmt:
		return "WhileStmt"
	case *RepeatStmt:
		return "RepeatStmt"
	case *IfStmt:
		return "IfStmt"
	case *ElseIfClause:
		return "ElseIfClause"
	case *NumericForStmt:
		return "NumericForStmt"
	case *GenericForStmt:
		return "GenericForStmt"
	case *FunctionStmt:
		return "FunctionStmt"
	case *LocalFunctionStmt:
		return "LocalFunctionStmt"
	case *ReturnStmt:
		return "ReturnStmt"
	case *ExprStmt:
		return "ExprStmt"
	case *BadStmt:
		return "BadStmt"
	case *AttribName:
		return "AttribName"
	case *FuncName:
		return "FuncName"
	case *FuncBody:
		return "FuncBody"
	case *Param:
		return "Param"
	case *NilExpr:
		return "NilExpr"
	case *TrueExpr:
		return "TrueExpr"
	case *FalseExpr:
		return "FalseExpr"
	case *NumberExpr:
		return "NumberExpr"
	case *StringExpr:
		return "StringExpr"
	case *VarargExpr:
		return "VarargExpr"
	case *NameExpr:
		return "NameExpr"
	case *ParenExpr:
		return "ParenExpr"
	case *IndexExpr:
		return "IndexExpr"
	case *FieldExpr:
		return "FieldExpr"
	case *CallExpr:
		return "CallExpr"
	case *FunctionExpr:
		return "FunctionExpr"
	case *TableExpr:
		return "TableExpr"
	case *BinaryExpr:
		return "BinaryExpr"
	case *UnaryExpr:
		return "UnaryExpr"
	case *BadExpr:
		return "BadExpr"
	case *PositionalField:
		return "PositionalField"
	case *NamedField:
		return "NamedField"
	case *KeyedField:
		return "KeyedField"
	case *ParenArgs:
		return "ParenArgs"
	case *TableArgs:
		return "TableArgs"
	case *StringArgs:
		return "StringArgs"
	default:
		return fmt.Sprintf("%T", n)
	}
}
