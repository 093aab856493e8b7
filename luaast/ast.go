// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

// Package luaast declares the types used to represent syntax trees for Lua source.
//
// Trees are lossless: every node references all of its own tokens,
// and the tokens carry their leading trivia,
// so [Print] reproduces the source a tree was parsed from byte for byte.
// Nodes are plain data and perform no validation.
package luaast

import (
	"zb.256lights.llc/luaparse/lualex"
)

// Node is the interface implemented by all syntax tree nodes.
type Node interface {
	// Span returns the range of source covered by the node's tokens,
	// not including the first token's leading trivia.
	Span() lualex.Span

	// appendTokens appends the node's tokens to dst in source order.
	appendTokens(dst []*lualex.Token) []*lualex.Token
}

// Stmt is the interface implemented by all statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is the interface implemented by all expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Field is the interface implemented by all table constructor fields.
type Field interface {
	Node
	fieldNode()
}

// Args is the interface implemented by all function call argument forms.
type Args interface {
	Node
	argsNode()
}

// List is a sequence of nodes separated by punctuation.
// Seps[i] follows Items[i].
// len(Seps) is either len(Items)-1 or,
// for lists that permit a trailing separator, len(Items).
type List[T Node] struct {
	Items []T
	Seps  []*lualex.Token
}

// Len returns the number of items in the list.
func (l List[T]) Len() int {
	return len(l.Items)
}

func (l List[T]) appendTokens(dst []*lualex.Token) []*lualex.Token {
	for i, item := range l.Items {
		dst = item.appendTokens(dst)
		if i < len(l.Seps) {
			dst = appendToken(dst, l.Seps[i])
		}
	}
	return dst
}

// Chunk is the root of a syntax tree for a whole source file.
type Chunk struct {
	Block *Block
	// EOF is the end-of-file token.
	// It holds the trailing trivia of the file.
	EOF *lualex.Token
}

// Block is a sequence of statements with an optional final return statement.
type Block struct {
	Stmts  []Stmt
	Return *ReturnStmt // or nil
	// Pos is where the block starts.
	// It determines the span of an empty block.
	Pos lualex.Position
}

// Statements.
type (
	// EmptyStmt is a lone semicolon.
	EmptyStmt struct {
		Semi *lualex.Token
	}

	// LocalAssignment is a local variable declaration,
	// like "local x <const>, y = 1, 2".
	LocalAssignment struct {
		Local  *lualex.Token
		Names  List[*AttribName]
		Assign *lualex.Token // or nil
		Values List[Expr]
	}

	// Assignment is a multiple assignment statement, like "a, b.c = 1, 2".
	Assignment struct {
		Targets List[Expr]
		Assign  *lualex.Token
		Values  List[Expr]
	}

	// CallStmt is a function call used as a statement.
	CallStmt struct {
		Call *CallExpr
	}

	// LabelStmt is a goto label, like "::top::".
	LabelStmt struct {
		Open  *lualex.Token
		Name  *lualex.Token
		Close *lualex.Token
	}

	// BreakStmt is a "break" statement.
	BreakStmt struct {
		Break *lualex.Token
	}

	// GotoStmt is a "goto" statement.
	GotoStmt struct {
		Goto  *lualex.Token
		Label *lualex.Token
	}

	// DoStmt is a "do ... end" block.
	DoStmt struct {
		Do   *lualex.Token
		Body *Block
		End  *lualex.Token
	}

	// WhileStmt is a "while ... do ... end" loop.
	WhileStmt struct {
		While *lualex.Token
		Cond  Expr
		Do    *lualex.Token
		Body  *Block
		End   *lualex.Token
	}

	// RepeatStmt is a "repeat ... until ..." loop.
	RepeatStmt struct {
		Repeat *lualex.Token
		Body   *Block
		Until  *lualex.Token
		Cond   Expr
	}

	// IfStmt is an "if" statement with its "elseif" and "else" branches.
	IfStmt struct {
		If       *lualex.Token
		Cond     Expr
		Then     *lualex.Token
		Body     *Block
		ElseIfs  []*ElseIfClause
		Else     *lualex.Token // or nil
		ElseBody *Block        // nil iff Else is nil
		End      *lualex.Token
	}

	// NumericForStmt is a "for i = start, limit, step do ... end" loop.
	NumericForStmt struct {
		For        *lualex.Token
		Var        *lualex.Token
		Assign     *lualex.Token
		Start      Expr
		LimitComma *lualex.Token
		Limit      Expr
		StepComma  *lualex.Token // or nil
		Step       Expr          // nil iff StepComma is nil
		Do         *lualex.Token
		Body       *Block
		End        *lualex.Token
	}

	// GenericForStmt is a "for k, v in explist do ... end" loop.
	GenericForStmt struct {
		For   *lualex.Token
		Names List[*NameExpr]
		In    *lualex.Token
		Exprs List[Expr]
		Do    *lualex.Token
		Body  *Block
		End   *lualex.Token
	}

	// FunctionStmt is a function declaration, like "function a.b:c() end".
	FunctionStmt struct {
		Function *lualex.Token
		Name     *FuncName
		Body     *FuncBody
	}

	// LocalFunctionStmt is a local function declaration.
	LocalFunctionStmt struct {
		Local    *lualex.Token
		Function *lualex.Token
		Name     *lualex.Token
		Body     *FuncBody
	}

	// ReturnStmt is a "return" statement.
	// It may only appear as the last statement in a [Block].
	ReturnStmt struct {
		Return *lualex.Token
		Values List[Expr]
		Semi   *lualex.Token // or nil
	}

	// ExprStmt is an expression that is not a function call
	// used in statement position.
	// It is only produced by error recovery
	// or when parsing a standalone expression.
	ExprStmt struct {
		X Expr
	}

	// BadStmt is a run of tokens skipped by error recovery.
	BadStmt struct {
		Tokens []*lualex.Token
	}
)

// Supporting nodes.
type (
	// AttribName is a name in a local declaration
	// with an optional attribute, like "x <close>".
	AttribName struct {
		Name   *lualex.Token
		Open   *lualex.Token // "<" or nil
		Attrib *lualex.Token // nil iff Open is nil
		Close  *lualex.Token // ">" or nil
	}

	// ElseIfClause is an "elseif ... then ..." branch of an [IfStmt].
	ElseIfClause struct {
		ElseIf *lualex.Token
		Cond   Expr
		Then   *lualex.Token
		Body   *Block
	}

	// FuncName is the name of a [FunctionStmt],
	// a dotted path with an optional method name.
	FuncName struct {
		Path   List[*NameExpr]
		Colon  *lualex.Token // or nil
		Method *lualex.Token // nil iff Colon is nil
	}

	// FuncBody is the parameter list and body of a function.
	FuncBody struct {
		LParen *lualex.Token
		Params List[*Param]
		RParen *lualex.Token
		Body   *Block
		End    *lualex.Token
	}

	// Param is a function parameter: a name or "...".
	Param struct {
		Name *lualex.Token
	}
)

// Expressions.
type (
	// NilExpr is the "nil" literal.
	NilExpr struct {
		Token *lualex.Token
	}

	// TrueExpr is the "true" literal.
	TrueExpr struct {
		Token *lualex.Token
	}

	// FalseExpr is the "false" literal.
	FalseExpr struct {
		Token *lualex.Token
	}

	// NumberExpr is a numeric literal.
	// Its value is not interpreted: see [lualex.ParseNumber].
	NumberExpr struct {
		Token *lualex.Token
	}

	// StringExpr is a string literal.
	// Its value is not interpreted: see [lualex.Unquote].
	StringExpr struct {
		Token *lualex.Token
	}

	// VarargExpr is the "..." expression.
	VarargExpr struct {
		Token *lualex.Token
	}

	// NameExpr is a variable reference.
	NameExpr struct {
		Name *lualex.Token
	}

	// ParenExpr is a parenthesized expression.
	ParenExpr struct {
		LParen *lualex.Token
		X      Expr
		RParen *lualex.Token
	}

	// IndexExpr is a bracketed index, like "x[k]".
	IndexExpr struct {
		X        Expr
		LBracket *lualex.Token
		Index    Expr
		RBracket *lualex.Token
	}

	// FieldExpr is a field selector, like "x.name".
	FieldExpr struct {
		X    Expr
		Dot  *lualex.Token
		Name *lualex.Token
	}

	// CallExpr is a function or method call, like "f(x)" or "obj:m 'x'".
	CallExpr struct {
		Fn     Expr
		Colon  *lualex.Token // or nil
		Method *lualex.Token // nil iff Colon is nil
		Args   Args
	}

	// FunctionExpr is an anonymous function.
	FunctionExpr struct {
		Function *lualex.Token
		Body     *FuncBody
	}

	// TableExpr is a table constructor.
	TableExpr struct {
		LBrace *lualex.Token
		Fields List[Field]
		RBrace *lualex.Token
	}

	// BinaryExpr is a binary operation.
	BinaryExpr struct {
		X  Expr
		Op *lualex.Token
		Y  Expr
	}

	// UnaryExpr is a unary operation.
	UnaryExpr struct {
		Op *lualex.Token
		X  Expr
	}

	// BadExpr stands in for an expression that could not be parsed.
	// It has no tokens.
	BadExpr struct {
		Pos lualex.Position
	}
)

// Table constructor fields.
type (
	// PositionalField is a table field without a key, like "x" in "{x}".
	PositionalField struct {
		Value Expr
	}

	// NamedField is a table field with a name key, like "{k = v}".
	NamedField struct {
		Name   *lualex.Token
		Assign *lualex.Token
		Value  Expr
	}

	// KeyedField is a table field with a bracketed key, like "{[k] = v}".
	KeyedField struct {
		LBracket *lualex.Token
		Key      Expr
		RBracket *lualex.Token
		Assign   *lualex.Token
		Value    Expr
	}
)

// Call arguments.
type (
	// ParenArgs is a parenthesized argument list.
	ParenArgs struct {
		LParen *lualex.Token
		List   List[Expr]
		RParen *lualex.Token
	}

	// TableArgs is a table constructor used as the sole argument.
	TableArgs struct {
		Table *TableExpr
	}

	// StringArgs is a string literal used as the sole argument.
	StringArgs struct {
		String *lualex.Token
	}
)

func (*EmptyStmt) stmtNode()         {}
func (*LocalAssignment) stmtNode()   {}
func (*Assignment) stmtNode()        {}
func (*CallStmt) stmtNode()          {}
func (*LabelStmt) stmtNode()         {}
func (*BreakStmt) stmtNode()         {}
func (*GotoStmt) stmtNode()          {}
func (*DoStmt) stmtNode()            {}
func (*WhileStmt) stmtNode()         {}
func (*RepeatStmt) stmtNode()        {}
func (*IfStmt) stmtNode()            {}
func (*NumericForStmt) stmtNode()    {}
func (*GenericForStmt) stmtNode()    {}
func (*FunctionStmt) stmtNode()      {}
func (*LocalFunctionStmt) stmtNode() {}
func (*ReturnStmt) stmtNode()        {}
func (*ExprStmt) stmtNode()          {}
func (*BadStmt) stmtNode()           {}

func (*NilExpr) exprNode()      {}
func (*TrueExpr) exprNode()     {}
func (*FalseExpr) exprNode()    {}
func (*NumberExpr) exprNode()   {}
func (*StringExpr) exprNode()   {}
func (*VarargExpr) exprNode()   {}
func (*NameExpr) exprNode()     {}
func (*ParenExpr) exprNode()    {}
func (*IndexExpr) exprNode()    {}
func (*FieldExpr) exprNode()    {}
func (*CallExpr) exprNode()     {}
func (*FunctionExpr) exprNode() {}
func (*TableExpr) exprNode()    {}
func (*BinaryExpr) exprNode()   {}
func (*UnaryExpr) exprNode()    {}
func (*BadExpr) exprNode()      {}

func (*PositionalField) fieldNode() {}
func (*NamedField) fieldNode()      {}
func (*KeyedField) fieldNode()      {}

func (*ParenArgs) argsNode()  {}
func (*TableArgs) argsNode()  {}
func (*StringArgs) argsNode() {}

// IsLValue reports whether x can be the target of an assignment.
func IsLValue(x Expr) bool {
	switch x.(type) {
	case *NameExpr, *IndexExpr, *FieldExpr:
		return true
	default:
		return false
	}
}
