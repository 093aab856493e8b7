// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package luaast

import "fmt"

// A Visitor's Visit method is invoked for each node encountered by [Walk].
// If the result visitor w is not nil,
// Walk visits each of the children of node with the visitor w,
// followed by a call of w.Visit(nil).
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses a syntax tree in depth-first order.
// It starts by calling v.Visit(node); node must not be nil.
// If the visitor w returned by v.Visit(node) is not nil,
// Walk is invoked recursively with visitor w
// for each of the non-nil children of node in source order,
// followed by a call of w.Visit(nil).
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *Chunk:
		walkNode(v, n.Block)
	case *Block:
		for _, stmt := range n.Stmts {
			Walk(v, stmt)
		}
		walkNode(v, n.Return)

	case *EmptyStmt, *BreakStmt, *GotoStmt, *LabelStmt, *BadStmt:
		// Leaves.
	case *LocalAssignment:
		walkList(v, n.Names)
		walkList(v, n.Values)
	case *Assignment:
		walkList(v, n.Targets)
		walkList(v, n.Values)
	case *CallStmt:
		walkNode(v, n.Call)
	case *DoStmt:
		walkNode(v, n.Body)
	case *WhileStmt:
		walkNode(v, n.Cond)
		walkNode(v, n.Body)
	case *RepeatStmt:
		walkNode(v, n.Body)
		walkNode(v, n.Cond)
	case *IfStmt:
		walkNode(v, n.Cond)
		walkNode(v, n.Body)
		for _, clause := range n.ElseIfs {
			Walk(v, clause)
		}
		walkNode(v, n.ElseBody)
	case *ElseIfClause:
		walkNode(v, n.Cond)
		walkNode(v, n.Body)
	case *NumericForStmt:
		walkNode(v, n.Start)
		walkNode(v, n.Limit)
		walkNode(v, n.Step)
		walkNode(v, n.Body)
	case *GenericForStmt:
		walkList(v, n.Names)
		walkList(v, n.Exprs)
		walkNode(v, n.Body)
	case *FunctionStmt:
		walkNode(v, n.Name)
		walkNode(v, n.Body)
	case *LocalFunctionStmt:
		walkNode(v, n.Body)
	case *ReturnStmt:
		walkList(v, n.Values)
	case *ExprStmt:
		walkNode(v, n.X)

	case *AttribName, *Param:
		// Leaves.
	case *FuncName:
		walkList(v, n.Path)
	case *FuncBody:
		walkList(v, n.Params)
		walkNode(v, n.Body)

	case *NilExpr, *TrueExpr, *FalseExpr, *NumberExpr, *StringExpr, *VarargExpr, *NameExpr, *BadExpr:
		// Leaves.
	case *ParenExpr:
		walkNode(v, n.X)
	case *IndexExpr:
		walkNode(v, n.X)
		walkNode(v, n.Index)
	case *FieldExpr:
		walkNode(v, n.X)
	case *CallExpr:
		walkNode(v, n.Fn)
		walkNode(v, n.Args)
	case *FunctionExpr:
		walkNode(v, n.Body)
	case *TableExpr:
		walkList(v, n.Fields)
	case *BinaryExpr:
		walkNode(v, n.X)
		walkNode(v, n.Y)
	case *UnaryExpr:
		walkNode(v, n.X)

	case *PositionalField:
		walkNode(v, n.Value)
	case *NamedField:
		walkNode(v, n.Value)
	case *KeyedField:
		walkNode(v, n.Key)
		walkNode(v, n.Value)

	case *ParenArgs:
		walkList(v, n.List)
	case *TableArgs:
		walkNode(v, n.Table)
	case *StringArgs:
		// Leaf.

	default:
		panic(fmt.Sprintf("luaast.Walk: unexpected node type %T", n))
	}

	v.Visit(nil)
}

func walkNode(v Visitor, n Node) {
	if !isNil(n) {
		Walk(v, n)
	}
}

func walkList[T Node](v Visitor, l List[T]) {
	for _, item := range l.Items {
		walkNode(v, item)
	}
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses a syntax tree in depth-first order:
// It starts by calling f(node); node must not be nil.
// If f returns true, Inspect invokes f recursively
// for each of the non-nil children of node,
// followed by a call of f(nil).
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}
