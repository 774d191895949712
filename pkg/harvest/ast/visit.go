package ast

import "fmt"

// ExpressionVisitor has one method per expression node type. Adding a node
// type adds a method here, so every visitor stops compiling until it handles
// the new case.
type ExpressionVisitor[R any] interface {
	VisitBinary(*Binary) R
	VisitGrouping(*Grouping) R
	VisitLiteral(*Literal) R
	VisitVariable(*Variable) R
	VisitUnary(*Unary) R
	VisitCall(*Call) R
	VisitPropertyAccess(*PropertyAccess) R
}

// StatementVisitor has one method per statement node type.
type StatementVisitor[R any] interface {
	VisitExpressionStatement(*ExpressionStatement) R
	VisitIf(*If) R
	VisitFor(*For) R
	VisitBlock(*Block) R
	VisitVarDecl(*VarDecl) R
	VisitFetch(*Fetch) R
	VisitSave(*Save) R
	VisitPrint(*Print) R
}

// AcceptExpression dispatches e to the matching method of v.
func AcceptExpression[R any](e Expression, v ExpressionVisitor[R]) R {
	switch n := e.(type) {
	case *Binary:
		return v.VisitBinary(n)
	case *Grouping:
		return v.VisitGrouping(n)
	case *Literal:
		return v.VisitLiteral(n)
	case *Variable:
		return v.VisitVariable(n)
	case *Unary:
		return v.VisitUnary(n)
	case *Call:
		return v.VisitCall(n)
	case *PropertyAccess:
		return v.VisitPropertyAccess(n)
	}
	panic(fmt.Sprintf("ast: unknown expression type %T", e))
}

// AcceptStatement dispatches s to the matching method of v.
func AcceptStatement[R any](s Statement, v StatementVisitor[R]) R {
	switch n := s.(type) {
	case *ExpressionStatement:
		return v.VisitExpressionStatement(n)
	case *If:
		return v.VisitIf(n)
	case *For:
		return v.VisitFor(n)
	case *Block:
		return v.VisitBlock(n)
	case *VarDecl:
		return v.VisitVarDecl(n)
	case *Fetch:
		return v.VisitFetch(n)
	case *Save:
		return v.VisitSave(n)
	case *Print:
		return v.VisitPrint(n)
	}
	panic(fmt.Sprintf("ast: unknown statement type %T", s))
}

// Children returns the direct child nodes of n in source order.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Program:
		return statements(n.Statements)
	case *Binary:
		return []Node{n.Left, n.Right}
	case *Grouping:
		return []Node{n.Inner}
	case *Unary:
		return []Node{n.Operand}
	case *Call:
		out := []Node{n.Callee}
		for _, a := range n.Arguments {
			out = append(out, a)
		}
		return out
	case *PropertyAccess:
		return []Node{n.Object}
	case *ExpressionStatement:
		return []Node{n.Expression}
	case *If:
		if n.Else != nil {
			return []Node{n.Condition, n.Then, n.Else}
		}
		return []Node{n.Condition, n.Then}
	case *For:
		return []Node{n.Iterable, n.Body}
	case *Block:
		return statements(n.Statements)
	case *VarDecl:
		if n.Initializer != nil {
			return []Node{n.Initializer}
		}
	case *Fetch:
		return []Node{n.URL}
	case *Save:
		return []Node{n.Data, n.Filename}
	case *Print:
		return []Node{n.Expression}
	}
	return nil
}

func statements(list []Statement) []Node {
	out := make([]Node, len(list))
	for i, s := range list {
		out[i] = s
	}
	return out
}

// Inspect traverses the tree depth-first in source order, calling fn for each
// node. If fn returns false the children of that node are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, fn)
	}
}
