// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splice

import (
	"go/ast"
	"go/token"
)

// An exprPrec is the requirement the current syntactic position places on an
// expression about to be spliced there: the minimum operator precedence that
// can appear unparenthesized, plus the positional kind for the ambiguities
// precedence alone does not capture.
type exprPrec struct {
	kind precKind
	min  int
}

type precKind int

const (
	precNormal precKind = iota // ordinary expression position
	precCond                   // condition head: a leading composite literal would open the block early
	precCallee                 // callee of a call: operator-led conversion types misparse
)

func exprPrecNone() exprPrec {
	return exprPrec{precNormal, token.LowestPrec}
}

// precedence returns the operator precedence of an expression's outermost
// form. Parenthesized and primary expressions bind tightest.
func precedence(e ast.Expr) int {
	switch e := e.(type) {
	case *ast.BinaryExpr:
		return e.Op.Precedence()
	case *ast.UnaryExpr, *ast.StarExpr:
		return token.UnaryPrec
	case *ast.KeyValueExpr:
		return token.LowestPrec
	}
	return token.HighestPrec
}

type fixity int

const (
	fixityLeft fixity = iota
	fixityRight
	fixityNone
)

// binopFixity returns the associativity of op. Every Go binary operator
// associates left; the other fixities are kept so the operand rules below
// read the same as the associativity they implement.
func binopFixity(op token.Token) fixity {
	return fixityLeft
}

// binopLeftPrec returns the minimum precedence of the left operand of op: a
// left-associative operator accepts its own precedence there, anything else
// requires strictly higher.
func binopLeftPrec(op token.Token) int {
	prec := op.Precedence()
	if binopFixity(op) == fixityLeft {
		return prec
	}
	return prec + 1
}

// binopRightPrec is the mirror image for the right operand.
func binopRightPrec(op token.Token) int {
	prec := op.Precedence()
	if binopFixity(op) == fixityRight {
		return prec
	}
	return prec + 1
}

// childPrec returns the requirement parent places on the expression stored
// in the named field. Positions that never splice an expression fall through
// to the unconstrained default.
func childPrec(parent ast.Node, field string) exprPrec {
	switch p := parent.(type) {
	case *ast.BinaryExpr:
		switch field {
		case "X":
			return exprPrec{precNormal, binopLeftPrec(p.Op)}
		case "Y":
			return exprPrec{precNormal, binopRightPrec(p.Op)}
		}
	case *ast.UnaryExpr:
		if field == "X" {
			return exprPrec{precNormal, token.UnaryPrec + 1}
		}
	case *ast.StarExpr:
		if field == "X" {
			return exprPrec{precNormal, token.UnaryPrec + 1}
		}
	case *ast.SelectorExpr, *ast.IndexExpr, *ast.IndexListExpr, *ast.SliceExpr, *ast.TypeAssertExpr:
		if field == "X" {
			return exprPrec{precNormal, token.HighestPrec}
		}
	case *ast.CallExpr:
		if field == "Fun" {
			return exprPrec{precCallee, token.HighestPrec}
		}
	case *ast.IfStmt:
		if field == "Cond" {
			return exprPrec{precCond, token.LowestPrec}
		}
	case *ast.ForStmt:
		if field == "Cond" {
			return exprPrec{precCond, token.LowestPrec}
		}
	case *ast.SwitchStmt:
		if field == "Tag" {
			return exprPrec{precCond, token.LowestPrec}
		}
	case *ast.RangeStmt:
		if field == "X" {
			return exprPrec{precCond, token.LowestPrec}
		}
	}
	return exprPrecNone()
}

// adjustment decides whether the text about to be spliced for n needs
// parentheses at the position recorded in rc. Non-expressions never do.
func (r *Rewriter) adjustment(n ast.Node, rc *rewriteCtxt) TextAdjust {
	e, ok := n.(ast.Expr)
	if !ok || isNilNode(n) {
		return AdjustNone
	}

	var need bool
	prec := precedence(e)
	switch rc.prec.kind {
	case precNormal:
		need = prec < rc.prec.min
	case precCond:
		need = prec < rc.prec.min || containsExteriorCompositeLit(e)
	case precCallee:
		switch e.(type) {
		case *ast.StarExpr, *ast.ChanType, *ast.FuncType:
			// A conversion whose type starts with *, <-, or func must be
			// parenthesized to parse as a callee at all.
			need = true
		default:
			need = prec < rc.prec.min
		}
	}

	if need {
		return AdjustParen
	}
	return AdjustNone
}

// containsExteriorCompositeLit reports whether e has a composite literal on
// its exterior: one not shielded by parentheses, so that in a condition
// position its opening brace would be taken as the start of the block.
func containsExteriorCompositeLit(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.CompositeLit:
		return true
	case *ast.BinaryExpr:
		return containsExteriorCompositeLit(e.X) || containsExteriorCompositeLit(e.Y)
	case *ast.UnaryExpr:
		return containsExteriorCompositeLit(e.X)
	case *ast.StarExpr:
		return containsExteriorCompositeLit(e.X)
	case *ast.SelectorExpr:
		return containsExteriorCompositeLit(e.X)
	case *ast.IndexExpr:
		return containsExteriorCompositeLit(e.X)
	case *ast.IndexListExpr:
		return containsExteriorCompositeLit(e.X)
	case *ast.SliceExpr:
		return containsExteriorCompositeLit(e.X)
	case *ast.TypeAssertExpr:
		return containsExteriorCompositeLit(e.X)
	case *ast.CallExpr:
		return containsExteriorCompositeLit(e.Fun)
	}
	return false
}
