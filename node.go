// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splice

import (
	"go/ast"

	"golang.org/x/tools/go/ast/astutil"
)

// A nodeID is the stable identity of a node in the old tree. go/ast nodes
// have no identifier field, so ids live in a side map keyed by node pointer,
// assigned canonically while indexing the old tree. A subtree reused by
// pointer in the new tree keeps its id for free; Adopt transfers an id onto a
// copied node. Identifier reuse is the only signal that a new-tree node
// denotes the same logical node as an old-tree node; structural equality is
// never consulted for matching.
type nodeID int

// A nodeKind classifies the syntactic constructs that act as splice points,
// where rendering may switch between recycled source text and freshly
// printed text.
type nodeKind int

const (
	kindNone nodeKind = iota
	kindExpr
	kindStmt
	kindDecl
	kindSpec
	kindFile
)

// nodeKindOf returns the splice-point kind of n, or kindNone for nodes that
// only reconcile through the generic walk. Idents are deliberately not
// splice points: an ident that differs fails its parent, which is what lets
// header recovery handle renames at the declaration level. The other
// exclusions are constructs that satisfy Expr or Stmt but do not parse as a
// standalone expression or statement, so they cannot round-trip through a
// printed fragment.
func nodeKindOf(n ast.Node) nodeKind {
	switch n.(type) {
	case *ast.Ident, *ast.KeyValueExpr, *ast.Ellipsis:
		return kindNone
	case *ast.CaseClause, *ast.CommClause:
		return kindNone
	case *ast.File:
		return kindFile
	case ast.Decl:
		return kindDecl
	case ast.Spec:
		return kindSpec
	case ast.Stmt:
		return kindStmt
	case ast.Expr:
		return kindExpr
	}
	return kindNone
}

// index assigns ids to every node of the old tree and fills the per-kind
// old-node tables. It runs once, before reconciliation begins; the tables
// are read-only afterward and live only as long as the Rewriter.
func (r *Rewriter) index(f *ast.File) {
	astutil.Apply(f, func(c *astutil.Cursor) bool {
		n := c.Node()
		if n == nil {
			return true
		}
		r.nextID++
		id := r.nextID
		r.ids[n] = id
		switch nodeKindOf(n) {
		case kindExpr:
			r.oldExprs[id] = n.(ast.Expr)
		case kindStmt:
			r.oldStmts[id] = n.(ast.Stmt)
		case kindDecl:
			r.oldDecls[id] = n.(ast.Decl)
		case kindSpec:
			r.oldSpecs[id] = n.(ast.Spec)
		}
		return true
	}, nil)
}

// oldNode looks up the old-tree node of the given kind with the given id.
func (r *Rewriter) oldNode(kind nodeKind, id nodeID) ast.Node {
	switch kind {
	case kindExpr:
		if n, ok := r.oldExprs[id]; ok {
			return n
		}
	case kindStmt:
		if n, ok := r.oldStmts[id]; ok {
			return n
		}
	case kindDecl:
		if n, ok := r.oldDecls[id]; ok {
			return n
		}
	case kindSpec:
		if n, ok := r.oldSpecs[id]; ok {
			return n
		}
	}
	return nil
}

// Adopt records that clone is the transformed version of orig: clone takes
// over orig's identity. Transformations that copy a node struct before
// mutating it must call Adopt on the copy, or the engine will treat the node
// as freshly constructed and reprint it rather than patching it in place.
// Subtrees reused by pointer need no Adopt call.
func (r *Rewriter) Adopt(clone, orig ast.Node) {
	if id, ok := r.ids[orig]; ok {
		r.ids[clone] = id
	}
}

// MarkGenerated places n and all of its descendants in a fresh non-default
// hygiene context. Spans inside such a subtree are never the target of any
// edit: reconciliation that would have to rewrite them gives up on that
// subtree instead and leaves the surrounding text untouched.
func (r *Rewriter) MarkGenerated(n ast.Node) {
	r.nextCtxt++
	ctxt := r.nextCtxt
	ast.Inspect(n, func(m ast.Node) bool {
		if m != nil {
			r.gen[m] = ctxt
		}
		return true
	})
}
