// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splice

import (
	"fmt"
	"go/ast"
	"go/token"
	"reflect"
)

// A Span identifies a region of text known to a Rewriter, either in the
// original source file or in a printed buffer registered while rewriting.
// Lo == Hi denotes an insertion point rather than a range.
//
// Ctxt is the span's hygiene context: 0 for text that came from parsed
// source, non-zero for subtrees registered with MarkGenerated. The zero Span
// is the synthetic empty span carried by freshly constructed nodes.
type Span struct {
	Lo, Hi token.Pos
	Ctxt   int
}

// Rewritable reports whether sp has source text that we can rewrite, or use
// as source text to rewrite something else. Rewriting generated code would be
// very complicated, so any span with a non-default context is declared
// non-rewritable.
func (sp Span) Rewritable() bool {
	return sp != (Span{}) && sp.Lo.IsValid() && sp.Ctxt == 0
}

// Empty reports whether sp is an insertion point.
func (sp Span) Empty() bool {
	return sp.Lo == sp.Hi
}

// Start returns the zero-width span at sp's low end.
func (sp Span) Start() Span {
	return Span{Lo: sp.Lo, Hi: sp.Lo, Ctxt: sp.Ctxt}
}

// spanOf returns the span covering n. Declaration spans extend leftward over
// the doc comment, so that replacing a declaration consumes its stale
// documentation too.
func (r *Rewriter) spanOf(n ast.Node) Span {
	if isNilNode(n) {
		return Span{}
	}
	lo, hi := n.Pos(), n.End()
	switch n := n.(type) {
	case *ast.FuncDecl:
		if n.Doc != nil && n.Doc.Pos().IsValid() {
			lo = n.Doc.Pos()
		}
	case *ast.GenDecl:
		if n.Doc != nil && n.Doc.Pos().IsValid() {
			lo = n.Doc.Pos()
		}
	}
	if !lo.IsValid() {
		return Span{}
	}
	return Span{Lo: lo, Hi: hi, Ctxt: r.gen[n]}
}

// text returns the text at sp, slicing the original source or a printed
// buffer. The zero span resolves to the empty string, which is how deletions
// are represented.
func (r *Rewriter) text(sp Span) string {
	if !sp.Lo.IsValid() {
		return ""
	}
	lo := r.fset.Position(sp.Lo)
	hi := r.fset.Position(sp.Hi)
	src, ok := r.files[lo.Filename]
	if !ok {
		panic("splice: file not found: " + lo.Filename)
	}
	return src[lo.Offset:hi.Offset]
}

// describe formats sp for trace output.
func (r *Rewriter) describe(sp Span) string {
	if !sp.Lo.IsValid() {
		return "<empty>"
	}
	lo := r.fset.Position(sp.Lo)
	hi := r.fset.Position(sp.Hi)
	return fmt.Sprintf("%s:%d..%d = %q", lo.Filename, lo.Offset, hi.Offset, r.text(sp))
}

// isNilNode reports whether n is nil, including a typed nil stored in one of
// the go/ast interface types.
func isNilNode(n ast.Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
