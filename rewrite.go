// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splice

import (
	"fmt"
	"go/ast"
	"go/token"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"rsc.io/splice/edit"
)

// A Rewriter turns the difference between an old syntax tree and a
// transformed copy of it into a minimal set of text edits against the old
// source. It is created for a single file and a single rewrite; it is not
// safe for concurrent use.
type Rewriter struct {
	fset  *token.FileSet
	name  string
	files map[string]string
	old   *ast.File

	ids      map[ast.Node]nodeID
	nextID   nodeID
	oldExprs map[nodeID]ast.Expr
	oldStmts map[nodeID]ast.Stmt
	oldDecls map[nodeID]ast.Decl
	oldSpecs map[nodeID]ast.Spec

	gen      map[ast.Node]int
	nextCtxt int

	nprinted int

	// Log, if non-nil, receives a trace of every recorded edit.
	Log *log.Logger
}

// New returns a Rewriter for the file old, which must have been parsed from
// src under fset with the given name. New indexes the old tree; old must not
// be mutated afterward. The tree passed to Rewrite is typically built by
// copying nodes of old, sharing unchanged subtrees by pointer and calling
// Adopt on modified copies.
func New(fset *token.FileSet, name string, src []byte, old *ast.File) *Rewriter {
	r := &Rewriter{
		fset:     fset,
		name:     name,
		files:    map[string]string{name: string(src)},
		old:      old,
		ids:      make(map[ast.Node]nodeID),
		oldExprs: make(map[nodeID]ast.Expr),
		oldStmts: make(map[nodeID]ast.Stmt),
		oldDecls: make(map[nodeID]ast.Decl),
		oldSpecs: make(map[nodeID]ast.Spec),
		gen:      make(map[ast.Node]int),
	}
	r.index(old)
	return r
}

// A TextEdit replaces the source text in [Lo, Hi) with New. Lo == Hi is an
// insertion. The edits returned by Rewrite are sorted and non-overlapping.
type TextEdit struct {
	Lo, Hi token.Pos
	New    string
}

// Rewrite reconciles new against the old tree and returns the text edits
// that transform the old source into text that parses to new. The boolean
// result is false if some part of the rewrite had to be abandoned, which
// happens only when a change falls inside a subtree marked with
// MarkGenerated; the edits returned are still valid, they just leave that
// part of the source in its old form.
func (r *Rewriter) Rewrite(new *ast.File) ([]TextEdit, bool) {
	rc := &rewriteCtxt{r: r, prec: exprPrecNone()}
	rc.rewriteRecycled(new, r.old)

	edits := make([]TextEdit, 0, len(rc.list))
	for _, rw := range rc.list {
		edits = append(edits, TextEdit{Lo: rw.old.Lo, Hi: rw.old.Hi, New: r.materialize(rw)})
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].Lo < edits[j].Lo })

	tf := r.fset.File(r.old.Pos())
	for i, e := range edits {
		if e.Lo < tf.Pos(0) || e.Hi > tf.Pos(tf.Size()) {
			panic("splice: edit outside rewritten file")
		}
		if i > 0 && edits[i-1].Hi > e.Lo {
			panic("splice: overlapping edits")
		}
	}
	return edits, !rc.gaveUp
}

// Apply applies edits from Rewrite to the original source and returns the
// rewritten text.
func (r *Rewriter) Apply(edits []TextEdit) []byte {
	buf := edit.NewBuffer([]byte(r.files[r.name]))
	for _, e := range edits {
		lo := r.fset.Position(e.Lo).Offset
		hi := r.fset.Position(e.Hi).Offset
		buf.Replace(lo, hi, e.New)
	}
	return buf.Bytes()
}

// materialize resolves rw to its final replacement text: the text at the
// source span, with nested rewrites spliced in, the adjustment applied, and
// the separators attached.
func (r *Rewriter) materialize(rw rewrite) string {
	text := r.text(rw.new)
	if len(rw.nested) > 0 {
		nested := append([]rewrite(nil), rw.nested...)
		sort.SliceStable(nested, func(i, j int) bool { return nested[i].old.Lo < nested[j].old.Lo })

		base := r.fset.Position(rw.new.Lo).Offset
		var buf strings.Builder
		prev := 0
		for _, sub := range nested {
			lo := r.fset.Position(sub.old.Lo).Offset - base
			hi := r.fset.Position(sub.old.Hi).Offset - base
			if lo < prev || hi > len(text) {
				panic("splice: nested rewrite outside its parent")
			}
			buf.WriteString(text[prev:lo])
			buf.WriteString(r.materialize(sub))
			prev = hi
		}
		buf.WriteString(text[prev:])
		text = buf.String()
	}
	if rw.adjust == AdjustParen {
		text = "(" + text + ")"
	}
	return rw.pre + text + rw.post
}

// addPrinted registers text as a new printed buffer and returns its
// token.File, whose offsets map directly into the text.
func (r *Rewriter) addPrinted(text string) *token.File {
	r.nprinted++
	name := fmt.Sprintf("%s%d", printedPrefix, r.nprinted)
	tf := r.fset.AddFile(name, -1, len(text))
	tf.SetLinesForContent([]byte(text))
	r.files[name] = text
	return tf
}

func (r *Rewriter) logf(format string, args ...any) {
	if r.Log != nil {
		r.Log.Infof(format, args...)
	}
}

func (r *Rewriter) warnf(format string, args ...any) {
	if r.Log != nil {
		r.Log.Warnf(format, args...)
	}
}
