// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splice

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"strings"

	"golang.org/x/xerrors"
)

// Reconciliation of any node is always in exactly one of two modes.
//
// In recycled mode the text ultimately emitted for the node is, by default,
// the original source text at its old span; recorded edits are departures
// from that default. rewriteRecycled reports failure (true) when the change
// at a node cannot be represented incrementally, in which case the caller
// must roll back to its mark and try another strategy, ultimately switching
// the smallest enclosing splice point to fresh mode.
//
// In fresh mode the text ultimately emitted is pretty-printed text newly
// generated for the node; recorded edits are reversions to original text
// where the node provably came through unchanged from the old tree. Fresh
// mode reconciles the new node against a placeholder obtained by reparsing
// the printed text, so that every node has a real span into the printed
// buffer.

func (rc *rewriteCtxt) rewriteRecycled(new, old ast.Node) bool {
	nNil, oNil := isNilNode(new), isNilNode(old)
	if nNil || oNil {
		return !(nNil && oNil)
	}
	if new == old {
		// Shared subtree: nothing can have changed.
		return false
	}
	switch nodeKindOf(new) {
	case kindExpr, kindStmt, kindSpec:
		return rc.spliceRecycledDefault(new, old)
	case kindDecl:
		return rc.declRecycled(new, old)
	case kindFile:
		return rc.fileRecycled(new.(*ast.File), old.(*ast.File))
	}
	return rc.walkRecycled(new, old)
}

func (rc *rewriteCtxt) rewriteFresh(new, reparsed ast.Node) {
	nNil, rNil := isNilNode(new), isNilNode(reparsed)
	if nNil || rNil {
		if nNil && rNil {
			return
		}
		panic("splice: new and reparsed ASTs differ")
	}
	switch nodeKindOf(new) {
	case kindExpr, kindStmt, kindSpec, kindDecl:
		if rc.spliceFresh(new, reparsed) {
			return
		}
		rc.walkFresh(new, reparsed)
	case kindFile:
		if rc.spliceFresh(new, reparsed) {
			return
		}
		rc.fileWalkFresh(new.(*ast.File), reparsed.(*ast.File))
	default:
		rc.walkFresh(new, reparsed)
	}
}

// spliceRecycledDefault is the recycled-mode strategy shared by the kinds
// with no special recovery: reconcile the children, and if that fails switch
// the whole node to fresh mode, which never fails (though it may give up).
func (rc *rewriteCtxt) spliceRecycledDefault(new, old ast.Node) bool {
	mark := rc.mark()
	if !rc.walkRecycled(new, old) {
		return false
	}
	rc.rewind(mark)
	rc.spliceRecycled(new, old)
	return false
}

func (rc *rewriteCtxt) declRecycled(new, old ast.Node) bool {
	// Try the default strategy first. If it fails, fall back on header
	// recovery, and finally on the full switch to fresh mode.
	mark := rc.mark()
	if !rc.walkRecycled(new, old) {
		return false
	}
	rc.rewind(mark)

	mark = rc.mark()
	if !rc.recoverDeclRecycled(new, old) {
		return false
	}
	rc.rewind(mark)

	rc.spliceRecycled(new, old)
	return false
}

func (rc *rewriteCtxt) fileRecycled(new, old *ast.File) bool {
	mark := rc.mark()
	if !rc.fileWalkRecycled(new, old) {
		return false
	}
	rc.rewind(mark)
	rc.spliceRecycled(new, old)
	return false
}

// fileWalkRecycled reconciles the parts of a file the generic walk cannot
// see past: the package clause and the declaration list. The other File
// fields (scope, unresolved idents, collected comments) are bookkeeping, not
// syntax.
func (rc *rewriteCtxt) fileWalkRecycled(new, old *ast.File) bool {
	if new.Name.Name != old.Name.Name {
		return true
	}
	return rc.seqRecycled(declNodes(new.Decls), declNodes(old.Decls), true)
}

func (rc *rewriteCtxt) fileWalkFresh(new, reparsed *ast.File) {
	if new.Name.Name != reparsed.Name.Name {
		panic("splice: new and reparsed ASTs differ")
	}
	rc.seqFresh(declNodes(new.Decls), declNodes(reparsed.Decls))
}

// spliceRecycled switches new from recycled to fresh mode: the source text
// for old will be replaced with pretty-printed code for new. If old's span
// is not rewritable, rewriting failed somewhere inside generated code; we
// give up on this part of the rewrite and leave the surrounding text
// untouched, because editing inside generated regions is never attempted.
func (rc *rewriteCtxt) spliceRecycled(new, old ast.Node) {
	oldSpan := rc.r.spanOf(old)
	if !oldSpan.Rewritable() {
		rc.r.warnf("can't splice in fresh text for a non-rewritable node")
		rc.gaveUp = true
		return
	}
	rc.spliceRecycledSpan(new, oldSpan, "", "")
}

// spliceRecycledSpan replaces the text at oldSpan with pretty-printed code
// for new, reconciling the new node against the reparsed placeholder in
// fresh mode so that unchanged subtrees inside it can revert to their
// original text.
func (rc *rewriteCtxt) spliceRecycledSpan(new ast.Node, oldSpan Span, pre, post string) {
	r := rc.r
	printed := r.printNode(new)
	reparsed := r.reparse(new, printed)
	repSpan := r.spanOf(reparsed)

	if r.Log != nil {
		if oldSpan.Empty() {
			r.logf("INSERT AT %s", r.describe(oldSpan))
			r.logf("     TEXT %s", r.describe(repSpan))
		} else {
			r.logf("REWRITE %s", r.describe(oldSpan))
			r.logf("   INTO %s", r.describe(repSpan))
		}
	}

	oldFS := rc.replaceFreshStart(r.spanOf(new))
	nested := rc.collect(func() {
		rc.rewriteFresh(new, reparsed)
	})
	rc.replaceFreshStart(oldFS)

	rc.record(rewrite{
		old:    oldSpan,
		new:    repSpan,
		nested: nested,
		adjust: r.adjustment(new, rc),
		pre:    pre,
		post:   post,
	})
}

// spliceFresh attempts the switch from fresh back to recycled mode: if new
// was copied from the old tree, the placeholder's printed text is replaced
// with the matched old node's original source text, restoring the original
// formatting. It reports whether the reversion succeeded; on failure the
// enclosing fresh-printed text stands, which is always safe.
func (rc *rewriteCtxt) spliceFresh(new, reparsed ast.Node) bool {
	r := rc.r

	// Don't try to replace the entire fresh subtree with old text. This
	// breaks an infinite recursion when a non-splice-point child differs
	// between the old and new trees: spliceRecycled wants to replace the old
	// text with printed text, while spliceFresh wants to replace the printed
	// text with the old text the new node still carries a span for.
	if r.spanOf(new) == rc.freshStart {
		return false
	}

	id, ok := r.ids[new]
	if !ok {
		return false
	}
	old := r.oldNode(nodeKindOf(new), id)
	if old == nil {
		return false
	}

	oldSpan := r.spanOf(old)
	if !oldSpan.Rewritable() {
		return false
	}
	if strings.HasPrefix(r.fset.Position(oldSpan.Lo).Filename, printedPrefix) {
		// The match resolves into a printed buffer, not caller-registered
		// source.
		return false
	}

	mark := rc.mark()
	var failed bool
	nested := rc.collect(func() {
		failed = rc.rewriteRecycled(new, old)
	})
	if failed {
		rc.rewind(mark)
		return false
	}

	repSpan := r.spanOf(reparsed)
	if r.Log != nil {
		r.logf("REVERT %s", r.describe(repSpan))
		r.logf("    TO %s", r.describe(oldSpan))
	}

	rc.record(rewrite{
		old:    repSpan,
		new:    oldSpan,
		nested: nested,
		adjust: r.adjustment(new, rc),
	})
	return true
}

// printedPrefix names the virtual buffers that hold freshly printed text.
const printedPrefix = "splice-printed-"

// printNode pretty-prints a single node. The printer is total and
// deterministic; any error is an internal invariant violation.
func (r *Rewriter) printNode(n ast.Node) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, r.fset, n); err != nil {
		panic(xerrors.Errorf("splice: print: %w", err))
	}
	return buf.String()
}

// reparse parses printed text back into a node of the same kind as n,
// registering the text as a virtual buffer so the resulting placeholder tree
// carries real spans. The text must parse as exactly one node of the
// requested kind; anything else is a caller error and panics.
func (r *Rewriter) reparse(n ast.Node, printed string) ast.Node {
	r.nprinted++
	name := fmt.Sprintf("%s%d", printedPrefix, r.nprinted)

	switch nodeKindOf(n) {
	case kindExpr:
		x, err := parser.ParseExprFrom(r.fset, name, printed, 0)
		if err != nil {
			panic(xerrors.Errorf("splice: reparse expr %q: %w", printed, err))
		}
		r.files[name] = printed
		return x

	case kindStmt:
		full := "package _\nfunc _() {\n" + printed + "\n}"
		f, err := parser.ParseFile(r.fset, name, full, 0)
		if err != nil {
			panic(xerrors.Errorf("splice: reparse stmt %q: %w", printed, err))
		}
		r.files[name] = full
		body := f.Decls[0].(*ast.FuncDecl).Body
		if len(body.List) != 1 {
			panic("splice: fragment is not a single statement")
		}
		return body.List[0]

	case kindSpec:
		full := "package _\n" + specKeyword(n.(ast.Spec)) + " " + printed
		f, err := parser.ParseFile(r.fset, name, full, 0)
		if err != nil {
			panic(xerrors.Errorf("splice: reparse spec %q: %w", printed, err))
		}
		r.files[name] = full
		specs := f.Decls[0].(*ast.GenDecl).Specs
		if len(specs) != 1 {
			panic("splice: fragment is not a single spec")
		}
		return specs[0]

	case kindDecl:
		full := "package _\n" + printed
		f, err := parser.ParseFile(r.fset, name, full, 0)
		if err != nil {
			panic(xerrors.Errorf("splice: reparse decl %q: %w", printed, err))
		}
		r.files[name] = full
		if len(f.Decls) != 1 {
			panic("splice: fragment is not a single declaration")
		}
		return f.Decls[0]

	case kindFile:
		f, err := parser.ParseFile(r.fset, name, printed, 0)
		if err != nil {
			panic(xerrors.Errorf("splice: reparse file: %w", err))
		}
		r.files[name] = printed
		return f
	}
	panic("splice: reparse of non-splice-point node")
}

func specKeyword(s ast.Spec) string {
	switch s := s.(type) {
	case *ast.ImportSpec:
		return "import"
	case *ast.TypeSpec:
		return "type"
	case *ast.ValueSpec:
		if s.Type == nil && len(s.Values) == 0 {
			// A name-only spec (an iota continuation) is a parse error
			// after var but not after const.
			return "const"
		}
	}
	// Any other ValueSpec parses the same way under var and const.
	return "var"
}

func declNodes(decls []ast.Decl) []ast.Node {
	nodes := make([]ast.Node, len(decls))
	for i, d := range decls {
		nodes[i] = d
	}
	return nodes
}
