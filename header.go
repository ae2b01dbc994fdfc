// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splice

import (
	"go/ast"
	"go/scanner"
	"go/token"

	"golang.org/x/xerrors"
)

// Header recovery is the fallback strategy for declarations whose generic
// reconciliation failed only in the header: instead of reprinting the whole
// declaration (body included), it scans the header tokens of both the old
// source text and the freshly printed new text, and emits targeted edits for
// just the qualifiers that differ.
//
// The qualifiers that can change without touching anything below the header
// are, in source order: the receiver and the name for a function
// declaration, and the keyword (var, const, type) and the name for a
// single-spec general declaration. The order matters: when several
// qualifiers change at once the edits must come out in source order.

// A headerSpan is a byte-offset range within a scanned header. lo == hi
// marks the insertion point for a qualifier that is absent.
type headerSpan struct {
	lo, hi int
}

func (h headerSpan) empty() bool { return h.lo == h.hi }

type funcHeader struct {
	recv headerSpan
	name headerSpan
}

type genHeader struct {
	kw   headerSpan
	name headerSpan
}

func (rc *rewriteCtxt) recoverDeclRecycled(new, old ast.Node) bool {
	oldSpan := rc.r.spanOf(old)
	if !oldSpan.Rewritable() {
		// Without original source text for the old header there are no
		// tokens to compare against. (The analog of an item that did not
		// retain its token stream.)
		return true
	}
	switch nd := new.(type) {
	case *ast.FuncDecl:
		od, ok := old.(*ast.FuncDecl)
		if !ok {
			return true
		}
		return rc.recoverFuncDecl(nd, od, oldSpan)
	case *ast.GenDecl:
		od, ok := old.(*ast.GenDecl)
		if !ok {
			return true
		}
		return rc.recoverGenDecl(nd, od, oldSpan)
	}
	return true
}

func (rc *rewriteCtxt) recoverFuncDecl(nd, od *ast.FuncDecl, oldSpan Span) bool {
	r := rc.r

	// First reconcile everything we don't have special handling for. If any
	// of these fails, bail out.
	if rc.rewriteRecycled(nd.Type, od.Type) {
		return true
	}
	if rc.rewriteRecycled(nd.Body, od.Body) {
		return true
	}

	printed := r.printNode(nd)
	h1, err := funcHeaderSpans(printed)
	if err != nil {
		return true
	}
	h2, err := funcHeaderSpans(r.text(oldSpan))
	if err != nil {
		return true
	}
	tf := r.addPrinted(printed)

	if !structEq(nd.Recv, od.Recv) {
		rc.recordQualifier(relSpan(oldSpan, h2.recv), printedSpan(tf, h1.recv))
	}
	if nd.Name.Name != od.Name.Name {
		rc.recordQualifier(relSpan(oldSpan, h2.name), printedSpan(tf, h1.name))
	}
	return false
}

func (rc *rewriteCtxt) recoverGenDecl(nd, od *ast.GenDecl, oldSpan Span) bool {
	r := rc.r

	// Only the simple single-spec form has a scannable "<kw> <name>" header.
	if len(nd.Specs) != 1 || len(od.Specs) != 1 {
		return true
	}
	if nd.Lparen.IsValid() || od.Lparen.IsValid() {
		return true
	}

	var newName, oldName string
	switch ns := nd.Specs[0].(type) {
	case *ast.ValueSpec:
		os, ok := od.Specs[0].(*ast.ValueSpec)
		if !ok || len(ns.Names) != 1 || len(os.Names) != 1 {
			return true
		}
		if rc.rewriteRecycled(ns.Type, os.Type) {
			return true
		}
		if len(ns.Values) != len(os.Values) {
			return true
		}
		for i := range ns.Values {
			if rc.rewriteRecycled(ns.Values[i], os.Values[i]) {
				return true
			}
		}
		newName, oldName = ns.Names[0].Name, os.Names[0].Name

	case *ast.TypeSpec:
		os, ok := od.Specs[0].(*ast.TypeSpec)
		if !ok || ns.Assign.IsValid() != os.Assign.IsValid() {
			return true
		}
		if rc.rewriteRecycled(ns.TypeParams, os.TypeParams) {
			return true
		}
		if rc.rewriteRecycled(ns.Type, os.Type) {
			return true
		}
		newName, oldName = ns.Name.Name, os.Name.Name

	default:
		return true
	}

	printed := r.printNode(nd)
	h1, err := genHeaderSpans(printed)
	if err != nil {
		return true
	}
	h2, err := genHeaderSpans(r.text(oldSpan))
	if err != nil {
		return true
	}
	tf := r.addPrinted(printed)

	if nd.Tok != od.Tok {
		rc.recordQualifier(relSpan(oldSpan, h2.kw), printedSpan(tf, h1.kw))
	}
	if newName != oldName {
		rc.recordQualifier(relSpan(oldSpan, h2.name), printedSpan(tf, h1.name))
	}
	return false
}

// recordQualifier records a rewrite of a single header qualifier. Two
// assumptions hold by construction: an empty old span sits at the start of
// the token following the place the qualifier should go, and a non-empty new
// span is followed by a space in its buffer.
func (rc *rewriteCtxt) recordQualifier(oldSp, newSp Span) {
	src := newSp
	if oldSp.Empty() && !newSp.Empty() {
		// Inserting text where there was none before: extend the source
		// span by one byte, picking up the trailing space, so the inserted
		// text stays separated from the following token.
		src.Hi++
	}

	if rc.r.Log != nil {
		switch {
		case oldSp.Empty():
			rc.r.logf("INSERT (QUAL) %s", rc.r.describe(oldSp))
			rc.r.logf("    AT (QUAL) %s", rc.r.describe(src))
		case newSp.Empty():
			rc.r.logf("DELETE (QUAL) %s", rc.r.describe(oldSp))
		default:
			rc.r.logf("REWRITE (QUAL) %s", rc.r.describe(oldSp))
			rc.r.logf("   INTO (QUAL) %s", rc.r.describe(src))
		}
	}

	rc.record(rewrite{old: oldSp, new: src})
}

// relSpan converts a header-relative offset range into a span within base.
func relSpan(base Span, h headerSpan) Span {
	return Span{Lo: base.Lo + token.Pos(h.lo), Hi: base.Lo + token.Pos(h.hi)}
}

func printedSpan(tf *token.File, h headerSpan) Span {
	return Span{Lo: tf.Pos(h.lo), Hi: tf.Pos(h.hi)}
}

// funcHeaderSpans scans "func [receiver] name" at the start of src and
// returns the qualifier offsets. The scanner skips comments, so a leading
// doc comment in the text is ignored, as are any in between.
func funcHeaderSpans(src string) (funcHeader, error) {
	var h funcHeader
	fset := token.NewFileSet()
	tf := fset.AddFile("header", -1, len(src))
	var s scanner.Scanner
	s.Init(tf, []byte(src), nil, 0)

	pos, tok, lit := s.Scan()
	if tok != token.FUNC {
		return h, xerrors.Errorf("header: expected func, found %v", tok)
	}

	pos, tok, lit = s.Scan()
	if tok == token.LPAREN {
		lo := tf.Offset(pos)
		depth := 1
		for depth > 0 {
			pos, tok, lit = s.Scan()
			switch tok {
			case token.LPAREN:
				depth++
			case token.RPAREN:
				depth--
			case token.EOF:
				return h, xerrors.New("header: unbalanced receiver")
			}
		}
		h.recv = headerSpan{lo, tf.Offset(pos) + 1}
		pos, tok, lit = s.Scan()
	} else {
		// No receiver: its slot is the insertion point just before the name.
		off := tf.Offset(pos)
		h.recv = headerSpan{off, off}
	}

	if tok != token.IDENT {
		return h, xerrors.Errorf("header: expected name, found %v", tok)
	}
	off := tf.Offset(pos)
	h.name = headerSpan{off, off + len(lit)}
	return h, nil
}

// genHeaderSpans scans "<var|const|type> name" at the start of src.
func genHeaderSpans(src string) (genHeader, error) {
	var h genHeader
	fset := token.NewFileSet()
	tf := fset.AddFile("header", -1, len(src))
	var s scanner.Scanner
	s.Init(tf, []byte(src), nil, 0)

	pos, tok, _ := s.Scan()
	switch tok {
	case token.VAR, token.CONST, token.TYPE:
	default:
		return h, xerrors.Errorf("header: expected var, const, or type, found %v", tok)
	}
	off := tf.Offset(pos)
	h.kw = headerSpan{off, off + len(tok.String())}

	pos, tok, lit := s.Scan()
	if tok != token.IDENT {
		return h, xerrors.Errorf("header: expected name, found %v", tok)
	}
	off = tf.Offset(pos)
	h.name = headerSpan{off, off + len(lit)}
	return h, nil
}
