// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splice

import (
	"go/ast"

	"rsc.io/splice/diff"
)

// Sequence rewriting allows insertion and deletion of list elements without
// triggering a reprint of the entire list. Elements are matched up by
// diffing the two sequences of node ids: the old tree has ids assigned
// canonically, and a new element either reuses an old id (it was carried
// over) or has none (it is freshly constructed, and will show up as an
// insertion).

func (rc *rewriteCtxt) seqRecycled(news, olds []ast.Node, aligned bool) bool {
	if aligned {
		// Alignment also needs every element to be a splice point, or there
		// is no way to print an inserted element on its own. Switch and
		// select bodies are statement lists whose elements (case clauses)
		// are not, so they fall back to positional matching.
		for _, n := range news {
			if nodeKindOf(n) == kindNone {
				aligned = false
				break
			}
		}
	}
	if !aligned {
		if len(news) != len(olds) {
			// Length changed and sequence rewriting is unsupported for this
			// element type, so there is nothing we can do.
			return true
		}
		for i := range news {
			if rc.rewriteRecycled(news[i], olds[i]) {
				return true
			}
		}
		return false
	}

	if len(olds) == 0 && len(news) != 0 {
		// No old elements means no span information about where new
		// elements should go.
		return true
	}

	oldIDs := rc.seqIDs(olds, -1)
	newIDs := rc.seqIDs(news, -1-len(olds))

	i, j := 0, 0
	for _, step := range diff.Script(oldIDs, newIDs) {
		switch step.Op {
		case diff.Delete:
			// An old element with no counterpart on the new side.
			sp := rc.r.spanOf(olds[i])
			if !sp.Rewritable() {
				return true
			}
			if rc.r.Log != nil {
				rc.r.logf("DELETE %s", rc.r.describe(sp))
			}
			rc.record(rewrite{old: sp})
			i++

		case diff.Insert:
			// A new element with no counterpart on the old side: splice it
			// in fresh at a zero-width point next to a surviving neighbor.
			var before, after Span
			if i > 0 {
				before = rc.r.spanOf(olds[i-1])
			}
			if i < len(olds) {
				after = rc.r.spanOf(olds[i])
			}
			var at Span
			pre, post := "", ""
			switch {
			case before.Rewritable():
				at = Span{Lo: before.Hi, Hi: before.Hi}
				pre = "\n" + rc.r.lineIndent(before)
			case after.Rewritable():
				at = after.Start()
				post = "\n" + rc.r.lineIndent(after)
			default:
				rc.r.warnf("can't insert new node between two non-rewritable nodes")
				return true
			}
			rc.spliceRecycledSpan(news[j], at, pre, post)
			j++

		case diff.Keep:
			if rc.rewriteRecycled(news[j], olds[i]) {
				// Rewriting failed inside the element.
				return true
			}
			i++
			j++
		}
	}
	return false
}

func (rc *rewriteCtxt) seqFresh(news, reparsed []ast.Node) {
	// The reparsed list is structurally identical to the new one by
	// construction.
	if len(news) != len(reparsed) {
		panic("splice: new and reparsed ASTs differ")
	}
	for i := range news {
		rc.rewriteFresh(news[i], reparsed[i])
	}
}

// lineIndent returns the leading blank space of the line containing the
// start of sp, so that an element inserted next to sp lands at the same
// column as its neighbor.
func (r *Rewriter) lineIndent(sp Span) string {
	tf := r.fset.File(sp.Lo)
	src := r.files[tf.Name()]
	lo := tf.Offset(sp.Lo)
	for lo > 0 && src[lo-1] != '\n' {
		lo--
	}
	hi := lo
	for hi < len(src) && (src[hi] == ' ' || src[hi] == '\t') {
		hi++
	}
	return src[lo:hi]
}

// seqIDs maps list elements to their node ids. Freshly constructed elements
// have no id; they get distinct placeholders (negative, offset by base per
// side) that can never match anything across the diff.
func (rc *rewriteCtxt) seqIDs(nodes []ast.Node, base int) []nodeID {
	ids := make([]nodeID, len(nodes))
	fresh := nodeID(base)
	for i, n := range nodes {
		if id, ok := rc.r.ids[n]; ok {
			ids[i] = id
		} else {
			ids[i] = fresh
			fresh--
		}
	}
	return ids
}
