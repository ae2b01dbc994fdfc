// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splice

// A TextAdjust is a final adjustment applied to replacement text after all
// nested rewrites have been resolved.
type TextAdjust int

const (
	AdjustNone TextAdjust = iota
	AdjustParen // wrap the text in parentheses
)

// A rewrite records the replacement of the text at old with the text at new,
// itself modified by the nested rewrites, the adjustment, and the pre/post
// separators. A zero new span means deletion; an empty old span means
// insertion. Target spans of sibling rewrites never overlap.
//
// The pre and post strings are a concession to Go's grammar: unlike the
// whitespace-separated lists this machinery was first designed for, Go
// statement and declaration lists need an explicit separator at a zero-width
// insertion point.
type rewrite struct {
	old    Span
	new    Span
	nested []rewrite
	adjust TextAdjust
	pre    string
	post   string
}

// A rewriteCtxt is the mutable state of one reconciliation pass: the
// append-only edit log, the span of the closest enclosing freshly-printed
// node, and the precedence requirement of the expression position currently
// being reconciled. It is passed by exclusive reference down the recursion
// and discarded once the edits have been flattened.
type rewriteCtxt struct {
	r    *Rewriter
	list []rewrite

	// freshStart is the span of the node at the most recent switch to fresh
	// mode. spliceFresh refuses to revert a node with exactly this span,
	// which breaks the infinite recursion that would otherwise occur when a
	// non-splice-point child differs while its parent does not.
	freshStart Span

	prec exprPrec

	// gaveUp is set when reconciliation abandons a node: no edit was
	// recorded and the surrounding text is left stale.
	gaveUp bool
}

// mark returns a position in the edit log that rewind can later truncate
// back to. A caller trying a speculative strategy must rewind to its mark
// before trying an alternative; the log is the only mutation surface, so
// truncation is a complete rollback.
func (rc *rewriteCtxt) mark() int {
	return len(rc.list)
}

func (rc *rewriteCtxt) rewind(mark int) {
	rc.list = rc.list[:mark]
}

func (rc *rewriteCtxt) record(rw rewrite) {
	rc.list = append(rc.list, rw)
}

// collect runs f with an empty edit log and returns the rewrites f recorded,
// restoring the previous log afterward. It is how nested child edits are
// gathered for a single enclosing rewrite record.
func (rc *rewriteCtxt) collect(f func()) []rewrite {
	saved := rc.list
	rc.list = nil
	f()
	nested := rc.list
	rc.list = saved
	return nested
}

func (rc *rewriteCtxt) replaceFreshStart(sp Span) Span {
	old := rc.freshStart
	rc.freshStart = sp
	return old
}

func (rc *rewriteCtxt) replacePrec(p exprPrec) exprPrec {
	old := rc.prec
	rc.prec = p
	return old
}
