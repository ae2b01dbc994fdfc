// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package splice turns tree transformations into minimal text edits.
//
// A tool that rewrites Go source by parsing it, transforming the syntax
// tree, and printing the result throws away everything the printer does not
// know about: comment placement, blank lines, manual alignment. Splice
// instead compares the transformed tree against the original tree and
// produces the smallest set of text edits against the original source that
// makes it parse to the transformed tree. Code the transformation did not
// touch keeps its original text, byte for byte.
//
// The expected use looks like:
//
//	fset := token.NewFileSet()
//	old, err := parser.ParseFile(fset, name, src, 0)
//	...
//	r := splice.New(fset, name, src, old)
//	new := transform(r, old)
//	edits, ok := r.Rewrite(new)
//	out := r.Apply(edits)
//
// The transformation builds the new tree from the old one, sharing unchanged
// subtrees by pointer. A node that is copied and then modified must be
// registered with [Rewriter.Adopt], so that the engine knows the copy stands
// for the original; a node it has never seen is treated as newly written
// code and is pretty-printed. Subtrees built by the transformation itself,
// rather than derived from user source, can be registered with
// [Rewriter.MarkGenerated]: the engine then refuses to produce edits inside
// the text such a subtree came from, the way a rewriter must refuse to edit
// the inside of generated code it does not own.
//
// # How edits are chosen
//
// Reconciliation walks the two trees in parallel. While the trees agree, the
// original text stands and nothing is recorded. At the smallest expression,
// statement, specification, or declaration where they disagree, the engine
// switches strategy: the new node is pretty-printed, and the printed text
// replaces the node's original text. Inside that printed text the comparison
// continues in the opposite direction, reverting any subtree that provably
// came through unchanged back to its original text, so that a change buried
// deep in an expression does not reformat its siblings.
//
// Statement and declaration lists are compared by a longest-common
// subsequence alignment on node identity, so inserting a statement in the
// middle of a function produces one insertion, not a rewrite of everything
// after it.
//
// Function and general declarations get one more chance before reprinting:
// when only the name, the receiver, or the var/const/type keyword changed,
// the engine scans the declaration header and edits just that token.
//
// Replacement expressions are parenthesized when the text would otherwise
// bind differently in its new position, and composite literals spliced into
// a statement condition are parenthesized to keep the brace from being
// claimed by the statement body. That adjustment applies only to where a
// spliced node lands, not to its insides: go/printer never invents
// parentheses, so a freshly built subtree must carry an explicit
// [ast.ParenExpr] wherever grouping departs from operator precedence. A
// tree like BinaryExpr(BinaryExpr(a, +, b), *, c) without one prints as
// a + b*c, which reads back with the wrong shape, and [Rewriter.Rewrite]
// panics rather than emit text that parses to a different tree.
package splice
