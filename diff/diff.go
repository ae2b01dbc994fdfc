// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diff computes an insert/delete/keep edit script aligning two
// ordered lists by a longest common subsequence.
package diff

// An Op is one kind of edit-script step.
type Op int

const (
	Keep   Op = iota // element present on both sides
	Insert           // element present only on the new side
	Delete           // element present only on the old side
)

// A Step is one step of an edit script. Old and New index into the input
// slices; the index on the absent side is -1.
type Step struct {
	Op  Op
	Old int
	New int
}

// Script returns an edit script turning old into new. Applying the steps in
// order, with Keep consuming one element from each side, Delete consuming
// one old element, and Insert consuming one new element, reconstructs new
// from old with a maximal number of Keep steps.
//
// When more than one maximal alignment exists, Script deterministically
// prefers keeping the earliest possible old-side element, and emits
// deletions before insertions at the same point.
func Script[T comparable](old, new []T) []Step {
	// lcs[i][j] is the length of the longest common subsequence of
	// old[i:] and new[j:].
	lcs := make([][]int, len(old)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(new)+1)
	}
	for i := len(old) - 1; i >= 0; i-- {
		for j := len(new) - 1; j >= 0; j-- {
			if old[i] == new[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var steps []Step
	i, j := 0, 0
	for i < len(old) && j < len(new) {
		switch {
		case old[i] == new[j] && lcs[i][j] == lcs[i+1][j+1]+1:
			steps = append(steps, Step{Keep, i, j})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			steps = append(steps, Step{Delete, i, -1})
			i++
		default:
			steps = append(steps, Step{Insert, -1, j})
			j++
		}
	}
	for ; i < len(old); i++ {
		steps = append(steps, Step{Delete, i, -1})
	}
	for ; j < len(new); j++ {
		steps = append(steps, Step{Insert, -1, j})
	}
	return steps
}
