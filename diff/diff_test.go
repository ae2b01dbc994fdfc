// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diff

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScript(t *testing.T) {
	tests := []struct {
		name string
		old  []int
		new  []int
		want []Step
	}{
		{
			name: "equal",
			old:  []int{1, 2, 3},
			new:  []int{1, 2, 3},
			want: []Step{{Keep, 0, 0}, {Keep, 1, 1}, {Keep, 2, 2}},
		},
		{
			name: "empty both",
			old:  nil,
			new:  nil,
			want: nil,
		},
		{
			name: "insert middle",
			old:  []int{1, 3},
			new:  []int{1, 2, 3},
			want: []Step{{Keep, 0, 0}, {Insert, -1, 1}, {Keep, 1, 2}},
		},
		{
			name: "delete middle",
			old:  []int{1, 2, 3},
			new:  []int{1, 3},
			want: []Step{{Keep, 0, 0}, {Delete, 1, -1}, {Keep, 1, 1}},
		},
		{
			name: "replace middle",
			old:  []int{1, 2, 3},
			new:  []int{1, 4, 3},
			want: []Step{{Keep, 0, 0}, {Delete, 1, -1}, {Insert, -1, 1}, {Keep, 2, 2}},
		},
		{
			name: "replace all",
			old:  []int{1, 2},
			new:  []int{3, 4},
			want: []Step{{Delete, 0, -1}, {Delete, 1, -1}, {Insert, -1, 0}, {Insert, -1, 1}},
		},
		{
			name: "append",
			old:  []int{1},
			new:  []int{1, 2, 3},
			want: []Step{{Keep, 0, 0}, {Insert, -1, 1}, {Insert, -1, 2}},
		},
		{
			name: "prepend",
			old:  []int{3},
			new:  []int{1, 2, 3},
			want: []Step{{Insert, -1, 0}, {Insert, -1, 1}, {Keep, 0, 2}},
		},
		{
			name: "old empty",
			old:  nil,
			new:  []int{1, 2},
			want: []Step{{Insert, -1, 0}, {Insert, -1, 1}},
		},
		{
			name: "new empty",
			old:  []int{1, 2},
			new:  nil,
			want: []Step{{Delete, 0, -1}, {Delete, 1, -1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Script(tt.old, tt.new))
		})
	}
}

// TestScriptTieBreak pins the tie-break rule: among equally maximal
// alignments, Script keeps the earliest possible old-side element and emits
// the deletion before the insertion at the same point.
func TestScriptTieBreak(t *testing.T) {
	// Both 1s on the new side could match the old 1; the first must.
	require.Equal(t,
		[]Step{{Keep, 0, 0}, {Insert, -1, 1}, {Insert, -1, 2}},
		Script([]int{1}, []int{1, 2, 1}))

	// Either old 1 could survive; the first must.
	require.Equal(t,
		[]Step{{Keep, 0, 0}, {Delete, 1, -1}, {Delete, 2, -1}},
		Script([]int{1, 2, 1}, []int{1}))

	// A pure swap has two maximal alignments; keeping the earliest old
	// element means 1 survives and 2 is reinserted.
	require.Equal(t,
		[]Step{{Delete, 0, -1}, {Keep, 1, 0}, {Insert, -1, 1}},
		Script([]int{2, 1}, []int{1, 2}))
}

func TestScriptReconstructs(t *testing.T) {
	old := []string{"a", "b", "c", "d", "e"}
	new := []string{"b", "x", "d", "e", "y"}

	var got []string
	i, j := 0, 0
	for _, step := range Script(old, new) {
		switch step.Op {
		case Keep:
			require.Equal(t, old[step.Old], new[step.New])
			require.Equal(t, i, step.Old)
			require.Equal(t, j, step.New)
			got = append(got, old[i])
			i++
			j++
		case Delete:
			require.Equal(t, i, step.Old)
			require.Equal(t, -1, step.New)
			i++
		case Insert:
			require.Equal(t, -1, step.Old)
			require.Equal(t, j, step.New)
			got = append(got, new[j])
			j++
		}
	}
	require.Equal(t, len(old), i)
	require.Equal(t, len(new), j)
	require.Equal(t, new, got)
}
