// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splice

import (
	"go/ast"
	"go/token"
	"reflect"
)

// The default reconciliation for product-shaped nodes is a field-by-field
// walk over the go/ast struct schemas, driven by reflection rather than one
// hand-written function per node kind. Only the kinds with real special
// cases (declarations, files, the splice points themselves) have dedicated
// code.

var (
	nodeType  = reflect.TypeOf((*ast.Node)(nil)).Elem()
	stmtType  = reflect.TypeOf((*ast.Stmt)(nil)).Elem()
	declType  = reflect.TypeOf((*ast.Decl)(nil)).Elem()
	specType  = reflect.TypeOf((*ast.Spec)(nil)).Elem()
	posType   = reflect.TypeOf(token.Pos(0))
	objType   = reflect.TypeOf((*ast.Object)(nil))
	scopeType = reflect.TypeOf((*ast.Scope)(nil))
	cgrpType  = reflect.TypeOf((*ast.CommentGroup)(nil))
)

// skipType reports whether a field carries position or bookkeeping data
// rather than syntax. Comment groups are also skipped: go/ast attaches them
// positionally and the printer cannot faithfully re-emit free-floating
// comment changes, so they never participate in matching.
func skipType(t reflect.Type) bool {
	switch t {
	case posType, objType, scopeType, cgrpType:
		return true
	}
	return false
}

func (rc *rewriteCtxt) walkRecycled(new, old ast.Node) bool {
	vn := reflect.ValueOf(new)
	vo := reflect.ValueOf(old)
	if vn.Type() != vo.Type() {
		return true
	}
	if vn.Kind() == reflect.Pointer {
		if vn.IsNil() || vo.IsNil() {
			return vn.IsNil() != vo.IsNil()
		}
		vn, vo = vn.Elem(), vo.Elem()
	}
	t := vn.Type()
	for i := 0; i < t.NumField(); i++ {
		if rc.walkFieldRecycled(new, t.Field(i), vn.Field(i), vo.Field(i)) {
			return true
		}
	}
	return false
}

func (rc *rewriteCtxt) walkFieldRecycled(parent ast.Node, sf reflect.StructField, f, g reflect.Value) bool {
	ft := sf.Type
	if skipType(ft) {
		return false
	}
	switch ft.Kind() {
	case reflect.Interface, reflect.Pointer:
		if !ft.Implements(nodeType) {
			return false
		}
		saved := rc.replacePrec(childPrec(parent, sf.Name))
		failed := rc.rewriteRecycled(asNode(f), asNode(g))
		rc.prec = saved
		return failed

	case reflect.Slice:
		et := ft.Elem()
		if skipType(et) || !et.Implements(nodeType) {
			return false
		}
		saved := rc.replacePrec(childPrec(parent, sf.Name))
		failed := rc.seqRecycled(nodeSlice(f), nodeSlice(g), seqAligned(et))
		rc.prec = saved
		return failed

	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		// Tokens, names, literal values, channel directions.
		return !f.Equal(g)
	}
	return false
}

func (rc *rewriteCtxt) walkFresh(new, reparsed ast.Node) {
	vn := reflect.ValueOf(new)
	vr := reflect.ValueOf(reparsed)
	if vn.Type() != vr.Type() {
		panic("splice: new and reparsed ASTs differ")
	}
	if vn.Kind() == reflect.Pointer {
		if vn.IsNil() || vr.IsNil() {
			if vn.IsNil() != vr.IsNil() {
				panic("splice: new and reparsed ASTs differ")
			}
			return
		}
		vn, vr = vn.Elem(), vr.Elem()
	}
	t := vn.Type()
	for i := 0; i < t.NumField(); i++ {
		rc.walkFieldFresh(new, t.Field(i), vn.Field(i), vr.Field(i))
	}
}

func (rc *rewriteCtxt) walkFieldFresh(parent ast.Node, sf reflect.StructField, f, g reflect.Value) {
	ft := sf.Type
	if skipType(ft) {
		return
	}
	switch ft.Kind() {
	case reflect.Interface, reflect.Pointer:
		if !ft.Implements(nodeType) {
			return
		}
		saved := rc.replacePrec(childPrec(parent, sf.Name))
		rc.rewriteFresh(asNode(f), asNode(g))
		rc.prec = saved

	case reflect.Slice:
		et := ft.Elem()
		if skipType(et) || !et.Implements(nodeType) {
			return
		}
		saved := rc.replacePrec(childPrec(parent, sf.Name))
		rc.seqFresh(nodeSlice(f), nodeSlice(g))
		rc.prec = saved

	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if !f.Equal(g) {
			panic("splice: new and reparsed ASTs differ")
		}
	}
}

// structEq reports whether two subtrees are structurally equal, ignoring
// positions, objects, scopes, and comments. It records nothing; header
// recovery uses it to decide whether a qualifier changed at all.
func structEq(a, b ast.Node) bool {
	aNil, bNil := isNilNode(a), isNilNode(b)
	if aNil || bNil {
		return aNil == bNil
	}
	return valueEq(reflect.ValueOf(a), reflect.ValueOf(b))
}

func valueEq(x, y reflect.Value) bool {
	if x.Type() != y.Type() {
		return false
	}
	if skipType(x.Type()) {
		return true
	}
	switch x.Kind() {
	case reflect.Pointer, reflect.Interface:
		if x.IsNil() || y.IsNil() {
			return x.IsNil() == y.IsNil()
		}
		return valueEq(x.Elem(), y.Elem())
	case reflect.Struct:
		for i := 0; i < x.NumField(); i++ {
			if !valueEq(x.Field(i), y.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Slice:
		if x.Len() != y.Len() {
			return false
		}
		for i := 0; i < x.Len(); i++ {
			if !valueEq(x.Index(i), y.Index(i)) {
				return false
			}
		}
		return true
	}
	return x.Equal(y)
}

func asNode(v reflect.Value) ast.Node {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(ast.Node)
}

func nodeSlice(v reflect.Value) []ast.Node {
	nodes := make([]ast.Node, v.Len())
	for i := range nodes {
		nodes[i] = v.Index(i).Interface().(ast.Node)
	}
	return nodes
}

// seqAligned reports whether a list of this element type supports
// id-aligned sequence rewriting. Statement, declaration, and spec lists are
// separated by newlines or semicolons, so a zero-width splice stays well
// formed; comma-separated lists reconcile positionally instead.
func seqAligned(elem reflect.Type) bool {
	switch elem {
	case stmtType, declType, specType:
		return true
	}
	return false
}
