// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splice

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
)

// TestSplice runs the script-driven cases in testdata. Each archive's
// comment is a script of tree transformations, one per line, applied to the
// tree parsed from old.go; the rewritten text must match out.go exactly
// (modulo trailing spaces, since deletions can leave indentation behind).
// An archive containing a "gaveup" file expects Rewrite to report that part
// of the rewrite was abandoned.
func TestSplice(t *testing.T) {
	files, err := filepath.Glob("testdata/*.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no test cases")
	}

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			ar, err := txtar.ParseFile(file)
			if err != nil {
				t.Fatal(err)
			}
			var oldSrc, wantOut, declSrc []byte
			wantOK := true
			for _, f := range ar.Files {
				switch f.Name {
				case "old.go":
					oldSrc = f.Data
				case "out.go":
					wantOut = f.Data
				case "decl.go":
					declSrc = f.Data
				case "gaveup":
					wantOK = false
				default:
					t.Fatalf("unexpected archive file %s", f.Name)
				}
			}

			fset := token.NewFileSet()
			old, err := parser.ParseFile(fset, "old.go", oldSrc, parser.ParseComments)
			if err != nil {
				t.Fatal(err)
			}
			r := New(fset, "old.go", oldSrc, old)

			new := old
			for _, line := range strings.Split(string(ar.Comment), "\n") {
				line = strings.TrimSpace(line)
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				new = runCmd(t, r, new, string(declSrc), line)
			}

			edits, ok := r.Rewrite(new)
			if ok != wantOK {
				t.Errorf("Rewrite ok = %v, want %v", ok, wantOK)
			}
			out := r.Apply(edits)
			if _, err := parser.ParseFile(token.NewFileSet(), "out.go", out, 0); err != nil {
				t.Fatalf("rewritten source does not parse: %v\n%s", err, out)
			}
			if !bytes.Equal(trimSpace(out), trimSpace(wantOut)) {
				t.Errorf("have:\n%s", out)
				t.Errorf("want:\n%s", wantOut)
			}
		})
	}
}

// runCmd applies one script command to the new tree, copying nodes along the
// changed path and registering every copy with Adopt, the way a real
// transformation over an immutable original would.
func runCmd(t *testing.T, r *Rewriter, f *ast.File, declSrc, line string) *ast.File {
	t.Helper()
	args := strings.Fields(line)
	switch args[0] {
	case "noop":
		nf, _ := editFunc(r, f, args[1])
		return nf

	case "rename":
		nf, fd := mustEditFunc(t, r, f, args[1])
		name := *fd.Name
		r.Adopt(&name, fd.Name)
		name.Name = args[2]
		fd.Name = &name
		return nf

	case "tok":
		return retoken(t, r, f, args[1], args[2])

	case "recv":
		nf, fd := mustEditFunc(t, r, f, args[1])
		src := "package p\nfunc " + strings.Join(args[2:], " ") + " _() {}"
		recv := parseFrag(t, r, src).Decls[0].(*ast.FuncDecl).Recv
		clearPos(recv)
		fd.Recv = recv
		return nf

	case "gen":
		_, fd := findFunc(r.old, args[1])
		if fd == nil {
			t.Fatalf("gen: no function %s", args[1])
		}
		r.MarkGenerated(fd.Body)
		return f

	case "delstmt":
		nf, fd := mustEditFunc(t, r, f, args[1])
		i := atoi(t, args[2])
		fd.Body.List = append(fd.Body.List[:i], fd.Body.List[i+1:]...)
		return nf

	case "insstmt":
		nf, fd := mustEditFunc(t, r, f, args[1])
		i := atoi(t, args[2])
		stmt := parseStmtFrag(t, r, strings.Join(args[3:], " "))
		list := fd.Body.List
		fd.Body.List = append(list[:i:i], append([]ast.Stmt{stmt}, list[i:]...)...)
		return nf

	case "repstmt":
		nf, fd := mustEditFunc(t, r, f, args[1])
		i := atoi(t, args[2])
		fd.Body.List[i] = parseStmtFrag(t, r, strings.Join(args[3:], " "))
		return nf

	case "setcond":
		nf, fd := mustEditFunc(t, r, f, args[1])
		i := atoi(t, args[2])
		ifs, ok := fd.Body.List[i].(*ast.IfStmt)
		if !ok {
			t.Fatalf("setcond: statement %d is not an if", i)
		}
		nifs := *ifs
		r.Adopt(&nifs, ifs)
		nifs.Cond = parseExprFrag(t, r, strings.Join(args[3:], " "))
		fd.Body.List[i] = &nifs
		return nf

	case "rmdecl":
		nf := editFile(r, f)
		i, _ := findFunc(nf, args[1])
		if i < 0 {
			t.Fatalf("rmdecl: no function %s", args[1])
		}
		nf.Decls = append(nf.Decls[:i], nf.Decls[i+1:]...)
		return nf

	case "adddecl":
		nf := editFile(r, f)
		i := atoi(t, args[1])
		decl := parseFrag(t, r, declSrc).Decls[0]
		clearPos(decl)
		nf.Decls = append(nf.Decls[:i:i], append([]ast.Decl{decl}, nf.Decls[i:]...)...)
		return nf

	case "delspec":
		nf, gd, i := editGenDecl(t, r, f, args[1])
		gd.Specs = append(gd.Specs[:i], gd.Specs[i+1:]...)
		return nf

	case "insspec":
		nf, gd, _ := editGenDecl(t, r, f, args[1])
		i := atoi(t, args[2])
		spec := parseSpecFrag(t, r, strings.Join(args[3:], " "))
		specs := gd.Specs
		gd.Specs = append(specs[:i:i], append([]ast.Spec{spec}, specs[i:]...)...)
		return nf

	case "pkgname":
		nf := editFile(r, f)
		name := *f.Name
		r.Adopt(&name, f.Name)
		name.Name = args[1]
		nf.Name = &name
		return nf
	}
	t.Fatalf("unknown command %q", line)
	return nil
}

// editFile returns a copy of f with its declaration list copied, ready for
// surgery on the decls.
func editFile(r *Rewriter, f *ast.File) *ast.File {
	nf := *f
	r.Adopt(&nf, f)
	nf.Decls = append([]ast.Decl(nil), f.Decls...)
	return &nf
}

// editFunc returns a copy of f in which the named function declaration, its
// body, and the body's statement list have all been copied, so commands can
// mutate them without touching the shared original.
func editFunc(r *Rewriter, f *ast.File, name string) (*ast.File, *ast.FuncDecl) {
	nf := editFile(r, f)
	i, fd := findFunc(nf, name)
	if fd == nil {
		return nf, nil
	}
	nfd := *fd
	r.Adopt(&nfd, fd)
	body := *fd.Body
	r.Adopt(&body, fd.Body)
	body.List = append([]ast.Stmt(nil), fd.Body.List...)
	nfd.Body = &body
	nf.Decls[i] = &nfd
	return nf, &nfd
}

func mustEditFunc(t *testing.T, r *Rewriter, f *ast.File, name string) (*ast.File, *ast.FuncDecl) {
	t.Helper()
	nf, fd := editFunc(r, f, name)
	if fd == nil {
		t.Fatalf("no function %s", name)
	}
	return nf, fd
}

func findFunc(f *ast.File, name string) (int, *ast.FuncDecl) {
	for i, d := range f.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok && fd.Name.Name == name {
			return i, fd
		}
	}
	return -1, nil
}

// retoken changes the var/const keyword of the single-spec declaration that
// declares name.
func retoken(t *testing.T, r *Rewriter, f *ast.File, name, tok string) *ast.File {
	t.Helper()
	nf := editFile(r, f)
	for i, d := range nf.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || len(gd.Specs) != 1 {
			continue
		}
		vs, ok := gd.Specs[0].(*ast.ValueSpec)
		if !ok || len(vs.Names) != 1 || vs.Names[0].Name != name {
			continue
		}
		ngd := *gd
		r.Adopt(&ngd, gd)
		switch tok {
		case "var":
			ngd.Tok = token.VAR
		case "const":
			ngd.Tok = token.CONST
		default:
			t.Fatalf("tok: bad token %s", tok)
		}
		nf.Decls[i] = &ngd
		return nf
	}
	t.Fatalf("tok: no declaration of %s", name)
	return nil
}

// editGenDecl copies the grouped declaration containing a spec that
// declares name, returning the copy and the spec's index.
func editGenDecl(t *testing.T, r *Rewriter, f *ast.File, name string) (*ast.File, *ast.GenDecl, int) {
	t.Helper()
	nf := editFile(r, f)
	for i, d := range nf.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok {
			continue
		}
		for j, s := range gd.Specs {
			vs, ok := s.(*ast.ValueSpec)
			if !ok || len(vs.Names) != 1 || vs.Names[0].Name != name {
				continue
			}
			ngd := *gd
			r.Adopt(&ngd, gd)
			ngd.Specs = append([]ast.Spec(nil), gd.Specs...)
			nf.Decls[i] = &ngd
			return nf, &ngd, j
		}
	}
	t.Fatalf("no declaration of %s", name)
	return nil, nil, 0
}

var nfrags int

// parseFrag parses a complete file of helper source. The caller extracts
// the node it wants and must clear its positions: fresh nodes with
// positions pointing into a different file would make the printer invent
// line breaks.
func parseFrag(t *testing.T, r *Rewriter, src string) *ast.File {
	t.Helper()
	nfrags++
	name := fmt.Sprintf("frag-%d.go", nfrags)
	f, err := parser.ParseFile(r.fset, name, src, 0)
	if err != nil {
		t.Fatalf("fragment %q: %v", src, err)
	}
	return f
}

func parseStmtFrag(t *testing.T, r *Rewriter, code string) ast.Stmt {
	t.Helper()
	f := parseFrag(t, r, "package p\nfunc _() {\n"+code+"\n}")
	stmt := f.Decls[0].(*ast.FuncDecl).Body.List[0]
	clearPos(stmt)
	return stmt
}

// parseSpecFrag wraps the fragment in a const group, which accepts every
// spec form a var group does plus name-only specs.
func parseSpecFrag(t *testing.T, r *Rewriter, code string) ast.Spec {
	t.Helper()
	f := parseFrag(t, r, "package p\nconst (\n"+code+"\n)")
	spec := f.Decls[0].(*ast.GenDecl).Specs[0]
	clearPos(spec)
	return spec
}

func parseExprFrag(t *testing.T, r *Rewriter, code string) ast.Expr {
	t.Helper()
	nfrags++
	name := fmt.Sprintf("frag-%d.go", nfrags)
	e, err := parser.ParseExprFrom(r.fset, name, code, 0)
	if err != nil {
		t.Fatalf("fragment %q: %v", code, err)
	}
	clearPos(e)
	return e
}

// clearPos zeroes every position in the subtree rooted at n.
func clearPos(n ast.Node) {
	ast.Inspect(n, func(m ast.Node) bool {
		if m == nil {
			return true
		}
		v := reflect.ValueOf(m).Elem()
		for i := 0; i < v.NumField(); i++ {
			if f := v.Field(i); f.Type() == posType {
				f.SetInt(int64(token.NoPos))
			}
		}
		return true
	})
}

func atoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func trimSpace(data []byte) []byte {
	lines := bytes.Split(data, []byte("\n"))
	for i, line := range lines {
		lines[i] = bytes.TrimRight(line, " \t")
	}
	return bytes.Join(lines, []byte("\n"))
}
