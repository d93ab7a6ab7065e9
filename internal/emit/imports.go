package emit

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"strconv"
	"strings"
	"unicode"

	"syncwrap/internal/decl"
	"syncwrap/internal/frontend"
)

// AssumedName guesses the package name of an import path the way goimports
// does: the last element, skipping a major version suffix, without a "go-"
// prefix and cut at the first character that is not valid in an identifier.
func AssumedName(importPath string) string {
	base := path.Base(importPath)
	if isVersion(base) {
		if dir := path.Dir(importPath); dir != "." {
			base = path.Base(dir)
		}
	}
	base = strings.TrimPrefix(base, "go-")
	if i := strings.IndexFunc(base, notIdentifier); i >= 0 {
		base = base[:i]
	}
	return base
}

func isVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func notIdentifier(r rune) bool {
	return !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
}

// BlockingName picks the name the generated file refers to the blocking
// package by: the file's own name for it when imported, else the assumed
// name, prefixed with "sync" while another import or a parameter or
// receiver of a generated function claims it.
func BlockingName(f *frontend.File, blockingPath string) string {
	shadowed := localNames(f)
	taken := make(map[string]bool, len(f.Imports))
	for _, imp := range f.Imports {
		name := importName(imp)
		if imp.Path == blockingPath && name != "_" && !shadowed[name] {
			return name
		}
		taken[name] = true
	}
	name := AssumedName(blockingPath)
	for taken[name] || shadowed[name] {
		name = "sync" + name
	}
	return name
}

func importName(imp frontend.Import) string {
	if imp.Name != "" {
		return imp.Name
	}
	return AssumedName(imp.Path)
}

// localNames collects the parameter and receiver names of every function
// the items of f generate; they shadow package names in the wrapper body.
func localNames(f *frontend.File) map[string]bool {
	names := make(map[string]bool)
	add := func(fn *decl.AsyncFunc) {
		if fn.Recv != nil && fn.Recv.Name != "" {
			names[fn.Recv.Name] = true
		}
		for _, p := range fn.Params {
			if p.Name != "" {
				names[p.Name] = true
			}
		}
	}
	for _, it := range f.Items {
		if it.Func != nil {
			add(it.Func)
			continue
		}
		for i := range it.Block.Methods {
			add(&it.Block.Methods[i])
		}
	}
	return names
}

// usedPackages returns the identifiers used as package qualifiers in body.
// Identifiers that resolve to a declaration in body (receivers, parameters,
// locals) are not counted.
func usedPackages(pkg, body string) (map[string]bool, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", "package "+pkg+"\n"+body, 0)
	if err != nil {
		return nil, err
	}
	used := make(map[string]bool)
	ast.Inspect(file, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); ok && id.Obj == nil { //nolint:staticcheck // unresolved identifiers are package names
			used[id.Name] = true
		}
		return true
	})
	return used, nil
}

// importBlock renders the imports of the generated file. Source imports
// the output does not reference are dropped in the additive layout and kept
// as blank imports in the rewrite layout, so that the synchronous build
// links the same packages as the asynchronous one.
func importBlock(f *frontend.File, used map[string]bool, layout Layout, blockingPath, blockingName string) string {
	specs := make([]string, 0, len(f.Imports)+1)
	for _, imp := range f.Imports {
		if imp.Path == blockingPath && (imp.Name == "_" || importName(imp) == blockingName) {
			continue
		}
		quoted := strconv.Quote(imp.Path)
		switch imp.Name {
		case "_", ".":
			specs = append(specs, imp.Name+" "+quoted)
			continue
		}
		name := imp.Name
		if name == "" {
			name = AssumedName(imp.Path)
		}
		switch {
		case used[name] && imp.Name != "":
			specs = append(specs, imp.Name+" "+quoted)
		case used[name]:
			specs = append(specs, quoted)
		case layout == LayoutRewrite:
			specs = append(specs, "_ "+quoted)
		}
	}
	if blockingName == AssumedName(blockingPath) {
		specs = append(specs, strconv.Quote(blockingPath))
	} else {
		specs = append(specs, blockingName+" "+strconv.Quote(blockingPath))
	}

	var b strings.Builder
	b.WriteString("import (\n")
	for _, s := range specs {
		b.WriteByte('\t')
		b.WriteString(s)
		b.WriteByte('\n')
	}
	b.WriteString(")\n")
	return b.String()
}
