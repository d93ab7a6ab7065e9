package frontend

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"syncwrap/internal/source"
)

// Index lists the types declared across the hand-written files of a package
// directory. Generated files are left out so that a mirror emitted by an
// earlier run does not count as declared.
type Index struct {
	Dir     string
	Package string
	types   map[string]*TypeInfo
}

// Lookup returns the declaration of name, or nil.
func (ix *Index) Lookup(name string) *TypeInfo {
	if ix == nil {
		return nil
	}
	return ix.types[name]
}

// Len returns the number of indexed types.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.types)
}

// IndexDir scans the non-test Go files of dir that belong to pkg. Files that
// fail to parse are skipped; the file being generated reports its own errors.
// Files are loaded into fs so that spans in TypeInfo resolve.
func IndexDir(fs *source.FileSet, dir, pkg string) (*Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	ix := &Index{Dir: dir, Package: pkg, types: make(map[string]*TypeInfo)}
	for _, name := range names {
		path := filepath.Join(dir, name)
		id, err := fs.Load(path)
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", dir, err)
		}
		f := fs.Get(id)
		if f.Flags&source.FileGenerated != 0 {
			continue
		}
		ix.addFile(fs, f, pkg)
	}
	return ix, nil
}

func (ix *Index) addFile(fs *source.FileSet, f *source.File, pkg string) {
	tfs := token.NewFileSet()
	astFile, err := parser.ParseFile(tfs, f.Path, f.Content, parser.SkipObjectResolution)
	if err != nil || astFile.Name.Name != pkg {
		return
	}
	tf := tfs.File(astFile.Pos())
	for _, d := range astFile.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec) //nolint:errcheck // TYPE decls hold TypeSpecs
			if _, seen := ix.types[ts.Name.Name]; seen {
				continue
			}
			info := typeInfo(ts)
			info.Path = f.Path
			info.Span = fs.Span(f.ID, tf.Offset(ts.Name.Pos()), tf.Offset(ts.Name.End()))
			ix.types[info.Name] = info
		}
	}
}
