package emit

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"syncwrap/internal/decl"
	"syncwrap/internal/diag"
	"syncwrap/internal/engine"
	"syncwrap/internal/frontend"
	"syncwrap/internal/source"
)

const (
	asyncPath    = "syncwrap/async"
	blockingPath = "syncwrap/blocking"
)

// generate runs the frontend, engine and emitter over src.
func generate(t *testing.T, src, feature string) (string, *frontend.File) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("greeter.go", []byte(src))
	bag := diag.NewBag(100)
	f := frontend.ParseFile(fs, id, frontend.Options{
		AsyncPath:    asyncPath,
		MirrorSuffix: "Blocking",
		Reporter:     diag.BagReporter{Bag: bag},
	})
	if f == nil || bag.HasErrors() {
		t.Fatalf("frontend failed: %s", diag.FormatShortDiagnostics(bag.Items(), fs, false))
	}
	name := BlockingName(f, blockingPath)
	e := engine.New(engine.Config{
		Enabled: true,
		Runtime: engine.Runtime{AsyncName: f.AsyncName, BlockingName: name},
	})
	mirrors := make(map[string]string)
	for _, it := range f.Items {
		if it.Block != nil {
			mirrors[it.Block.Type] = it.Block.Mirror
		}
	}
	results := make([]Result, 0, len(f.Items))
	for _, it := range f.Items {
		var out engine.Outcome
		if it.Func != nil {
			out = e.Single(it.Func, engine.PolicyFor(it.Directive, "Blocking"))
		} else {
			out = e.Block(it.Block, nil, mirrors)
		}
		if out.Err != nil {
			t.Fatalf("engine: %v", out.Err)
		}
		results = append(results, Result{Item: it, Outcome: out})
	}
	got, err := Generate(f, fs.Get(id).Content, results, Options{
		Feature:      feature,
		BlockingPath: blockingPath,
		BlockingName: name,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return string(got), f
}

func TestGenerateAdditive(t *testing.T) {
	src := `package greeter

import (
	"context"
	"strings"

	"syncwrap/async"
)

// Foo greets.
//
//syncwrap:clone
func Foo(ctx context.Context, who string) async.Future[string] {
	return async.Ready("I am " + who + " now")
}

func shout(s string) string { return strings.ToUpper(s) }
`
	want := `// Code generated by syncwrap; DO NOT EDIT.

//go:build sync

package greeter

import (
	"context"
	"syncwrap/async"
	"syncwrap/blocking"
)

// FooBlocking is the synchronous counterpart of [Foo].
func FooBlocking(ctx context.Context, who string) string {
	return blocking.Await(blocking.New(), func() async.Future[string] {
		return async.Ready("I am " + who + " now")
	}())
}
`
	got, _ := generate(t, src, "sync")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("generated file mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateAdditiveWithoutFeature(t *testing.T) {
	src := "package greeter\n\nimport \"syncwrap/async\"\n\n//syncwrap:clone suffix=Now\nfunc Tick() async.Job { return nil }\n"
	got, _ := generate(t, src, "")
	if strings.Contains(got, "//go:build") {
		t.Fatalf("unexpected constraint:\n%s", got)
	}
	if !strings.Contains(got, "func TickNow() {\n\tblocking.Run(blocking.New(), func() async.Job { return nil }())\n}") {
		t.Fatalf("job clone missing:\n%s", got)
	}
}

const rewriteSrc = `// Copyright notice.

//go:build !sync

//go:generate syncwrap gen

// Package greeter greets.
package greeter

import (
	"context"

	"syncwrap/async"
)

// Greeting is a fixed greeting.
const Greeting = "hello"

// Fetch loads a greeting.
//
//syncwrap:replace
func Fetch(ctx context.Context, who string) async.Task[string] {
	return func(context.Context) (string, error) {
		return Greeting + ", " + who, nil
	}
}

// Foo greets.
//
//syncwrap:clone
func Foo(who string) async.Future[string] {
	return async.Ready("I am " + who + " now")
}

func keep() {}
`

func TestGenerateRewrite(t *testing.T) {
	got, f := generate(t, rewriteSrc, "sync")
	if LayoutOf(f) != LayoutRewrite {
		t.Fatal("expected rewrite layout")
	}
	wantParts := []string{
		"// Code generated by syncwrap; DO NOT EDIT.\n\n//go:build sync\n\npackage greeter\n",
		"// Greeting is a fixed greeting.\nconst Greeting = \"hello\"\n",
		`// Fetch loads a greeting.
func Fetch(ctx context.Context, who string) (string, error) {
	return blocking.AwaitTask(blocking.New(), func() async.Task[string] {
		return func(context.Context) (string, error) {
			return Greeting + ", " + who, nil
		}
	}())
}`,
		"// Foo greets.\nfunc Foo(who string) async.Future[string] {",
		"// FooBlocking is the synchronous counterpart of [Foo].\nfunc FooBlocking(who string) string {",
		"func keep() {}\n",
	}
	for _, part := range wantParts {
		if !strings.Contains(got, part) {
			t.Errorf("output lacks %q:\n%s", part, got)
		}
	}
	for _, gone := range []string{"syncwrap:", "go:generate", "Copyright", "Package greeter", "!sync"} {
		if strings.Contains(got, gone) {
			t.Errorf("output still contains %q:\n%s", gone, got)
		}
	}
	if strings.Index(got, "func Foo(") > strings.Index(got, "func FooBlocking(") {
		t.Errorf("clone must follow its original")
	}
}

const mirrorSrc = `package store

import (
	"context"

	"syncwrap/async"
)

// Store keeps values.
//
//syncwrap:mirror declare
type Store struct {
	data map[string]*Item ` + "`json:\"data\"`" + `
}

//syncwrap:mirror declare
type Item struct {
	Value string
}

// Get returns one value.
func (s *Store) Get(ctx context.Context, key string) async.Task[*Item] {
	return nil
}

func (s *Store) Len() async.Future[int] {
	return async.Ready(len(s.data))
}

func (i Item) String() async.Future[string] { return async.Ready(i.Value) }
`

func TestGenerateMirrorDeclare(t *testing.T) {
	got, _ := generate(t, mirrorSrc, "sync")
	wantParts := []string{
		"// StoreBlocking is the synchronous mirror of [Store].\ntype StoreBlocking struct {\n\tdata map[string]*ItemBlocking `json:\"data\"`\n}",
		"// Get returns one value.\nfunc (s *StoreBlocking) Get(ctx context.Context, key string) (*Item, error) {",
		"func (s *StoreBlocking) Len() int {",
		"type ItemBlocking struct {\n\tValue string\n}",
		"func (i ItemBlocking) String() string {",
	}
	last := -1
	for _, part := range wantParts {
		idx := strings.Index(got, part)
		if idx < 0 {
			t.Fatalf("output lacks %q:\n%s", part, got)
		}
		if idx < last {
			t.Fatalf("%q out of order:\n%s", part, got)
		}
		last = idx
	}
}

func TestBlockingNameAvoidsClash(t *testing.T) {
	f := &frontend.File{Imports: []frontend.Import{{Path: "example.com/blocking"}}}
	if got := BlockingName(f, blockingPath); got != "syncblocking" {
		t.Fatalf("BlockingName = %q", got)
	}
	f = &frontend.File{Imports: []frontend.Import{{Name: "blk", Path: blockingPath}}}
	if got := BlockingName(f, blockingPath); got != "blk" {
		t.Fatalf("BlockingName = %q", got)
	}
	f = &frontend.File{
		Imports: []frontend.Import{{Path: blockingPath}},
		Items: []frontend.Item{{Func: &decl.AsyncFunc{
			Name:   "Get",
			Recv:   &decl.Receiver{Name: "syncblocking", Base: "Client"},
			Params: []decl.Param{{Name: "blocking", Type: "bool"}},
		}}},
	}
	if got := BlockingName(f, blockingPath); got != "syncsyncblocking" {
		t.Fatalf("BlockingName = %q", got)
	}
}

func TestParameterShadowingBlockingPackage(t *testing.T) {
	src := `package greeter

import "syncwrap/async"

//syncwrap:clone
func Foo(blocking bool) async.Future[string] {
	if blocking {
		return async.Ready("wait")
	}
	return async.Ready("go")
}
`
	got, _ := generate(t, src, "sync")
	for _, part := range []string{
		`syncblocking "syncwrap/blocking"`,
		"func FooBlocking(blocking bool) string {",
		"return syncblocking.Await(syncblocking.New(), func() async.Future[string] {",
	} {
		if !strings.Contains(got, part) {
			t.Fatalf("output lacks %q:\n%s", part, got)
		}
	}
}

func TestAssumedName(t *testing.T) {
	tests := map[string]string{
		"context":                           "context",
		"github.com/vmihailenco/msgpack/v5": "msgpack",
		"github.com/mattn/go-runewidth":     "runewidth",
		"gopkg.in/yaml.v3":                  "yaml",
		"example.com/my-pkg":                "my",
	}
	for in, want := range tests {
		if got := AssumedName(in); got != want {
			t.Errorf("AssumedName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	if got := OutputPath("dir/greeter.go", "_sync.go"); got != "dir/greeter_sync.go" {
		t.Fatalf("OutputPath = %q", got)
	}
}
