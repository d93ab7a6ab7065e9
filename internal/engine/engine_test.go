package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"syncwrap/internal/decl"
	"syncwrap/internal/diag"
	"syncwrap/internal/directive"
	"syncwrap/internal/frontend"
	"syncwrap/internal/source"
)

var rt = Runtime{AsyncName: "async", BlockingName: "blocking"}

func newEngine(r diag.Reporter) *Engine {
	return New(Config{Enabled: true, Runtime: rt, Reporter: r})
}

func foo() *decl.AsyncFunc {
	return &decl.AsyncFunc{
		Name:    "Foo",
		Doc:     []string{"// Foo greets."},
		Params:  []decl.Param{{Name: "input", Type: "string"}},
		Async:   &decl.Qualifier{Kind: decl.KindFuture, Elem: "string"},
		Body:    "\n\treturn async.Ready(\"I am \" + input + \" now\")\n",
		HasBody: true,
	}
}

func TestNamePolicyDerive(t *testing.T) {
	if got := Replace().Derive("Foo"); got != "Foo" {
		t.Fatalf("replace derive = %q", got)
	}
	if got := Clone("Blocking").Derive("Foo"); got != "FooBlocking" {
		t.Fatalf("clone derive = %q", got)
	}
	if got := Clone("_sync").Derive("foo"); got != "foo_sync" {
		t.Fatalf("suffix must be appended verbatim, got %q", got)
	}
}

func TestPolicyFor(t *testing.T) {
	d, err := directive.Parse("//syncwrap:clone suffix=Now", source.Span{})
	if err != nil {
		t.Fatal(err)
	}
	if p := PolicyFor(d, "Blocking"); p != Clone("Now") {
		t.Fatalf("policy = %+v", p)
	}
	d, _ = directive.Parse("//syncwrap:clone", source.Span{}) //nolint:errcheck // valid directive
	if p := PolicyFor(d, "Blocking"); p != Clone("Blocking") {
		t.Fatalf("default suffix policy = %+v", p)
	}
}

func TestSingleClone(t *testing.T) {
	out := newEngine(nil).Single(foo(), Clone("Blocking"))
	if out.Err != nil || !out.Emitted() || !out.Keep {
		t.Fatalf("outcome = %+v", out)
	}
	want := decl.SyncFunc{
		Name:    "FooBlocking",
		Doc:     []string{"// FooBlocking is the synchronous counterpart of [Foo]."},
		Params:  []decl.Param{{Name: "input", Type: "string"}},
		Results: "string",
		Body:    "return blocking.Await(blocking.New(), func() async.Future[string] {\n\treturn async.Ready(\"I am \" + input + \" now\")\n}())",
	}
	if diff := cmp.Diff([]decl.SyncFunc{want}, out.Funcs); diff != "" {
		t.Fatalf("funcs mismatch (-want +got):\n%s", diff)
	}
	wantTrace := []Stage{StageReceived, StageValidated, StageSignatureRewritten, StageBodyWrapped, StageEmitted}
	if diff := cmp.Diff(wantTrace, out.Trace); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestSingleReplaceTaskKeepsSignature(t *testing.T) {
	fn := &decl.AsyncFunc{
		Name:       "Fetch",
		Doc:        []string{"// Fetch loads keys."},
		TypeParams: "[K comparable, V any]",
		Params:     []decl.Param{{Name: "m", Type: "map[K]V"}, {Name: "keys", Type: "...K"}},
		Async:      &decl.Qualifier{Kind: decl.KindTask, Elem: "[]V"},
		Body:       " return nil ",
		HasBody:    true,
	}
	out := newEngine(nil).Single(fn, Replace())
	if out.Keep {
		t.Fatal("replace must not keep the original")
	}
	got := out.Funcs[0]
	if got.Name != "Fetch" || got.TypeParams != fn.TypeParams || got.Results != "([]V, error)" {
		t.Fatalf("signature = %+v", got)
	}
	if diff := cmp.Diff(fn.Params, got.Params); diff != "" {
		t.Fatalf("params changed:\n%s", diff)
	}
	if diff := cmp.Diff(fn.Doc, got.Doc); diff != "" {
		t.Fatalf("replace keeps the original doc:\n%s", diff)
	}
	if want := "return blocking.AwaitTask(blocking.New(), func() async.Task[[]V] { return nil }())"; got.Body != want {
		t.Fatalf("body = %q", got.Body)
	}
}

func TestSingleJobAndCustomRuntime(t *testing.T) {
	fn := &decl.AsyncFunc{
		Name:    "Tick",
		Async:   &decl.Qualifier{Kind: decl.KindJob},
		Body:    "return nil",
		HasBody: true,
	}
	e := New(Config{Enabled: true, Runtime: Runtime{AsyncName: ".", BlockingName: "blk", Constructor: "NewWithConfig(cfg)"}})
	out := e.Single(fn, Replace())
	if want := "blk.Run(blk.NewWithConfig(cfg), func() Job {return nil}())"; out.Funcs[0].Body != want {
		t.Fatalf("body = %q", out.Funcs[0].Body)
	}
	if out.Funcs[0].Results != "" {
		t.Fatalf("job results = %q", out.Funcs[0].Results)
	}
}

func TestSingleRejectsNonAsync(t *testing.T) {
	fn := &decl.AsyncFunc{Name: "Plain", ResultText: "int", Body: "return 1", HasBody: true}
	out := newEngine(nil).Single(fn, Clone("Blocking"))
	if out.Final() != StageRejected || len(out.Funcs) != 0 || out.Emitted() {
		t.Fatalf("outcome = %+v", out)
	}
	if !errors.Is(out.Err, decl.ErrStructural) {
		t.Fatalf("err = %v", out.Err)
	}
	var se *decl.StructuralError
	if !errors.As(out.Err, &se) || se.Request != "syncwrap:clone" || se.Decl != "Plain" {
		t.Fatalf("structural error = %+v", se)
	}
	if diff := cmp.Diff([]Stage{StageReceived, StageRejected}, out.Trace); diff != "" {
		t.Fatalf("trace (-want +got):\n%s", diff)
	}
}

func TestDisabledEnginePassesThrough(t *testing.T) {
	e := New(Config{Enabled: false, Runtime: rt})
	out := e.Single(foo(), Replace())
	if !out.Keep || len(out.Funcs) != 0 || out.Err != nil || out.Final() != StageReceived {
		t.Fatalf("outcome = %+v", out)
	}
	block := &decl.ImplBlock{Type: "Client", Mirror: "ClientBlocking"}
	if out := e.Block(block, nil, nil); out.Err != nil || len(out.Funcs) != 0 {
		t.Fatalf("block outcome = %+v", out)
	}
}

// The clone suffix can produce a name that already exists; the engine does
// not look, the compiler rejects the duplicate.
func TestCloneNameCollisionNotDetected(t *testing.T) {
	fn := foo()
	fn.Name = "Get"
	out := newEngine(nil).Single(fn, Clone("Blocking"))
	if out.Err != nil || out.Funcs[0].Name != "GetBlocking" {
		t.Fatalf("outcome = %+v", out)
	}
}

type fakeTypes map[string]*frontend.TypeInfo

func (f fakeTypes) Lookup(name string) *frontend.TypeInfo { return f[name] }

func clientBlock() *decl.ImplBlock {
	method := func(name string, q decl.Qualifier) decl.AsyncFunc {
		return decl.AsyncFunc{
			Name:    name,
			Recv:    &decl.Receiver{Name: "c", Pointer: true, Base: "Client", TypeArgs: "[K]"},
			Async:   &q,
			Body:    "return nil",
			HasBody: true,
		}
	}
	return &decl.ImplBlock{
		Type:       "Client",
		TypeParams: "[K comparable]",
		Mirror:     "ClientBlocking",
		IsStruct:   true,
		Fields: []decl.Field{
			{Names: []string{"addr"}, Type: "string"},
			{Names: []string{"inner"}, Type: "*Inner"},
		},
		Methods: []decl.AsyncFunc{
			method("Get", decl.Qualifier{Kind: decl.KindTask, Elem: "string"}),
			method("Put", decl.Qualifier{Kind: decl.KindJob}),
			method("Len", decl.Qualifier{Kind: decl.KindFuture, Elem: "int"}),
		},
	}
}

func TestBlockRebasesReceiversInOrder(t *testing.T) {
	types := fakeTypes{
		"Client":         {Name: "Client", IsStruct: true, FieldNames: []string{"addr", "inner"}},
		"ClientBlocking": {Name: "ClientBlocking", IsStruct: true, FieldNames: []string{"addr", "inner"}},
	}
	bag := diag.NewBag(10)
	out := newEngine(diag.BagReporter{Bag: bag}).Block(clientBlock(), types, nil)
	if out.Err != nil || bag.Len() != 0 {
		t.Fatalf("err = %v, diagnostics = %d", out.Err, bag.Len())
	}
	var names []string
	for _, f := range out.Funcs {
		names = append(names, f.Name)
		if f.Recv.TypeText() != "*ClientBlocking[K]" || f.Recv.Name != "c" {
			t.Fatalf("receiver = %+v", f.Recv)
		}
	}
	if diff := cmp.Diff([]string{"Get", "Put", "Len"}, names); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
	if out.Mirror != nil {
		t.Fatal("mirror must not be declared without the declare flag")
	}
}

func TestBlockRejectsMixedMembers(t *testing.T) {
	block := clientBlock()
	block.Methods[1].Async = nil
	block.Methods[1].ResultText = "error"
	out := newEngine(nil).Block(block, nil, nil)
	var se *decl.StructuralError
	if !errors.As(out.Err, &se) || se.Decl != "Client.Put" || se.Reason != decl.ReasonMixedBlock {
		t.Fatalf("err = %v", out.Err)
	}
	if len(out.Funcs) != 0 || out.Final() != StageRejected {
		t.Fatalf("rejected block emitted output: %+v", out)
	}
}

func TestBlockMirrorLookup(t *testing.T) {
	tests := []struct {
		name    string
		declare bool
		types   fakeTypes
		reason  decl.Reason
	}{
		{name: "missing", types: fakeTypes{}, reason: decl.ReasonMirrorNotFound},
		{
			name:    "duplicate",
			declare: true,
			types:   fakeTypes{"ClientBlocking": {Name: "ClientBlocking", Path: "mirror.go"}},
			reason:  decl.ReasonMirrorDuplicate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := clientBlock()
			block.Declare = tt.declare
			out := newEngine(nil).Block(block, tt.types, nil)
			var se *decl.StructuralError
			if !errors.As(out.Err, &se) || se.Reason != tt.reason {
				t.Fatalf("err = %v", out.Err)
			}
		})
	}

	block := clientBlock()
	block.Declare = true
	block.IsStruct = false
	out := newEngine(nil).Block(block, nil, nil)
	var se *decl.StructuralError
	if !errors.As(out.Err, &se) || se.Reason != decl.ReasonMirrorNotStruct {
		t.Fatalf("non-struct declare err = %v", out.Err)
	}
}

func TestBlockWarnsOnFieldMismatch(t *testing.T) {
	types := fakeTypes{
		"Client":         {Name: "Client", IsStruct: true, FieldNames: []string{"addr", "inner"}},
		"ClientBlocking": {Name: "ClientBlocking", IsStruct: true, FieldNames: []string{"addr"}},
	}
	bag := diag.NewBag(10)
	out := newEngine(diag.BagReporter{Bag: bag}).Block(clientBlock(), types, nil)
	if out.Err != nil || !out.Emitted() {
		t.Fatalf("mismatch must not reject: %v", out.Err)
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.MirFieldMismatch || bag.Items()[0].Severity != diag.SevWarning {
		t.Fatalf("diagnostics = %+v", bag.Items())
	}
}

func TestBlockDeclaresMirror(t *testing.T) {
	block := clientBlock()
	block.Declare = true
	mirrors := map[string]string{"Client": "ClientBlocking", "Inner": "InnerBlocking"}
	out := newEngine(nil).Block(block, fakeTypes{}, mirrors)
	if out.Err != nil || out.Mirror == nil {
		t.Fatalf("outcome = %+v", out)
	}
	want := decl.MirrorType{
		Name:       "ClientBlocking",
		Doc:        []string{"// ClientBlocking is the synchronous mirror of [Client]."},
		TypeParams: "[K comparable]",
		Fields: []decl.Field{
			{Names: []string{"addr"}, Type: "string"},
			{Names: []string{"inner"}, Type: "*InnerBlocking"},
		},
	}
	if diff := cmp.Diff(want, *out.Mirror); diff != "" {
		t.Fatalf("mirror (-want +got):\n%s", diff)
	}
}

func TestRewriteTypeRefs(t *testing.T) {
	mirrors := map[string]string{"Inner": "InnerBlocking", "Node": "NodeBlocking"}
	tests := map[string]string{
		"Inner":             "InnerBlocking",
		"*Inner":            "*InnerBlocking",
		"[]*Inner":          "[]*InnerBlocking",
		"map[string]Inner":  "map[string]InnerBlocking",
		"map[Node][]Inner":  "map[NodeBlocking][]InnerBlocking",
		"pkg.Inner":         "pkg.Inner",
		"Inners":            "Inners",
		"func(Inner) error": "func(InnerBlocking) error",
		"chan<- *Node[int]": "chan<- *NodeBlocking[int]",
		"sync.Mutex":        "sync.Mutex",
	}
	for in, want := range tests {
		if got := RewriteTypeRefs(in, mirrors); got != want {
			t.Errorf("RewriteTypeRefs(%q) = %q, want %q", in, got, want)
		}
	}
}
