package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"syncwrap/internal/diag"
	"syncwrap/internal/directive"
	"syncwrap/internal/emit"
	"syncwrap/internal/project"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const greeterSrc = `package greeter

import "syncwrap/async"

// Foo greets.
//
//syncwrap:clone
func Foo(name string) async.Future[string] {
	return async.Ready("I am " + name + " now")
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func codes(bag *diag.Bag) []string {
	out := make([]string, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code.ID())
	}
	return out
}

func opts() Options {
	return Options{Config: project.Default(), MaxDiagnostics: 50, Jobs: 2}
}

func TestGenerateDirWritesOutput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greeter.go", greeterSrc)

	res, err := GenerateDir(context.Background(), dir, opts())
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	fr := res.Files[0]
	require.Equal(t, StatusWritten, fr.Status, codes(fr.Bag))
	require.Equal(t, filepath.Join(dir, "greeter_sync.go"), fr.Output)

	out, err := os.ReadFile(fr.Output)
	require.NoError(t, err)
	require.Equal(t, fr.Content, out)
	text := string(out)
	require.True(t, strings.HasPrefix(text, emit.Header))
	require.Contains(t, text, "//go:build sync")
	require.Contains(t, text, "func FooBlocking(name string) string {")
	require.Contains(t, text, "blocking.Await(blocking.New(), func() async.Future[string] {")
	require.NotContains(t, text, "syncwrap:clone")

	again, err := GenerateDir(context.Background(), dir, opts())
	require.NoError(t, err)
	require.Equal(t, StatusUnchanged, again.Files[0].Status)
}

func TestGenerateDirUsesCache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greeter.go", greeterSrc)
	cache, err := OpenDiskCacheAt(t.TempDir())
	require.NoError(t, err)
	o := opts()
	o.Cache = cache

	first, err := GenerateDir(context.Background(), dir, o)
	require.NoError(t, err)
	require.Equal(t, StatusWritten, first.Files[0].Status)

	second, err := GenerateDir(context.Background(), dir, o)
	require.NoError(t, err)
	require.Equal(t, StatusCached, second.Files[0].Status)

	// a damaged output invalidates the entry
	require.NoError(t, os.WriteFile(first.Files[0].Output, []byte(emit.Header+"\n\npackage greeter\n"), 0o600))
	third, err := GenerateDir(context.Background(), dir, o)
	require.NoError(t, err)
	require.Equal(t, StatusWritten, third.Files[0].Status)

	// a different configuration misses the cache
	o.Config.Generate.Suffix = "Sync"
	fourth, err := GenerateDir(context.Background(), dir, o)
	require.NoError(t, err)
	require.Equal(t, StatusWritten, fourth.Files[0].Status)
	require.Contains(t, string(fourth.Files[0].Content), "func FooSync(")

	require.NoError(t, cache.DropAll())
}

func TestGenerateFileFailsWithoutOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plain.go", "package plain\n\n//syncwrap:clone\nfunc Plain() int { return 1 }\n")

	res, err := GenerateFile(context.Background(), path, opts())
	require.NoError(t, err)
	fr := res.Files[0]
	require.Equal(t, StatusFailed, fr.Status)
	require.Equal(t, []string{"STR2001"}, codes(fr.Bag))
	require.Nil(t, fr.Content)
	_, statErr := os.Stat(fr.Output)
	require.True(t, os.IsNotExist(statErr))
	require.True(t, res.HasErrors())
}

func TestOneBadItemSuppressesTheWholeFile(t *testing.T) {
	dir := t.TempDir()
	src := greeterSrc + "\n//syncwrap:clone\nfunc Plain() int { return 1 }\n"
	path := writeFile(t, dir, "greeter.go", src)

	res, err := GenerateFile(context.Background(), path, opts())
	require.NoError(t, err)
	require.Equal(t, StatusFailed, res.Files[0].Status)
	require.Nil(t, res.Files[0].Content)
}

func TestStaleOutputRemoved(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "greeter.go", greeterSrc)
	_, err := GenerateFile(context.Background(), path, opts())
	require.NoError(t, err)
	output := filepath.Join(dir, "greeter_sync.go")
	require.FileExists(t, output)

	writeFile(t, dir, "greeter.go", strings.Replace(greeterSrc, "//syncwrap:clone\n", "", 1))

	check := opts()
	check.Check = true
	res, err := GenerateFile(context.Background(), path, check)
	require.NoError(t, err)
	require.Equal(t, StatusStale, res.Files[0].Status)
	require.FileExists(t, output)

	res, err = GenerateFile(context.Background(), path, opts())
	require.NoError(t, err)
	require.Equal(t, StatusRemoved, res.Files[0].Status)
	require.NoFileExists(t, output)
}

func TestForeignOutputNotOverwritten(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "greeter.go", greeterSrc)
	writeFile(t, dir, "greeter_sync.go", "package greeter\n\nfunc Mine() {}\n")

	res, err := GenerateFile(context.Background(), path, opts())
	require.NoError(t, err)
	require.Equal(t, StatusFailed, res.Files[0].Status)
	require.Equal(t, []string{"IO5003"}, codes(res.Files[0].Bag))
	got, err := os.ReadFile(filepath.Join(dir, "greeter_sync.go"))
	require.NoError(t, err)
	require.Equal(t, "package greeter\n\nfunc Mine() {}\n", string(got))
}

func TestCheckModeWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greeter.go", greeterSrc)
	o := opts()
	o.Check = true

	res, err := GenerateDir(context.Background(), dir, o)
	require.NoError(t, err)
	require.Equal(t, StatusStale, res.Files[0].Status)
	require.NotEmpty(t, res.Files[0].Content)
	require.NoFileExists(t, filepath.Join(dir, "greeter_sync.go"))
}

func TestReplaceRequiresExcludingConstraint(t *testing.T) {
	dir := t.TempDir()
	src := strings.Replace(greeterSrc, "//syncwrap:clone", "//syncwrap:replace", 1)
	path := writeFile(t, dir, "greeter.go", src)

	res, err := GenerateFile(context.Background(), path, opts())
	require.NoError(t, err)
	fr := res.Files[0]
	require.Equal(t, StatusFailed, fr.Status)
	require.Equal(t, []string{"BLD3001"}, codes(fr.Bag))
	require.Len(t, fr.Bag.Items()[0].Fixes, 1)

	writeFile(t, dir, "greeter.go", "//go:build !sync\n\n"+src)
	res, err = GenerateFile(context.Background(), path, opts())
	require.NoError(t, err)
	fr = res.Files[0]
	require.Equal(t, StatusWritten, fr.Status, codes(fr.Bag))
	text := string(fr.Content)
	require.Contains(t, text, "//go:build sync")
	require.Contains(t, text, "func Foo(name string) string {")
	require.NotContains(t, text, "func FooBlocking")
}

const clientSrc = `package client

import "syncwrap/async"

//syncwrap:mirror
type Client struct {
	base string
}

func (c *Client) Get(path string) async.Task[string] {
	return nil
}
`

func TestMirrorLookupAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "client.go", clientSrc)

	res, err := GenerateDir(context.Background(), dir, opts())
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	require.Equal(t, []string{"STR2005"}, codes(res.Files[0].Bag))

	writeFile(t, dir, "types.go", "package client\n\ntype ClientBlocking struct {\n\turl string\n}\n")
	res, err = GenerateDir(context.Background(), dir, opts())
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	fr := res.Files[0]
	require.Equal(t, "client.go", filepath.Base(fr.Path))
	require.Equal(t, StatusWritten, fr.Status)
	require.Equal(t, []string{"MIR4001"}, codes(fr.Bag))
	require.Contains(t, string(fr.Content), "func (c *ClientBlocking) Get(path string) (string, error) {")
	require.Equal(t, StatusNoDirectives, res.Files[1].Status)
}

func TestCacheTracksMirrorInSiblingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "client.go", clientSrc)
	mirror := writeFile(t, dir, "mirror.go", "package client\n\ntype ClientBlocking struct {\n\tbase string\n}\n")
	cache, err := OpenDiskCacheAt(t.TempDir())
	require.NoError(t, err)
	o := opts()
	o.Cache = cache

	first, err := GenerateDir(context.Background(), dir, o)
	require.NoError(t, err)
	require.Equal(t, StatusWritten, first.Files[0].Status, codes(first.Files[0].Bag))

	second, err := GenerateDir(context.Background(), dir, o)
	require.NoError(t, err)
	require.Equal(t, StatusCached, second.Files[0].Status)

	// a changed mirror declaration misses the cache
	writeFile(t, dir, "mirror.go", "package client\n\ntype ClientBlocking struct {\n\tother string\n}\n")
	third, err := GenerateDir(context.Background(), dir, o)
	require.NoError(t, err)
	require.Equal(t, StatusUnchanged, third.Files[0].Status)
	require.Equal(t, []string{"MIR4001"}, codes(third.Files[0].Bag))

	require.NoError(t, os.Remove(mirror))
	fourth, err := GenerateDir(context.Background(), dir, o)
	require.NoError(t, err)
	require.Len(t, fourth.Files, 1)
	require.Equal(t, StatusFailed, fourth.Files[0].Status)
	require.Equal(t, []string{"STR2005"}, codes(fourth.Files[0].Bag))
}

func TestMirrorDeclaredByEngine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "client.go", strings.Replace(clientSrc, "//syncwrap:mirror", "//syncwrap:mirror declare", 1))

	res, err := GenerateDir(context.Background(), dir, opts())
	require.NoError(t, err)
	fr := res.Files[0]
	require.Equal(t, StatusWritten, fr.Status, codes(fr.Bag))
	require.Contains(t, string(fr.Content), "type ClientBlocking struct {")
}

func TestRegistryAndOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.go", greeterSrc)
	writeFile(t, dir, "a.go", strings.Replace(clientSrc, "//syncwrap:mirror", "//syncwrap:mirror declare", 1))
	writeFile(t, dir, "a_test.go", "package client\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "testdata"), 0o755))
	writeFile(t, filepath.Join(dir, "testdata"), "x.go", greeterSrc)

	o := opts()
	o.Recursive = true
	res, err := GenerateDir(context.Background(), dir, o)
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	require.Equal(t, "a.go", filepath.Base(res.Files[0].Path))
	require.Equal(t, "b.go", filepath.Base(res.Files[1].Path))

	sites := res.Registry.All()
	require.Len(t, sites, 2)
	require.Equal(t, "Client", sites[0].Target)
	require.Equal(t, directive.KindMirror, sites[0].Directive.Kind)
	require.Equal(t, "Foo", sites[1].Target)
	require.Len(t, res.Registry.FilterByKind(directive.KindClone), 1)
}

func TestDisabledGeneratesNothing(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "greeter.go", greeterSrc)
	o := opts()
	o.Config.Generate.Enabled = false

	res, err := GenerateFile(context.Background(), path, o)
	require.NoError(t, err)
	require.Equal(t, StatusDisabled, res.Files[0].Status)
	require.NoFileExists(t, filepath.Join(dir, "greeter_sync.go"))
}

func TestGeneratedInputSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "gen.go", emit.Header+"\n\npackage gen\n")

	res, err := GenerateFile(context.Background(), path, opts())
	require.NoError(t, err)
	require.Equal(t, StatusSkipped, res.Files[0].Status)
}

func TestTimings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greeter.go", greeterSrc)
	o := opts()
	o.Timings = true

	res, err := GenerateDir(context.Background(), dir, o)
	require.NoError(t, err)
	require.NotNil(t, res.Timing)
	require.NotNil(t, res.FilePhases)
	names := make([]string, 0, len(res.FilePhases.Phases))
	for _, p := range res.FilePhases.Phases {
		names = append(names, p.Name)
	}
	require.Equal(t, []string{"load", "parse", "transform", "emit", "write"}, names)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GenerateFile(ctx, "missing.go", opts())
	require.ErrorIs(t, err, context.Canceled)
}
