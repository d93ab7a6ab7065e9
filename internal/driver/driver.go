// Package driver runs generation over files and directories: it loads
// sources, drives the frontend, engine and emitter, and writes or checks
// the generated files.
package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"syncwrap/internal/decl"
	"syncwrap/internal/diag"
	"syncwrap/internal/directive"
	"syncwrap/internal/emit"
	"syncwrap/internal/engine"
	"syncwrap/internal/frontend"
	"syncwrap/internal/logging"
	"syncwrap/internal/observ"
	"syncwrap/internal/project"
	"syncwrap/internal/source"
)

// Options configure a generation run.
type Options struct {
	Config project.Config
	// Check reports what would change without touching the disk.
	Check          bool
	MaxDiagnostics int
	// Jobs bounds parallelism of GenerateDir; <= 0 means GOMAXPROCS.
	Jobs int
	// Recursive makes GenerateDir descend into subdirectories.
	Recursive bool
	// Cache is optional.
	Cache *DiskCache
	// Timings enables per-file and per-run phase timers.
	Timings bool
}

type run struct {
	opts     Options
	fs       *source.FileSet
	registry *directive.Registry
	indexes  *indexCache
	log      *zap.Logger
}

func newRun(baseDir string, opts Options) *run {
	return &run{
		opts:     opts,
		fs:       source.NewFileSetWithBase(baseDir),
		registry: directive.NewRegistry(),
		indexes:  &indexCache{entries: make(map[string]*indexEntry)},
		log:      logging.Logger().Named("driver"),
	}
}

func (r *run) result(files []FileResult, timer *observ.Timer) *Result {
	return &Result{FileSet: r.fs, Files: files, Registry: r.registry, Timing: timer.Report()}
}

// GenerateFile generates the output of a single source file.
func GenerateFile(ctx context.Context, path string, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := newRun(filepath.Dir(path), opts)
	var timer *observ.Timer
	if opts.Timings {
		timer = observ.NewTimer()
	}
	idx := timer.Begin("generate")
	fr := r.file(path)
	timer.End(idx, fr.Status.String())
	return r.result([]FileResult{fr}, timer), nil
}

// file processes one source file. Every problem ends up in the returned
// bag; generation of a file never fails the whole run.
func (r *run) file(path string) (res FileResult) {
	cfg := r.opts.Config
	res = FileResult{
		Path:   path,
		Output: emit.OutputPath(path, cfg.Generate.OutputSuffix),
		Bag:    diag.NewBag(r.opts.MaxDiagnostics),
	}
	var timer *observ.Timer
	if r.opts.Timings {
		timer = observ.NewTimer()
		defer func() { res.Timing = timer.Report() }()
	}
	log := r.log.With(zap.String("file", path))
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})

	idx := timer.Begin("load")
	id, err := r.fs.Load(path)
	timer.End(idx, "")
	if err != nil {
		diag.ReportError(reporter, diag.IOLoadFileError, source.Span{}, fmt.Sprintf("failed to load %s: %v", path, err)).Emit()
		res.Status = StatusFailed
		return res
	}
	res.FileID = id
	src := r.fs.Get(id)
	if src.Flags&source.FileGenerated != 0 {
		res.Status = StatusSkipped
		return res
	}
	if !cfg.Generate.Enabled {
		res.Status = StatusDisabled
		return res
	}

	key := Key(src.Hash, cfg)
	var cached DiskPayload
	if ok, err := r.opts.Cache.Get(key, &cached); err != nil {
		log.Debug("cache read failed", zap.Error(err))
	} else if ok && cached.Output == res.Output && cached.current() && r.mirrorsCurrent(filepath.Dir(src.Path), &cached) {
		log.Debug("cache hit")
		res.Status = StatusCached
		if !cached.HasOutput {
			res.Status = StatusNoDirectives
		}
		return res
	}

	idx = timer.Begin("parse")
	f := frontend.ParseFile(r.fs, id, frontend.Options{
		AsyncPath:    cfg.Runtime.Async,
		MirrorSuffix: cfg.Generate.MirrorSuffix,
		Reporter:     reporter,
	})
	timer.End(idx, "")
	if f == nil || res.Bag.HasErrors() {
		res.Status = StatusFailed
		return res
	}
	r.register(f)

	if len(f.Items) == 0 {
		res.Status = r.dropStale(res.Output, reporter)
		if res.Status == StatusNoDirectives && res.Bag.Len() == 0 {
			r.store(key, &DiskPayload{Source: path, Output: res.Output}, log)
		}
		return res
	}

	for _, d := range emit.Check(f, cfg.Generate.Feature) {
		res.Bag.Add(d)
	}
	if res.Bag.HasErrors() {
		res.Status = StatusFailed
		return res
	}

	idx = timer.Begin("transform")
	results, ok := r.transform(f, reporter)
	timer.End(idx, fmt.Sprintf("%d items", len(f.Items)))
	if !ok {
		res.Status = StatusFailed
		return res
	}

	idx = timer.Begin("emit")
	out, err := emit.Generate(f, src.Content, results, emit.Options{
		Feature:      cfg.Generate.Feature,
		BlockingPath: cfg.Runtime.Blocking,
		BlockingName: emit.BlockingName(f, cfg.Runtime.Blocking),
	})
	timer.End(idx, "")
	if err != nil {
		diag.ReportError(reporter, diag.IOWriteError, source.Span{File: id}, err.Error()).Emit()
		res.Status = StatusFailed
		return res
	}
	res.Content = out

	idx = timer.Begin("write")
	res.Status = r.write(res.Output, out, reporter)
	timer.End(idx, res.Status.String())
	if (res.Status == StatusWritten || res.Status == StatusUnchanged) && res.Bag.Len() == 0 {
		payload := &DiskPayload{Source: path, Output: res.Output, HasOutput: true, OutputHash: project.Sum(out)}
		if r.recordMirrors(f, payload) {
			r.store(key, payload, log)
		}
	}
	return res
}

// mirrorNames lists the mirror types of the blocks of f in source order.
func mirrorNames(f *frontend.File) []string {
	var names []string
	for _, it := range f.Items {
		if it.Block != nil {
			names = append(names, it.Block.Mirror)
		}
	}
	return names
}

// recordMirrors stores in payload the state of the mirror types f depends
// on. It returns false when that state cannot be captured.
func (r *run) recordMirrors(f *frontend.File, payload *DiskPayload) bool {
	names := mirrorNames(f)
	if len(names) == 0 {
		return true
	}
	ix, err := r.indexes.get(r.fs, filepath.Dir(f.Path), f.Package)
	if err != nil {
		return false
	}
	payload.Package = f.Package
	payload.Mirrors = names
	payload.MirrorHash = mirrorDigest(ix, names)
	return true
}

// mirrorsCurrent reports whether the mirror types recorded in payload are
// still declared the same way in dir.
func (r *run) mirrorsCurrent(dir string, payload *DiskPayload) bool {
	if len(payload.Mirrors) == 0 {
		return true
	}
	ix, err := r.indexes.get(r.fs, dir, payload.Package)
	if err != nil {
		return false
	}
	return mirrorDigest(ix, payload.Mirrors) == payload.MirrorHash
}

// transform runs the engine over every item of f. All items are tried so
// that every structural problem is reported; any failure suppresses output.
func (r *run) transform(f *frontend.File, reporter diag.Reporter) ([]emit.Result, bool) {
	cfg := r.opts.Config
	eng := engine.New(engine.Config{
		Enabled: cfg.Generate.Enabled,
		Runtime: engine.Runtime{
			AsyncName:    f.AsyncName,
			BlockingName: emit.BlockingName(f, cfg.Runtime.Blocking),
			Constructor:  cfg.Runtime.Constructor,
		},
		Reporter: reporter,
	})

	mirrors := make(map[string]string)
	for _, it := range f.Items {
		if it.Block != nil {
			mirrors[it.Block.Type] = it.Block.Mirror
		}
	}

	var types engine.TypeLookup
	if len(mirrors) > 0 {
		ix, err := r.indexes.get(r.fs, filepath.Dir(f.Path), f.Package)
		if err != nil {
			diag.ReportError(reporter, diag.IOLoadFileError, source.Span{File: f.ID}, err.Error()).Emit()
			return nil, false
		}
		types = ix
	}

	results := make([]emit.Result, 0, len(f.Items))
	ok := true
	for _, it := range f.Items {
		var out engine.Outcome
		if it.Func != nil {
			out = eng.Single(it.Func, engine.PolicyFor(it.Directive, cfg.Generate.Suffix))
		} else {
			out = eng.Block(it.Block, types, mirrors)
		}
		if out.Err != nil {
			reportStructural(reporter, it, out.Err)
			ok = false
			continue
		}
		results = append(results, emit.Result{Item: it, Outcome: out})
	}
	return results, ok
}

func (r *run) register(f *frontend.File) {
	for _, it := range f.Items {
		var target string
		if it.Func != nil {
			target = it.Func.QualifiedName()
		} else {
			target = it.Block.Type
		}
		r.registry.Add(directive.Site{Directive: it.Directive, Path: f.Path, Target: target})
	}
}

var reasonCodes = map[decl.Reason]diag.Code{
	decl.ReasonNotAsync:        diag.StrNotAsync,
	decl.ReasonMixedBlock:      diag.StrMixedBlock,
	decl.ReasonNoBody:          diag.StrNoBody,
	decl.ReasonEmptyBlock:      diag.StrEmptyBlock,
	decl.ReasonMirrorNotFound:  diag.StrMirrorNotFound,
	decl.ReasonMirrorNotStruct: diag.StrMirrorNotStruct,
	decl.ReasonMirrorDuplicate: diag.StrMirrorDuplicate,
}

func reportStructural(reporter diag.Reporter, it frontend.Item, err error) {
	var se *decl.StructuralError
	if !errors.As(err, &se) {
		diag.ReportError(reporter, diag.UnknownCode, it.Directive.Span, err.Error()).Emit()
		return
	}
	code, ok := reasonCodes[se.Reason]
	if !ok {
		code = diag.StrInfo
	}
	b := diag.ReportError(reporter, code, se.Span, se.Error()).
		WithNote(it.Directive.Span, "requested here")
	if it.Block != nil && se.Block != "" {
		b.WithNote(it.Block.Span, "the whole block of "+it.Block.Type+" is rejected")
	}
	b.Emit()
}

// dropStale removes the output left behind by a file that lost all its
// directives. Files without our header are never touched.
func (r *run) dropStale(output string, reporter diag.Reporter) Status {
	content, err := os.ReadFile(output)
	if err != nil || !bytes.HasPrefix(content, []byte(emit.Header)) {
		return StatusNoDirectives
	}
	if r.opts.Check {
		return StatusStale
	}
	if err := os.Remove(output); err != nil {
		diag.ReportError(reporter, diag.IOWriteError, source.Span{}, fmt.Sprintf("failed to remove stale %s: %v", output, err)).Emit()
		return StatusFailed
	}
	r.log.Info("removed stale output", zap.String("output", output))
	return StatusRemoved
}

func (r *run) write(output string, content []byte, reporter diag.Reporter) Status {
	existing, err := os.ReadFile(output)
	if err == nil && bytes.Equal(existing, content) {
		return StatusUnchanged
	}
	if err == nil && !bytes.HasPrefix(existing, []byte(emit.Header)) {
		diag.ReportError(reporter, diag.IOWriteError, source.Span{},
			fmt.Sprintf("%s exists and was not generated by syncwrap; refusing to overwrite", output)).Emit()
		return StatusFailed
	}
	if r.opts.Check {
		return StatusStale
	}
	if err := writeAtomic(output, content); err != nil {
		diag.ReportError(reporter, diag.IOWriteError, source.Span{}, fmt.Sprintf("failed to write %s: %v", output, err)).Emit()
		return StatusFailed
	}
	r.log.Debug("wrote output", zap.String("output", output))
	return StatusWritten
}

func (r *run) store(key project.Digest, payload *DiskPayload, log *zap.Logger) {
	if r.opts.Check {
		return
	}
	if err := r.opts.Cache.Put(key, payload); err != nil {
		log.Debug("cache write failed", zap.Error(err))
	}
}

func writeAtomic(path string, content []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(content); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Chmod(0o644); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// indexCache builds one type index per package directory and shares it
// between the files of that directory.
type indexCache struct {
	mu      sync.Mutex
	entries map[string]*indexEntry
}

type indexEntry struct {
	once sync.Once
	ix   *frontend.Index
	err  error
}

func (c *indexCache) get(fs *source.FileSet, dir, pkg string) (*frontend.Index, error) {
	key := dir + "\x00" + pkg
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &indexEntry{}
		c.entries[key] = e
	}
	c.mu.Unlock()
	e.once.Do(func() { e.ix, e.err = frontend.IndexDir(fs, dir, pkg) })
	return e.ix, e.err
}

// isSource reports whether name is a Go file generation reads.
func isSource(name, outputSuffix string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasSuffix(name, outputSuffix)
}
