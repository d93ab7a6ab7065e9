package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"syncwrap/internal/observ"
)

// listSources returns the sorted Go source files generation reads under
// dir. Like the go tool, it skips testdata, vendor and directories whose
// name starts with "." or "_".
func listSources(dir string, recursive bool, outputSuffix string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			name := d.Name()
			if !recursive || name == "testdata" || name == "vendor" ||
				strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if isSource(d.Name(), outputSuffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// GenerateDir generates every source file of dir in parallel. Results are
// ordered by path whatever the scheduling.
func GenerateDir(ctx context.Context, dir string, opts Options) (*Result, error) {
	r := newRun(dir, opts)
	var timer *observ.Timer
	if opts.Timings {
		timer = observ.NewTimer()
	}

	idx := timer.Begin("discover")
	files, err := listSources(dir, opts.Recursive, opts.Config.Generate.OutputSuffix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	timer.End(idx, fmt.Sprintf("%d files", len(files)))
	if len(files) == 0 {
		return r.result(nil, timer), nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// индексы уникальны для каждой горутины, мьютекс не нужен
	results := make([]FileResult, len(files))

	idx = timer.Begin("generate")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.file(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	timer.End(idx, fmt.Sprintf("jobs=%d", jobs))

	res := r.result(results, timer)
	if opts.Timings {
		perFile := make([]*observ.Report, len(results))
		for i := range results {
			perFile[i] = results[i].Timing
		}
		res.FilePhases = observ.Sum(perFile...)
	}
	r.log.Debug("generated directory",
		zap.String("dir", dir),
		zap.Int("files", len(files)),
		zap.Int("written", res.Count(StatusWritten)),
		zap.Int("failed", res.Count(StatusFailed)))
	return res, nil
}
