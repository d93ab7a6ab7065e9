package driver

import (
	"syncwrap/internal/diag"
	"syncwrap/internal/directive"
	"syncwrap/internal/observ"
	"syncwrap/internal/source"
)

// Status describes what happened to one source file.
type Status uint8

const (
	// StatusSkipped: the file is itself generated.
	StatusSkipped Status = iota
	// StatusNoDirectives: nothing to generate and no stale output.
	StatusNoDirectives
	// StatusFailed: the file has error diagnostics; no output was produced.
	StatusFailed
	// StatusDisabled: generation is switched off in the configuration.
	StatusDisabled
	// StatusUnchanged: the output on disk already matches.
	StatusUnchanged
	// StatusCached: the cache proved the output current without generating.
	StatusCached
	StatusWritten
	// StatusRemoved: a stale output of a file without directives was deleted.
	StatusRemoved
	// StatusStale: check mode found an output that is missing, outdated or
	// left over.
	StatusStale
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusNoDirectives:
		return "no-directives"
	case StatusFailed:
		return "failed"
	case StatusDisabled:
		return "disabled"
	case StatusUnchanged:
		return "unchanged"
	case StatusCached:
		return "cached"
	case StatusWritten:
		return "written"
	case StatusRemoved:
		return "removed"
	case StatusStale:
		return "stale"
	}
	return "unknown"
}

// FileResult is the outcome for one source file.
type FileResult struct {
	Path   string // source file
	Output string // generated file path
	FileID source.FileID
	Status Status
	Bag    *diag.Bag
	// Content is the generated file; nil when nothing was generated.
	Content []byte
	Timing  *observ.Report
}

// Result is the outcome of GenerateFile or GenerateDir.
type Result struct {
	FileSet  *source.FileSet
	Files    []FileResult
	Registry *directive.Registry
	Timing   *observ.Report

	// FilePhases sums the per-file phases of a directory run.
	FilePhases *observ.Report
}

// Bag merges the diagnostics of every file, sorted and deduplicated.
func (r *Result) Bag() *diag.Bag {
	bag := diag.NewBag(0)
	for i := range r.Files {
		bag.Merge(r.Files[i].Bag)
	}
	bag.Sort()
	bag.Dedup()
	return bag
}

// HasErrors reports whether any file failed.
func (r *Result) HasErrors() bool {
	for i := range r.Files {
		if r.Files[i].Bag.HasErrors() {
			return true
		}
	}
	return false
}

// Count returns how many files ended in status s.
func (r *Result) Count(s Status) int {
	n := 0
	for i := range r.Files {
		if r.Files[i].Status == s {
			n++
		}
	}
	return n
}
