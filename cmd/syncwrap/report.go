package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"syncwrap/internal/diag"
	"syncwrap/internal/diagfmt"
	"syncwrap/internal/driver"
)

// printDiagnostics renders the diagnostics of res to w in format
// (pretty|json|short).
func printDiagnostics(w io.Writer, res *driver.Result, format string, pathMode diagfmt.PathMode, maxDiagnostics int) error {
	bag := res.Bag()
	switch format {
	case "pretty":
		if bag.Len() == 0 {
			return nil
		}
		diagfmt.Pretty(w, bag, res.FileSet, diagfmt.PrettyOpts{
			Color:     !color.NoColor,
			Context:   1,
			PathMode:  pathMode,
			ShowNotes: true,
			ShowFixes: true,
		})
	case "json":
		return diagfmt.JSON(w, bag, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			Max:              maxDiagnostics,
			IncludeNotes:     true,
			IncludeFixes:     true,
		})
	case "short":
		_, err := io.WriteString(w, diag.FormatShortDiagnostics(bag.Items(), res.FileSet, true))
		return err
	default:
		return fmt.Errorf("unknown format %q (must be pretty, json or short)", format)
	}
	return nil
}

var statusColor = map[driver.Status]*color.Color{
	driver.StatusWritten: color.New(color.FgGreen),
	driver.StatusRemoved: color.New(color.FgYellow),
	driver.StatusStale:   color.New(color.FgYellow, color.Bold),
	driver.StatusFailed:  color.New(color.FgRed, color.Bold),
}

// printFiles lists files whose status is worth reporting.
func printFiles(w io.Writer, res *driver.Result) {
	for _, f := range res.Files {
		c, ok := statusColor[f.Status]
		if !ok {
			continue
		}
		path := f.Output
		if f.Status == driver.StatusFailed {
			path = f.Path
		}
		fmt.Fprintf(w, "%s %s\n", c.Sprintf("%-8s", f.Status), path)
	}
}

func printSummary(w io.Writer, res *driver.Result) {
	fmt.Fprintf(w, "%d files: %d written, %d unchanged, %d cached, %d removed, %d stale, %d failed\n",
		len(res.Files),
		res.Count(driver.StatusWritten),
		res.Count(driver.StatusUnchanged),
		res.Count(driver.StatusCached),
		res.Count(driver.StatusRemoved),
		res.Count(driver.StatusStale),
		res.Count(driver.StatusFailed))
}

func printTimings(w io.Writer, res *driver.Result) {
	fmt.Fprint(w, res.Timing.Summary())
	if res.FilePhases != nil {
		fmt.Fprintln(w, "per-file phases (summed):")
		fmt.Fprint(w, res.FilePhases.Summary())
	}
}

// report prints everything a generating command shows after a run and
// turns failures into errFailed.
func report(cmd *cobra.Command, res *driver.Result, format string) error {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	pathFlag, err := cmd.Root().PersistentFlags().GetString("path-mode")
	if err != nil {
		return err
	}
	pathMode, ok := diagfmt.ParsePathMode(pathFlag)
	if !ok {
		return fmt.Errorf("unknown path mode %q (must be auto, absolute, relative or basename)", pathFlag)
	}

	out := cmd.OutOrStdout()
	diagOut := cmd.ErrOrStderr()
	if format == "json" {
		diagOut = out
	}
	if err := printDiagnostics(diagOut, res, format, pathMode, maxDiagnostics); err != nil {
		return err
	}
	if !quiet && format != "json" {
		printFiles(out, res)
		printSummary(out, res)
	}
	if timings {
		printTimings(cmd.ErrOrStderr(), res)
	}
	if res.HasErrors() {
		return errFailed
	}
	return nil
}
