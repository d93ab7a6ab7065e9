package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"syncwrap/internal/driver"
	"syncwrap/internal/logging"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] [directory]",
	Short: "Regenerate whenever a source file changes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	addGenerateFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", 150*time.Millisecond, "quiet period before regenerating")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("watch: %s is not a directory", dir)
	}
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return err
	}
	opts, err := driverOptions(cmd, dir, false)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()
	if err := addWatches(watcher, dir, opts.Recursive); err != nil {
		return err
	}

	regenerate := func() {
		res, err := driver.GenerateDir(ctx, dir, opts)
		if err != nil {
			fmt.Fprintln(os.Stderr, "watch:", err)
			return
		}
		// ошибки генерации уже напечатаны, продолжаем следить
		_ = report(cmd, res, "pretty")
	}
	regenerate()
	return watchLoop(ctx, watcher, opts, debounce, regenerate)
}

// watchLoop calls regenerate once per burst of relevant events.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, opts driver.Options, debounce time.Duration, regenerate func()) error {
	log := logging.Logger().Named("watch")
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && opts.Recursive {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !skipDir(filepath.Base(ev.Name)) {
					if err := watcher.Add(ev.Name); err != nil {
						log.Warn("cannot watch new directory", zap.String("dir", ev.Name), zap.Error(err))
					}
				}
			}
			if !relevant(ev, opts.Config.Generate.OutputSuffix) {
				continue
			}
			log.Debug("change", zap.Stringer("event", ev))
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			regenerate()
		}
	}
}

// relevant reports whether ev touches a file generation reads.
func relevant(ev fsnotify.Event, outputSuffix string) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasSuffix(name, outputSuffix) &&
		!strings.HasPrefix(name, ".")
}

func skipDir(name string) bool {
	return name == "testdata" || name == "vendor" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func addWatches(watcher *fsnotify.Watcher, root string, recursive bool) error {
	if !recursive {
		return watcher.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
