package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"syncwrap/internal/driver"
	"syncwrap/internal/project"
)

// addGenerateFlags registers the flags shared by commands that run the
// generator.
func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().String("feature", "", "override [generate].feature; \"-\" disables build tags")
	cmd.Flags().String("suffix", "", "override [generate].suffix for clone")
	cmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	cmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	cmd.Flags().Bool("no-cache", false, "disable the on-disk cache")
}

// resolveTarget picks the path to work on: the argument, $GOFILE under
// go generate, or the working directory.
func resolveTarget(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if gofile := os.Getenv("GOFILE"); gofile != "" {
		return gofile
	}
	return "."
}

// loadConfig reads --config, or the syncwrap.toml nearest to target, and
// applies flag overrides.
func loadConfig(cmd *cobra.Command, target string) (project.Config, error) {
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return project.Config{}, err
	}
	var cfg project.Config
	if configPath != "" {
		cfg, err = project.Load(configPath)
	} else {
		cfg, _, err = project.LoadNearest(target)
	}
	if err != nil {
		return project.Config{}, err
	}

	if f := cmd.Flags().Lookup("feature"); f != nil && f.Changed {
		cfg.Generate.Feature = f.Value.String()
		if cfg.Generate.Feature == "-" {
			cfg.Generate.Feature = ""
		}
	}
	if f := cmd.Flags().Lookup("suffix"); f != nil && f.Changed {
		cfg.Generate.Suffix = f.Value.String()
	}
	if err := cfg.Validate(); err != nil {
		return project.Config{}, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func driverOptions(cmd *cobra.Command, target string, check bool) (driver.Options, error) {
	cfg, err := loadConfig(cmd, target)
	if err != nil {
		return driver.Options{}, err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return driver.Options{}, err
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return driver.Options{}, err
	}
	opts := driver.Options{
		Config:         cfg,
		Check:          check,
		MaxDiagnostics: maxDiagnostics,
		Timings:        timings,
	}
	if cmd.Flags().Lookup("jobs") == nil {
		return opts, nil
	}
	if opts.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return opts, err
	}
	if opts.Recursive, err = cmd.Flags().GetBool("recursive"); err != nil {
		return opts, err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return opts, err
	}
	if !noCache && !check {
		// кеш необязателен: без него просто медленнее
		if cache, err := driver.OpenDiskCache("syncwrap"); err == nil {
			opts.Cache = cache
		}
	}
	return opts, nil
}

// generate runs the driver over target, a file or a directory.
func generate(cmd *cobra.Command, target string, opts driver.Options) (*driver.Result, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return driver.GenerateDir(cmd.Context(), filepath.Clean(target), opts)
	}
	return driver.GenerateFile(cmd.Context(), filepath.Clean(target), opts)
}
