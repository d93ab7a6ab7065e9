package project

import (
	"fmt"
	"go/token"
	"strings"

	"github.com/BurntSushi/toml"

	"syncwrap/internal/directive"
)

// Config is the content of syncwrap.toml.
type Config struct {
	Generate GenerateConfig `toml:"generate"`
	Runtime  RuntimeConfig  `toml:"runtime"`
}

// GenerateConfig is the [generate] table.
type GenerateConfig struct {
	// Feature is the build tag of synchronous builds; "" disables tagging.
	Feature      string `toml:"feature"`
	Suffix       string `toml:"suffix"`
	MirrorSuffix string `toml:"mirror_suffix"`
	OutputSuffix string `toml:"output_suffix"`
	Enabled      bool   `toml:"enabled"`
}

// RuntimeConfig is the [runtime] table.
type RuntimeConfig struct {
	Async    string `toml:"async"`
	Blocking string `toml:"blocking"`
	// Constructor is the driver constructor call relative to the blocking
	// package, e.g. "New()".
	Constructor string `toml:"constructor"`
}

// Default returns the configuration used without syncwrap.toml.
func Default() Config {
	return Config{
		Generate: GenerateConfig{
			Feature:      "sync",
			Suffix:       "Blocking",
			MirrorSuffix: "Blocking",
			OutputSuffix: "_sync.go",
			Enabled:      true,
		},
		Runtime: RuntimeConfig{
			Async:       "syncwrap/async",
			Blocking:    "syncwrap/blocking",
			Constructor: "New()",
		},
	}
}

// Load reads path over the defaults; keys absent from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadNearest loads the syncwrap.toml closest to startDir, or the defaults
// when there is none. The returned path is "" in the latter case.
func LoadNearest(startDir string) (Config, string, error) {
	path, ok, err := FindConfig(startDir)
	if err != nil {
		return Config{}, "", err
	}
	if !ok {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Validate checks values that would produce broken output.
func (c Config) Validate() error {
	g := c.Generate
	if g.Feature != "" && !token.IsIdentifier(g.Feature) {
		return fmt.Errorf("[generate].feature %q is not a valid build tag", g.Feature)
	}
	for key, v := range map[string]string{"suffix": g.Suffix, "mirror_suffix": g.MirrorSuffix} {
		if !directive.IsSuffix(v) {
			return fmt.Errorf("[generate].%s %q must be a non-empty identifier suffix", key, v)
		}
	}
	if !strings.HasSuffix(g.OutputSuffix, ".go") || strings.HasSuffix(g.OutputSuffix, "_test.go") || g.OutputSuffix == ".go" {
		return fmt.Errorf("[generate].output_suffix %q must end in .go and not name a test file", g.OutputSuffix)
	}
	r := c.Runtime
	if r.Async == "" || r.Blocking == "" {
		return fmt.Errorf("[runtime].async and [runtime].blocking must be set")
	}
	if r.Constructor == "" {
		return fmt.Errorf("[runtime].constructor must be set")
	}
	return nil
}

// Fingerprint hashes every setting that changes generated output.
func (c Config) Fingerprint() Digest {
	fields := []string{
		c.Generate.Feature, c.Generate.Suffix, c.Generate.MirrorSuffix, c.Generate.OutputSuffix,
		fmt.Sprint(c.Generate.Enabled),
		c.Runtime.Async, c.Runtime.Blocking, c.Runtime.Constructor,
	}
	parts := make([]Digest, len(fields))
	for i, v := range fields {
		parts[i] = Sum([]byte(v))
	}
	return Combine(Sum([]byte(ConfigName)), parts...)
}
