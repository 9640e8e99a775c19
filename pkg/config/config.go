// Package config holds the explicit configuration value threaded through
// triangulation, BSP construction, tessellation and DSL evaluation. There is
// no process-wide tolerance: every operation receives its Config.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate and the loaders.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Splitter names accepted in Config.Splitter.
const (
	SplitterFirst     = "first"
	SplitterMinSplits = "min-splits"
)

// Defaults.
const (
	DefaultEpsilon     = 1e-5
	DefaultSplitWeight = 8.0
	DefaultEvalTimeout = 5 * time.Second
)

// Duration is a time.Duration that decodes from strings such as "750ms".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return errors.Wrapf(ErrInvalidConfig, "duration %q: %v", b, err)
	}
	*d = Duration(v)
	return nil
}

// Config is the kernel configuration.
type Config struct {
	// Epsilon is the plane classification tolerance used by BSP construction
	// and CSG. Vertices within Epsilon of a plane count as lying on it. Too
	// small a value misclassifies nearly coplanar faces and shows up as cracks
	// or leaks in CSG output; too large a value merges distinct geometry.
	Epsilon float64 `toml:"epsilon" yaml:"epsilon"`

	// Splitter selects the BSP splitting-plane heuristic: "first" or
	// "min-splits".
	Splitter string `toml:"splitter" yaml:"splitter"`

	// SplitWeight scales the split count against tree imbalance for the
	// min-splits heuristic.
	SplitWeight float64 `toml:"split_weight" yaml:"split_weight"`

	// Candidates caps how many polygons min-splits evaluates per node.
	// Zero evaluates all of them.
	Candidates int `toml:"candidates" yaml:"candidates"`

	// MaxFlipPasses bounds the Delaunay flip loop. Zero means run to
	// completion.
	MaxFlipPasses int `toml:"max_flip_passes" yaml:"max_flip_passes"`

	// Workers bounds batch parallelism.
	Workers int `toml:"workers" yaml:"workers"`

	// EvalTimeout is the hard limit for one DSL evaluation.
	EvalTimeout Duration `toml:"eval_timeout" yaml:"eval_timeout"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Epsilon:     DefaultEpsilon,
		Splitter:    SplitterFirst,
		SplitWeight: DefaultSplitWeight,
		Workers:     runtime.GOMAXPROCS(0),
		EvalTimeout: Duration(DefaultEvalTimeout),
	}
}

// Validate checks the configuration. The returned error wraps
// ErrInvalidConfig.
func (c Config) Validate() error {
	if !(c.Epsilon > 0) {
		return errors.Wrapf(ErrInvalidConfig, "epsilon must be positive, got %g", c.Epsilon)
	}
	switch c.Splitter {
	case SplitterFirst, SplitterMinSplits:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown splitter %q", c.Splitter)
	}
	if c.SplitWeight < 0 {
		return errors.Wrapf(ErrInvalidConfig, "split_weight must not be negative, got %g", c.SplitWeight)
	}
	if c.Candidates < 0 {
		return errors.Wrapf(ErrInvalidConfig, "candidates must not be negative, got %d", c.Candidates)
	}
	if c.MaxFlipPasses < 0 {
		return errors.Wrapf(ErrInvalidConfig, "max_flip_passes must not be negative, got %d", c.MaxFlipPasses)
	}
	if c.Workers < 1 {
		return errors.Wrapf(ErrInvalidConfig, "workers must be at least 1, got %d", c.Workers)
	}
	if c.EvalTimeout <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "eval_timeout must be positive, got %s", time.Duration(c.EvalTimeout))
	}
	return nil
}

// Decode reads a TOML document over the defaults. Unknown keys are an error.
func Decode(r io.Reader) (Config, error) {
	c := Default()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&c); err != nil {
		return Config{}, errors.Wrapf(ErrInvalidConfig, "toml: %v", err)
	}
	return c, c.Validate()
}

// DecodeYAML reads a YAML document over the defaults. Unknown keys are an
// error.
func DecodeYAML(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return Config{}, errors.Wrapf(ErrInvalidConfig, "yaml: %v", err)
	}
	return c, c.Validate()
}

// LoadFile reads a .toml, .yaml or .yml file.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: read")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return Decode(bytes.NewReader(data))
	case ".yaml", ".yml":
		return DecodeYAML(bytes.NewReader(data))
	}
	return Config{}, errors.Wrapf(ErrInvalidConfig, "unsupported config extension %q", filepath.Ext(path))
}
