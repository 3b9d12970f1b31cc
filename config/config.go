// Package config loads qbench settings from defaults, an optional YAML
// file, QBENCH_* environment variables and bound command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/weiihann/qbench/backend"
	"github.com/weiihann/qbench/workload"
)

// EnvPrefix is prepended to environment variable names, e.g.
// QBENCH_MAX_QUBITS.
const EnvPrefix = "QBENCH"

// Config is the effective benchmark configuration.
type Config struct {
	Backend           string        `mapstructure:"backend"`
	Groups            []string      `mapstructure:"groups"`
	MinQubits         int           `mapstructure:"min_qubits"`
	MaxQubits         int           `mapstructure:"max_qubits"`
	QCBMDepth         int           `mapstructure:"qcbm_depth"`
	Rounds            int           `mapstructure:"rounds"`
	Warmup            int           `mapstructure:"warmup"`
	MinTime           time.Duration `mapstructure:"min_time"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Threads           int           `mapstructure:"threads"`
	OptimizationLevel int           `mapstructure:"optimization_level"`
	Shots             int           `mapstructure:"shots"`
}

// Default returns the built-in configuration: every group from 4 to 25
// qubits on a single thread.
func Default() Config {
	return Config{
		Backend:           backend.Name,
		Groups:            workload.DefaultGroups(),
		MinQubits:         workload.DefaultMinQubits,
		MaxQubits:         workload.DefaultMaxQubits,
		QCBMDepth:         workload.DefaultQCBMDepth,
		Rounds:            5,
		Warmup:            1,
		MinTime:           0,
		Timeout:           30 * time.Minute,
		Threads:           1,
		OptimizationLevel: 1,
		Shots:             1024,
	}
}

// SetDefaults registers Default() with v.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("backend", d.Backend)
	v.SetDefault("groups", d.Groups)
	v.SetDefault("min_qubits", d.MinQubits)
	v.SetDefault("max_qubits", d.MaxQubits)
	v.SetDefault("qcbm_depth", d.QCBMDepth)
	v.SetDefault("rounds", d.Rounds)
	v.SetDefault("warmup", d.Warmup)
	v.SetDefault("min_time", d.MinTime)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("threads", d.Threads)
	v.SetDefault("optimization_level", d.OptimizationLevel)
	v.SetDefault("shots", d.Shots)
}

// Load reads the configuration into a Config. path may be empty. Flags
// must already be bound to v under the mapstructure key names.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports every out-of-range setting at once.
func (c Config) Validate() error {
	var errs []error

	if _, err := backend.Resolve(c.Backend); err != nil {
		errs = append(errs, err)
	}

	known := workload.DefaultGroups()
	for _, g := range c.Groups {
		if !slices.Contains(known, g) {
			errs = append(errs, fmt.Errorf("unknown group %q", g))
		}
	}

	if c.MinQubits < 1 {
		errs = append(errs, fmt.Errorf("min_qubits must be positive, got %d", c.MinQubits))
	}
	if c.MaxQubits < c.MinQubits {
		errs = append(errs, fmt.Errorf(
			"max_qubits %d is below min_qubits %d", c.MaxQubits, c.MinQubits,
		))
	}
	if c.MaxQubits > backend.DefaultMaxQubits {
		errs = append(errs, fmt.Errorf(
			"max_qubits %d exceeds backend limit %d",
			c.MaxQubits, backend.DefaultMaxQubits,
		))
	}
	if c.QCBMDepth < 1 {
		errs = append(errs, fmt.Errorf("qcbm_depth must be positive, got %d", c.QCBMDepth))
	}
	if c.Rounds < 1 {
		errs = append(errs, fmt.Errorf("rounds must be positive, got %d", c.Rounds))
	}
	if c.Warmup < 0 {
		errs = append(errs, fmt.Errorf("warmup must not be negative, got %d", c.Warmup))
	}
	if c.MinTime < 0 || c.Timeout < 0 {
		errs = append(errs, errors.New("min_time and timeout must not be negative"))
	}
	if c.Threads < 1 {
		errs = append(errs, fmt.Errorf("threads must be positive, got %d", c.Threads))
	}
	if c.OptimizationLevel < 0 || c.OptimizationLevel > 1 {
		errs = append(errs, fmt.Errorf(
			"optimization_level must be 0 or 1, got %d", c.OptimizationLevel,
		))
	}
	if c.Shots < 1 {
		errs = append(errs, fmt.Errorf("shots must be positive, got %d", c.Shots))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	return nil
}

// WriteYAML writes c to w as YAML.
func (c Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(yamlView(c)); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return enc.Close()
}

// yamlView renders durations as strings so the output can be read back
// by Load.
func yamlView(c Config) map[string]any {
	return map[string]any{
		"backend":            c.Backend,
		"groups":             c.Groups,
		"min_qubits":         c.MinQubits,
		"max_qubits":         c.MaxQubits,
		"qcbm_depth":         c.QCBMDepth,
		"rounds":             c.Rounds,
		"warmup":             c.Warmup,
		"min_time":           c.MinTime.String(),
		"timeout":            c.Timeout.String(),
		"threads":            c.Threads,
		"optimization_level": c.OptimizationLevel,
		"shots":              c.Shots,
	}
}
