package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/loom/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "loom.json"

	// YAMLConfigFileName is the name of the YAML configuration file.
	// It is used when no loom.json exists.
	YAMLConfigFileName = "loom.yaml"

	// DefaultMaxEffectRunsPerFlush bounds the effect runs of a single flush.
	DefaultMaxEffectRunsPerFlush = 10000

	// DefaultMaxErrorsPerPass bounds how many errors an OnError boundary may
	// absorb within one render pass before the error is treated as uncaught.
	DefaultMaxErrorsPerPass = 8

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "loom"

	// DefaultDevtoolsAddr is the default devtools listen address.
	DefaultDevtoolsAddr = "127.0.0.1:7070"
)

// Config represents the complete loom configuration.
type Config struct {
	// Dev enables development checks and verbose logging.
	Dev bool `json:"dev,omitempty" yaml:"dev,omitempty" mapstructure:"dev"`

	// Log contains logging configuration.
	Log LogConfig `json:"log" yaml:"log" mapstructure:"log"`

	// Scheduler contains scheduler budgets.
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler" mapstructure:"scheduler"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" mapstructure:"metrics"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing" yaml:"tracing" mapstructure:"tracing"`

	// Devtools contains the inspector server configuration.
	Devtools DevtoolsConfig `json:"devtools" yaml:"devtools" mapstructure:"devtools"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty" mapstructure:"level"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty" mapstructure:"format"`
}

// SchedulerConfig contains scheduler budgets.
type SchedulerConfig struct {
	// MaxEffectRunsPerFlush caps effect runs in one flush; the rest is
	// deferred to the next tick.
	MaxEffectRunsPerFlush int `json:"maxEffectRunsPerFlush,omitempty" yaml:"maxEffectRunsPerFlush,omitempty" mapstructure:"maxEffectRunsPerFlush"`

	// MaxErrorsPerPass caps how many errors boundaries absorb per pass.
	MaxErrorsPerPass int `json:"maxErrorsPerPass,omitempty" yaml:"maxErrorsPerPass,omitempty" mapstructure:"maxErrorsPerPass"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" yaml:"enabled,omitempty" mapstructure:"enabled"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty" mapstructure:"namespace"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty" yaml:"enabled,omitempty" mapstructure:"enabled"`
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty" mapstructure:"tracerName"`
}

// DevtoolsConfig contains inspector settings.
type DevtoolsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty" mapstructure:"addr"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Scheduler: SchedulerConfig{
			MaxEffectRunsPerFlush: DefaultMaxEffectRunsPerFlush,
			MaxErrorsPerPass:      DefaultMaxErrorsPerPass,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultNamespace,
		},
		Devtools: DevtoolsConfig{
			Addr: DefaultDevtoolsAddr,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for loom.json first and falls back to loom.yaml.
// A directory without either file yields the defaults.
func Load(dir string) (*Config, error) {
	jsonPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(jsonPath); err == nil {
		return LoadFile(jsonPath)
	}
	yamlPath := filepath.Join(dir, YAMLConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return LoadFile(yamlPath)
	}
	return New(), nil
}

// LoadFile reads configuration from the specified file path.
// The format is chosen by extension (.yaml/.yml or JSON otherwise).
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E140").Wrap(err)
	}

	cfg := New()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E140").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E140").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E140").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Scheduler.MaxEffectRunsPerFlush == 0 {
		c.Scheduler.MaxEffectRunsPerFlush = DefaultMaxEffectRunsPerFlush
	}
	if c.Scheduler.MaxErrorsPerPass == 0 {
		c.Scheduler.MaxErrorsPerPass = DefaultMaxErrorsPerPass
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultNamespace
	}
	if c.Devtools.Addr == "" {
		c.Devtools.Addr = DefaultDevtoolsAddr
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E141").
			WithDetail("log.level must be one of debug, info, warn, error; got " + strconv.Quote(c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E141").
			WithDetail("log.format must be text or json; got " + strconv.Quote(c.Log.Format))
	}
	if c.Scheduler.MaxEffectRunsPerFlush < 1 {
		return errors.New("E141").
			WithDetail("scheduler.maxEffectRunsPerFlush must be positive")
	}
	if c.Scheduler.MaxErrorsPerPass < 1 {
		return errors.New("E141").
			WithDetail("scheduler.maxErrorsPerPass must be positive")
	}
	return nil
}

// ApplyOverrides merges loosely typed values into the configuration.
// Keys use the dotted form "scheduler.maxErrorsPerPass"; string values are
// converted to the field type.
func (c *Config) ApplyOverrides(values map[string]any) error {
	nested := make(map[string]any)
	for key, value := range values {
		parts := strings.Split(key, ".")
		m := nested
		for _, p := range parts[:len(parts)-1] {
			child, ok := m[p].(map[string]any)
			if !ok {
				child = make(map[string]any)
				m[p] = child
			}
			m = child
		}
		m[parts[len(parts)-1]] = value
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return errors.New("E141").Wrap(err)
	}
	if err := decoder.Decode(nested); err != nil {
		return errors.New("E141").Wrap(err)
	}
	c.applyDefaults()
	return nil
}

// ParseOverrides converts "key=value" pairs into an override map.
func ParseOverrides(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, errors.New("E141").WithDetail("override must have the form key=value: " + strconv.Quote(pair))
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out, nil
}
