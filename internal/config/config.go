package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/vango-dev/reactiveurl/internal/errors"
)

const (
	// JSONFileName and TOMLFileName are looked up by Load, in that order.
	JSONFileName = "reactiveurl.json"
	TOMLFileName = "reactiveurl.toml"

	DefaultPage       = "/"
	DefaultDebounce   = "300ms"
	DefaultAddress    = ":8080"
	DefaultNamespace  = "reactiveurl"
	DefaultTracerName = "reactiveurl"
)

// Config is the complete server configuration.
type Config struct {
	// Page is the path the query string is appended to.
	Page string `json:"page,omitempty" toml:"page,omitempty"`

	// Query is the initial query string, read once at startup.
	Query string `json:"query,omitempty" toml:"query,omitempty"`

	// Defaults maps every tracked field to its default value.
	Defaults map[string]any `json:"defaults" toml:"defaults"`

	// FilterKeys lists fields stored as filter[key]. nil means all fields.
	FilterKeys []string `json:"filterKeys" toml:"filterKeys,omitempty"`

	// Debounce is the quiet interval before a URL update is pushed.
	Debounce string `json:"debounce,omitempty" toml:"debounce,omitempty"`

	// ExceptPaginator drops limit and page from pushed URLs.
	ExceptPaginator bool `json:"exceptPaginator,omitempty" toml:"exceptPaginator,omitempty"`

	Server  ServerConfig  `json:"server" toml:"server"`
	Metrics MetricsConfig `json:"metrics" toml:"metrics"`
	Tracing TracingConfig `json:"tracing" toml:"tracing"`

	configPath string
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Address string `json:"address,omitempty" toml:"address,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" toml:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty" toml:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	TracerName string `json:"tracerName,omitempty" toml:"tracerName,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Page:     DefaultPage,
		Defaults: map[string]any{},
		Debounce: DefaultDebounce,
		Server: ServerConfig{
			Address: DefaultAddress,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
	}
}

// Load reads reactiveurl.json or, failing that, reactiveurl.toml from dir.
func Load(dir string) (*Config, error) {
	for _, name := range []string{JSONFileName, TOMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("R100").
		WithDetail("No " + JSONFileName + " or " + TOMLFileName + " found in " + dir).
		WithSuggestion("Run 'reactiveurl init' to create one")
}

// LoadFile reads configuration from path. The format follows the extension.
func LoadFile(path string) (*Config, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("R100").
				WithDetail(path).
				Wrap(err)
		}
		return nil, errors.New("R101").Wrap(err)
	}

	cfg := New()
	switch format {
	case "toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("R101").
			WithDetail(filepath.Base(path)).
			WithSuggestion("Check that the file is valid " + strings.ToUpper(format)).
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// SaveTo writes the configuration to path in the format its extension names.
func (c *Config) SaveTo(path string) error {
	format, err := formatOf(path)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case "toml":
		data, err = toml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("R101").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Newf(errors.CategoryConfig, "write %s", path).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) applyDefaults() {
	if c.Page == "" {
		c.Page = DefaultPage
	}
	if c.Defaults == nil {
		c.Defaults = map[string]any{}
	}
	if c.Debounce == "" {
		c.Debounce = DefaultDebounce
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
}

// Validate checks the configuration for values the server cannot use.
func (c *Config) Validate() error {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil {
		return errors.New("R103").Wrap(err)
	}
	if d <= 0 {
		return errors.New("R103").WithDetailf("got %s", c.Debounce)
	}

	for _, key := range c.FilterKeys {
		if _, ok := c.Defaults[key]; !ok {
			return errors.New("R104").
				WithDetailf("%q is not in defaults", key).
				WithSuggestion("Add \"" + key + "\" to defaults or remove it from filterKeys")
		}
	}

	if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		return errors.New("R105").WithDetail(c.Server.Address).Wrap(err)
	}
	return nil
}

// DebounceInterval returns the parsed debounce interval, or the default if it
// does not parse. Call Validate first to surface bad values.
func (c *Config) DebounceInterval() time.Duration {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultDebounce)
	}
	return d
}

// Fields returns the tracked field names in order.
func (c *Config) Fields() []string {
	keys := make([]string, 0, len(c.Defaults))
	for k := range c.Defaults {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".toml":
		return "toml", nil
	default:
		return "", errors.New("R102").WithDetailf("got %q", filepath.Base(path))
	}
}
