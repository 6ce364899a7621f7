package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/vango-dev/observe/internal/errors"
	"github.com/vango-dev/observe/internal/logging"
	"github.com/vango-dev/observe/pkg/store"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "observe.json"

	// YAMLConfigFileName is the name of the YAML configuration file.
	YAMLConfigFileName = "observe.yaml"

	// DefaultAddr is the default inspector listen address.
	DefaultAddr = "localhost:7070"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "observe"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "observe"

	// DefaultSnapshot is the default snapshot name.
	DefaultSnapshot = "document"

	// DefaultEventBuffer is the default number of recent events the
	// inspector keeps.
	DefaultEventBuffer = 256

	// DefaultMaxArrayLength is the default limit on array lengths the
	// inspector's writes may produce.
	DefaultMaxArrayLength = 65536

	// EnvLogLevel overrides logLevel when set.
	EnvLogLevel = "OBSERVE_LOG_LEVEL"
)

// configFileNames are tried in order by Load.
var configFileNames = []string{ConfigFileName, YAMLConfigFileName, "observe.yml"}

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config represents the complete observe configuration.
type Config struct {
	// LogLevel is debug, info, warn or error.
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	// LogFormat is text or json.
	LogFormat string `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`

	// Debug logs every track and trigger (forces logLevel to debug).
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty"`

	// Inspector contains inspector HTTP server configuration.
	Inspector InspectorConfig `json:"inspector,omitempty" yaml:"inspector,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`

	// Store contains snapshot persistence configuration.
	Store StoreConfig `json:"store,omitempty" yaml:"store,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// InspectorConfig contains inspector settings.
type InspectorConfig struct {
	// Addr is the host:port to listen on.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// AllowOrigins lists origins allowed to open the event WebSocket.
	// Empty means same-origin only; "*" allows all.
	AllowOrigins []string `json:"allowOrigins,omitempty" yaml:"allowOrigins,omitempty"`

	// Readonly serves the document through a readonly wrapper.
	Readonly bool `json:"readonly,omitempty" yaml:"readonly,omitempty"`

	// EventBuffer is the number of recent events kept for GET /events.
	EventBuffer int `json:"eventBuffer,omitempty" yaml:"eventBuffer,omitempty"`

	// MaxArrayLength is the largest array length a write may produce.
	MaxArrayLength int `json:"maxArrayLength,omitempty" yaml:"maxArrayLength,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled registers the metrics observer and serves /metrics.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled wraps every inspector request in a span.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// TracerName is the name passed to otel.Tracer.
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// StoreConfig contains snapshot persistence settings.
type StoreConfig struct {
	// Driver is "", file, redis or s3. Empty disables snapshots.
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`

	// Name is the snapshot the document is loaded from and saved to.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Dir is the snapshot directory for the file driver.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Redis configures the redis driver.
	Redis RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`

	// S3 configures the s3 driver.
	S3 S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// TTL expires snapshots, e.g. "24h". Empty keeps them forever.
	TTL string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// S3Config contains S3 bucket settings. Credentials are read from the
// standard AWS environment variables.
type S3Config struct {
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint selects an S3-compatible server, e.g. http://localhost:9000.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Inspector: InspectorConfig{
			Addr:           DefaultAddr,
			EventBuffer:    DefaultEventBuffer,
			MaxArrayLength: DefaultMaxArrayLength,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
		Store: StoreConfig{
			Name: DefaultSnapshot,
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// observe.json, then observe.yaml and observe.yml. If none exists the
// defaults are returned.
func Load(dir string) (*Config, error) {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	cfg := New()
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile reads configuration from the specified file path. The format
// follows the extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("C100").WithPath(path).Wrap(err)
	}

	cfg := New()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, errors.New("C101").WithPath(path)
	}
	if err != nil {
		return nil, errors.New("C100").
			WithPath(path).
			Wrap(err).
			WithSuggestion("Check that " + filepath.Base(path) + " is well formed")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	cfg.applyEnv()

	return cfg, nil
}

// SaveTo writes the configuration to path, as YAML for .yaml/.yml and JSON
// otherwise.
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("C100").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C100").WithPath(path).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from, or "" for
// defaults.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in zero values left by a partial file.
func (c *Config) applyDefaults() {
	d := New()
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.Inspector.Addr == "" {
		c.Inspector.Addr = d.Inspector.Addr
	}
	if c.Inspector.EventBuffer == 0 {
		c.Inspector.EventBuffer = d.Inspector.EventBuffer
	}
	if c.Inspector.MaxArrayLength == 0 {
		c.Inspector.MaxArrayLength = d.Inspector.MaxArrayLength
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = d.Tracing.TracerName
	}
	if c.Store.Name == "" {
		c.Store.Name = d.Store.Name
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// EffectiveLogLevel returns the log level to run with: debug when Debug is
// set, otherwise LogLevel.
func (c *Config) EffectiveLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return errors.New("C102").WithPath("logLevel").Wrap(err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return errors.New("C103").WithPath("logFormat")
	}
	if _, _, err := net.SplitHostPort(c.Inspector.Addr); err != nil {
		return errors.New("C104").WithPath("inspector.addr").Wrap(err)
	}
	if c.Inspector.EventBuffer < 0 {
		return errors.Newf(errors.CategoryConfig, "inspector.eventBuffer must not be negative")
	}
	if c.Inspector.MaxArrayLength < 0 {
		return errors.Newf(errors.CategoryConfig, "inspector.maxArrayLength must not be negative")
	}
	if c.Metrics.Enabled && !namespacePattern.MatchString(c.Metrics.Namespace) {
		return errors.New("C105").WithPath("metrics.namespace")
	}
	return c.validateStore()
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case "":
		return nil
	case "file":
		if c.Store.Dir == "" {
			return errors.New("C106").WithPath("store.dir")
		}
	case "redis":
		if _, _, err := net.SplitHostPort(c.Store.Redis.Addr); err != nil {
			return errors.New("C106").WithPath("store.redis.addr").Wrap(err)
		}
		if c.Store.Redis.TTL != "" {
			if _, err := time.ParseDuration(c.Store.Redis.TTL); err != nil {
				return errors.New("C106").WithPath("store.redis.ttl").Wrap(err)
			}
		}
	case "s3":
		if c.Store.S3.Bucket == "" {
			return errors.New("C106").WithPath("store.s3.bucket")
		}
		if c.Store.S3.Region == "" {
			return errors.New("C106").WithPath("store.s3.region")
		}
	default:
		return errors.New("C106").WithPath("store.driver")
	}
	if err := store.ValidateName(c.Store.Name); err != nil {
		return errors.New("C106").WithPath("store.name").Wrap(err)
	}
	return nil
}

// Exists reports whether dir holds a configuration file.
func Exists(dir string) bool {
	for _, name := range configFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
