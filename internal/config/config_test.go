package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/observe/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, DefaultAddr, cfg.Inspector.Addr)
	assert.Equal(t, DefaultEventBuffer, cfg.Inspector.EventBuffer)
	assert.Equal(t, DefaultMaxArrayLength, cfg.Inspector.MaxArrayLength)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, DefaultNamespace, cfg.Metrics.Namespace)
	assert.False(t, cfg.Tracing.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Path())
	assert.Equal(t, DefaultAddr, cfg.Inspector.Addr)
	assert.False(t, Exists(dir))
}

func TestLoadJSON(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{
  "logLevel": "warn",
  "inspector": {"addr": ":9000", "allowOrigins": ["http://a.test"]},
  "metrics": {"enabled": true, "namespace": "app"}
}`), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat, "defaults fill missing fields")
	assert.Equal(t, ":9000", cfg.Inspector.Addr)
	assert.Equal(t, []string{"http://a.test"}, cfg.Inspector.AllowOrigins)
	assert.Equal(t, DefaultEventBuffer, cfg.Inspector.EventBuffer)
	assert.Equal(t, DefaultMaxArrayLength, cfg.Inspector.MaxArrayLength)
	assert.Equal(t, "app", cfg.Metrics.Namespace)
	assert.True(t, Exists(dir))
}

func TestLoadYAML(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, YAMLConfigFileName), []byte(`
logLevel: debug
logFormat: json
inspector:
  readonly: true
  eventBuffer: 10
tracing:
  enabled: true
  tracerName: inspector
`), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.Inspector.Readonly)
	assert.Equal(t, 10, cfg.Inspector.EventBuffer)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "inspector", cfg.Tracing.TracerName)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	assert.True(t, stderrors.Is(err, errors.New("C100")))
	assert.True(t, stderrors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"logLevel": `), 0644))
	_, err = LoadFile(bad)
	assert.True(t, stderrors.Is(err, errors.New("C100")))

	toml := filepath.Join(dir, "observe.toml")
	require.NoError(t, os.WriteFile(toml, []byte(`logLevel = "info"`), 0644))
	_, err = LoadFile(toml)
	assert.True(t, stderrors.Is(err, errors.New("C101")))
}

func TestEnvOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestEffectiveLogLevel(t *testing.T) {
	cfg := New()
	assert.Equal(t, "info", cfg.EffectiveLogLevel())
	cfg.Debug = true
	assert.Equal(t, "debug", cfg.EffectiveLogLevel())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		code   string
	}{
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "C102"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "C103"},
		{"bad addr", func(c *Config) { c.Inspector.Addr = "nohost" }, "C104"},
		{"bad namespace", func(c *Config) { c.Metrics.Namespace = "1-bad" }, "C105"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "gcs" }, "C106"},
		{"file without dir", func(c *Config) { c.Store.Driver = "file" }, "C106"},
		{"redis without addr", func(c *Config) { c.Store.Driver = "redis" }, "C106"},
		{"s3 without bucket", func(c *Config) {
			c.Store.Driver = "s3"
			c.Store.S3.Region = "eu-west-1"
		}, "C106"},
		{"s3 without region", func(c *Config) {
			c.Store.Driver = "s3"
			c.Store.S3.Bucket = "snapshots"
		}, "C106"},
		{"bad ttl", func(c *Config) {
			c.Store.Driver = "redis"
			c.Store.Redis.Addr = "localhost:6379"
			c.Store.Redis.TTL = "soon"
		}, "C106"},
		{"bad snapshot name", func(c *Config) {
			c.Store.Driver = "file"
			c.Store.Dir = "snapshots"
			c.Store.Name = "../escape"
		}, "C106"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.New(tt.code)), "got %v", err)
		})
	}

	cfg := New()
	cfg.Metrics.Enabled = false
	cfg.Metrics.Namespace = "1-bad"
	assert.NoError(t, cfg.Validate(), "namespace is only checked when metrics are enabled")

	cfg = New()
	cfg.Inspector.EventBuffer = -1
	assert.Error(t, cfg.Validate())

	cfg = New()
	cfg.Inspector.MaxArrayLength = -1
	assert.Error(t, cfg.Validate())

	cfg = New()
	cfg.Store.Driver = "redis"
	cfg.Store.Redis.Addr = "localhost:6379"
	cfg.Store.Redis.TTL = "24h"
	assert.NoError(t, cfg.Validate())
}

func TestLoadStoreDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	path := filepath.Join(t.TempDir(), "observe.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: redis
  redis:
    addr: localhost:6379
    prefix: "app:"
`), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, DefaultSnapshot, cfg.Store.Name)
	assert.Equal(t, "app:", cfg.Store.Redis.Prefix)
	assert.NoError(t, cfg.Validate())
}

func TestSaveToRoundTrip(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	dir := t.TempDir()

	for _, name := range []string{"out.json", "out.yaml"} {
		cfg := New()
		cfg.Inspector.Addr = "0.0.0.0:8000"
		cfg.Tracing.Enabled = true
		path := filepath.Join(dir, name)
		require.NoError(t, cfg.SaveTo(path))
		assert.Equal(t, path, cfg.Path())

		loaded, err := LoadFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, "0.0.0.0:8000", loaded.Inspector.Addr, name)
		assert.True(t, loaded.Tracing.Enabled, name)
	}
}
