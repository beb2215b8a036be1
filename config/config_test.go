package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andreyvit/trexio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trexio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func applyOptions(opts []trexio.Option) trexio.Options {
	var o trexio.Options
	for _, f := range opts {
		f(&o)
	}
	return o
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.False(t, cfg.Logging.Verbose)
	assert.Equal(t, "binary", cfg.Container.Backend)
	assert.Equal(t, trexio.DefaultLockTimeout, cfg.Container.LockTimeout)
	assert.Equal(t, trexio.BackendBinary, cfg.BackendKind())
	assert.NotNil(t, cfg.Container.Binary)
	assert.NotNil(t, cfg.Container.Text)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
  verbose: true
container:
  backend: txt
  lock_timeout: 2s
  text:
    no_sync: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Logging.Verbose)
	assert.Equal(t, "text", cfg.Container.Backend)
	assert.Equal(t, 2*time.Second, cfg.Container.LockTimeout)

	opts, err := cfg.Options(nil)
	require.NoError(t, err)
	o := applyOptions(opts)
	assert.True(t, o.Verbose)
	assert.True(t, o.NoSync)
	assert.Equal(t, 2*time.Second, o.LockTimeout)
	assert.Zero(t, o.CompressThreshold)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "container:\n  backend: text\n")
	t.Setenv("TREXIO_CONTAINER_BACKEND", "binary")
	t.Setenv("TREXIO_LOGGING_LEVEL", "warn")
	t.Setenv("TREXIO_CONTAINER_NO_SYNC", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "binary", cfg.Container.Backend)
	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.True(t, cfg.Container.NoSync)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"bad level", "logging:\n  level: loud\n", "Level"},
		{"bad format", "logging:\n  format: xml\n", "Format"},
		{"bad backend", "container:\n  backend: hdf5\n", "Backend"},
		{"negative timeout", "container:\n  lock_timeout: -1s\n", "LockTimeout"},
		{"section for other backend", "container:\n  backend: binary\n  text:\n    no_sync: true\n", "container.text"},
		{"malformed yaml", "container: [\n", "failed to read config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestOptions_BinarySection(t *testing.T) {
	cfg, err := Load(writeConfig(t, "container:\n  binary:\n    compress_threshold: 1024\n"))
	require.NoError(t, err)
	o := applyOptions(must(cfg.Options(nil)))
	assert.Equal(t, 1024, o.CompressThreshold)

	cfg.Container.Binary = map[string]any{"compress_threshold": "-1"}
	o = applyOptions(must(cfg.Options(nil)))
	assert.Equal(t, -1, o.CompressThreshold)

	cfg.Container.Binary = map[string]any{"compression": "zstd"}
	_, err = cfg.Options(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "container.binary")
}

func TestApplyDefaults_Aliases(t *testing.T) {
	cfg := &Config{Container: ContainerConfig{Backend: "BOLT"}}
	ApplyDefaults(cfg)
	assert.Equal(t, "binary", cfg.Container.Backend)
	require.NoError(t, Validate(cfg))

	cfg = &Config{Container: ContainerConfig{Backend: "hdf5"}}
	ApplyDefaults(cfg)
	assert.Equal(t, "hdf5", cfg.Container.Backend)
	assert.Error(t, Validate(cfg))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggingConfig{Level: "WARN", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "path", "x.trexio")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "x.trexio", rec["path"])

	buf.Reset()
	NewLogger(LoggingConfig{Level: "DEBUG", Format: "text"}, &buf).Debug("hello")
	assert.Contains(t, buf.String(), "level=DEBUG msg=hello")
}

func TestOpenOutput(t *testing.T) {
	out, err := OpenOutput(LoggingConfig{Output: "STDERR"})
	require.NoError(t, err)
	assert.NoError(t, out.Close())

	path := filepath.Join(t.TempDir(), "trexio.log")
	out, err = OpenOutput(LoggingConfig{Output: path})
	require.NoError(t, err)
	NewLogger(LoggingConfig{Level: "INFO", Format: "text"}, out).Info("written")
	require.NoError(t, out.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=written")

	_, err = OpenOutput(LoggingConfig{Output: filepath.Join(t.TempDir(), "no", "such", "dir.log")})
	assert.Error(t, err)
}

func TestWithBackendFromConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, "container:\n  backend: text\n  no_sync: true\n"))
	require.NoError(t, err)
	opts, err := cfg.Options(NewLogger(cfg.Logging, &bytes.Buffer{}))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "h2o.dir")
	err = trexio.With(path, trexio.ModeWrite, cfg.BackendKind(), func(f *trexio.File) error {
		return trexio.WriteInt(f, trexio.NucleusNum, 3)
	}, opts...)
	require.NoError(t, err)

	err = trexio.With(path, trexio.ModeRead, cfg.BackendKind(), func(f *trexio.File) error {
		n, err := trexio.ReadInt(f, trexio.NucleusNum)
		assert.Equal(t, int64(3), n)
		return err
	}, opts...)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(path, "nucleus.yaml"))
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
