// Package config loads trexio settings from a YAML file and TREXIO_*
// environment variables and turns them into trexio options.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/andreyvit/trexio"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config represents the complete trexio configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (TREXIO_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Container ContainerConfig `mapstructure:"container"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	// Level is the minimum log level: DEBUG, INFO, WARN or ERROR
	// (case-insensitive, normalized to uppercase).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format is text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Output is stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required"`

	// Verbose logs every open, write, flush and close at DEBUG level.
	Verbose bool `mapstructure:"verbose"`
}

// ContainerConfig selects the backend and its settings.
//
// Only the section matching Backend is used.
type ContainerConfig struct {
	// Backend is binary or text.
	Backend string `mapstructure:"backend" validate:"required,oneof=binary text"`

	// LockTimeout bounds how long Open waits for a conflicting handle.
	LockTimeout time.Duration `mapstructure:"lock_timeout" validate:"gt=0"`

	// NoSync skips fsync on flush.
	NoSync bool `mapstructure:"no_sync"`

	// Binary holds BinaryConfig settings.
	Binary map[string]any `mapstructure:"binary"`

	// Text holds TextConfig settings.
	Text map[string]any `mapstructure:"text"`
}

// BinaryConfig is decoded from the container.binary section.
type BinaryConfig struct {
	// CompressThreshold is the payload size from which values are
	// compressed; negative disables compression.
	CompressThreshold int `mapstructure:"compress_threshold"`
}

// TextConfig is decoded from the container.text section.
type TextConfig struct {
	// NoSync overrides container.no_sync for text containers.
	NoSync *bool `mapstructure:"no_sync"`
}

// Load loads configuration from file, environment, and defaults. A missing
// config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// setupViper registers defaults so that every key can be overridden from the
// environment, e.g. TREXIO_CONTAINER_BACKEND=text.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("TREXIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.verbose", false)
	v.SetDefault("container.backend", trexio.BackendBinary.String())
	v.SetDefault("container.lock_timeout", trexio.DefaultLockTimeout)
	v.SetDefault("container.no_sync", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("trexio")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper, configPath string) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	return nil
}

// BackendKind returns the configured backend. Call it on a validated Config.
func (cfg *Config) BackendKind() trexio.Backend {
	b, err := trexio.ParseBackend(cfg.Container.Backend)
	if err != nil {
		panic(err)
	}
	return b
}

// Options converts the configuration into options for trexio.Open. The
// logger is used as is; see NewLogger.
func (cfg *Config) Options(logger *slog.Logger) ([]trexio.Option, error) {
	opts := []trexio.Option{
		trexio.WithLogger(logger),
		trexio.WithVerbose(cfg.Logging.Verbose),
		trexio.WithLockTimeout(cfg.Container.LockTimeout),
		trexio.WithNoSync(cfg.Container.NoSync),
	}

	switch cfg.BackendKind() {
	case trexio.BackendBinary:
		var bc BinaryConfig
		if err := decodeSection("container.binary", cfg.Container.Binary, &bc); err != nil {
			return nil, err
		}
		if bc.CompressThreshold != 0 {
			opts = append(opts, trexio.WithCompressThreshold(bc.CompressThreshold))
		}
	case trexio.BackendText:
		var tc TextConfig
		if err := decodeSection("container.text", cfg.Container.Text, &tc); err != nil {
			return nil, err
		}
		if tc.NoSync != nil {
			opts = append(opts, trexio.WithNoSync(*tc.NoSync))
		}
	}
	return opts, nil
}

// decodeSection decodes a backend-specific section, rejecting unknown keys.
// Values from the environment arrive as strings and are converted.
func decodeSection(name string, section map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(section); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

// NewLogger builds a slog logger writing to w in the configured format.
func NewLogger(cfg LoggingConfig, w io.Writer) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// OpenOutput opens the configured log destination. Closing stdout or stderr
// is a no-op.
func OpenOutput(cfg LoggingConfig) (io.WriteCloser, error) {
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		return nopCloser{os.Stdout}, nil
	case "stderr":
		return nopCloser{os.Stderr}, nil
	}
	f, err := os.OpenFile(cfg.Output, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log output: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
