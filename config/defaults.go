package config

import (
	"strings"

	"github.com/andreyvit/trexio"
)

// ApplyDefaults sets default values for any unspecified configuration fields
// and normalizes the ones with several accepted spellings.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyContainerDefaults(&cfg.Container)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyContainerDefaults(cfg *ContainerConfig) {
	if cfg.Backend == "" {
		cfg.Backend = trexio.BackendBinary.String()
	}
	// accept the aliases ParseBackend accepts
	if b, err := trexio.ParseBackend(cfg.Backend); err == nil {
		cfg.Backend = b.String()
	}
	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = trexio.DefaultLockTimeout
	}

	if cfg.Binary == nil {
		cfg.Binary = make(map[string]any)
	}
	if cfg.Text == nil {
		cfg.Text = make(map[string]any)
	}
}
