package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Bind           string
	CORSOrigin     string
	LogLevel       zerolog.Level
	StateDir       string
	SnapsetDir     string
	CommandTimeout time.Duration
	MetricsEnabled bool
}

type fileConfig struct {
	HTTP struct {
		Bind string `yaml:"bind"`
	} `yaml:"http"`
	CORS struct {
		Origin string `yaml:"origin"`
	} `yaml:"cors"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	State struct {
		Dir        string `yaml:"dir"`
		SnapsetDir string `yaml:"snapsetDir"`
	} `yaml:"state"`
	LVM struct {
		CommandTimeout string `yaml:"commandTimeout"`
	} `yaml:"lvm"`
	Metrics struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

func defaults() Config {
	return Config{
		Bind:           "127.0.0.1:9600",
		CORSOrigin:     "http://localhost:5173",
		LogLevel:       zerolog.InfoLevel,
		StateDir:       "/var/lib/snaplvd",
		SnapsetDir:     "/etc/snaplvd/snapsets",
		CommandTimeout: 30 * time.Second,
		MetricsEnabled: true,
	}
}

// Load reads the optional YAML config at path, then applies SNAPLVD_* env
// overrides on top of it.
func Load(path string) Config {
	cfg := defaults()

	if b, err := os.ReadFile(path); err == nil {
		var fc fileConfig
		if yaml.Unmarshal(b, &fc) == nil {
			if fc.HTTP.Bind != "" {
				cfg.Bind = fc.HTTP.Bind
			}
			if fc.CORS.Origin != "" {
				cfg.CORSOrigin = fc.CORS.Origin
			}
			if fc.Logging.Level != "" {
				if l, err := zerolog.ParseLevel(fc.Logging.Level); err == nil {
					cfg.LogLevel = l
				}
			}
			if fc.State.Dir != "" {
				cfg.StateDir = fc.State.Dir
			}
			if fc.State.SnapsetDir != "" {
				cfg.SnapsetDir = fc.State.SnapsetDir
			}
			if fc.LVM.CommandTimeout != "" {
				if d, err := time.ParseDuration(fc.LVM.CommandTimeout); err == nil && d > 0 {
					cfg.CommandTimeout = d
				}
			}
			if fc.Metrics.Enabled != nil {
				cfg.MetricsEnabled = *fc.Metrics.Enabled
			}
		}
	}

	if v := os.Getenv("SNAPLVD_BIND"); v != "" {
		cfg.Bind = v
	}
	if v := os.Getenv("SNAPLVD_CORS_ORIGIN"); v != "" {
		cfg.CORSOrigin = v
	}
	if v := os.Getenv("SNAPLVD_LOG"); v != "" {
		if l, err := zerolog.ParseLevel(v); err == nil {
			cfg.LogLevel = l
		}
	}
	if v := os.Getenv("SNAPLVD_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("SNAPLVD_SNAPSET_DIR"); v != "" {
		cfg.SnapsetDir = v
	}
	if v := os.Getenv("SNAPLVD_LVM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CommandTimeout = d
		}
	}
	if v := os.Getenv("SNAPLVD_METRICS"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			cfg.MetricsEnabled = on
		}
	}

	return cfg
}

// FromEnv loads the default config path, overridable via SNAPLVD_CONFIG.
func FromEnv() Config {
	path := "/etc/snaplvd/config.yaml"
	if v := os.Getenv("SNAPLVD_CONFIG"); v != "" {
		path = v
	}
	return Load(path)
}
