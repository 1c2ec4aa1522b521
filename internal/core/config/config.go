package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version       int           `toml:"version"`
	Workspace     Workspace     `toml:"workspace"`
	Search        Search        `toml:"search"`
	Exclude       Exclude       `toml:"exclude"`
	Watch         Watch         `toml:"watch"`
	Scan          Scan          `toml:"scan"`
	Server        Server        `toml:"server"`
	DB            Database      `toml:"db"`
	Observability Observability `toml:"observability"`
}

type Workspace struct {
	Root string `toml:"root"`
}

type Search struct {
	// ExtraPaths are additional search roots; ~ expands against the user
	// home, relative entries resolve against the workspace root.
	ExtraPaths []string `toml:"extra_paths"`
	// UseEnvPath toggles consulting the FUNPATH environment variable.
	UseEnvPath bool `toml:"use_env_path"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
}

type Scan struct {
	Workers int `toml:"workers"`
}

type Server struct {
	RateLimit RateLimit `toml:"rate_limit"`
}

type RateLimit struct {
	Enabled           bool `toml:"enabled"`
	RequestsPerMinute int  `toml:"requests_per_minute"`
	Burst             int  `toml:"burst"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Observability struct {
	Enabled      bool   `toml:"enabled"`
	Address      string `toml:"address"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	ApplyEnvOverrides(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", "node_modules", "__pycache__", "build", "dist"}
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}

	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = 8
	}

	if cfg.Server.RateLimit.Enabled {
		if cfg.Server.RateLimit.RequestsPerMinute <= 0 {
			cfg.Server.RateLimit.RequestsPerMinute = 600
		}
		if cfg.Server.RateLimit.Burst <= 0 {
			cfg.Server.RateLimit.Burst = 20
		}
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "funls.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.Observability.Address) == "" {
		cfg.Observability.Address = "127.0.0.1:9620"
	}
}

func validate(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}

	for i, p := range cfg.Search.ExtraPaths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("search.extra_paths[%d] must not be empty", i)
		}
	}

	if cfg.Watch.Enabled && cfg.Watch.Debounce < 10*time.Millisecond {
		return fmt.Errorf("watch.debounce must be at least 10ms, got %v", cfg.Watch.Debounce)
	}

	if cfg.DB.Enabled && strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty")
	}

	if cfg.Observability.Enabled && strings.TrimSpace(cfg.Observability.Address) == "" {
		return fmt.Errorf("observability.address must not be empty")
	}

	return nil
}
