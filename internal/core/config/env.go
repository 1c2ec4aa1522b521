package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Pattern: FUNLS_[SECTION]_[KEY].
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Workspace.Root, "FUNLS_WORKSPACE_ROOT")
	setEnvBool(&cfg.Search.UseEnvPath, "FUNLS_SEARCH_USE_ENV_PATH")

	setEnvBool(&cfg.Watch.Enabled, "FUNLS_WATCH_ENABLED")
	setEnvDuration(&cfg.Watch.Debounce, "FUNLS_WATCH_DEBOUNCE")

	setEnvInt(&cfg.Scan.Workers, "FUNLS_SCAN_WORKERS")

	setEnvBool(&cfg.DB.Enabled, "FUNLS_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "FUNLS_DB_PATH")
	setEnvDuration(&cfg.DB.BusyTimeout, "FUNLS_DB_BUSY_TIMEOUT")

	setEnvBool(&cfg.Observability.Enabled, "FUNLS_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.Address, "FUNLS_OBSERVABILITY_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "FUNLS_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key)
			*target = d
		}
	}
}
