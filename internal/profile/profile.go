package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is runtime configuration for the scheduling engine.
type Profile struct {
	// Mode is one of "demo", "dev", "prod".
	Mode string
	// Addr is the bind address for the metrics endpoint.
	Addr string
	// Port is the bind port for the metrics endpoint.
	Port int
	// Driver selects the persistence backend: "sqlite", "redis", "memory".
	Driver string
	// DSN is the sqlite data source name. Derived from Data when empty.
	DSN string
	// RedisAddr is the redis host:port, required when Driver is "redis".
	RedisAddr string
	// Data is the data directory for embedded storage.
	Data string
	// Timezone is the fallback IANA timezone for users without one.
	Timezone string
	// ConfigPath points to an optional engine tunables YAML file.
	ConfigPath string
	// LogTTLDays is the retention for explicit energy logs.
	LogTTLDays int
	// Version is the engine version.
	Version string
}

// DefaultTimezone is used when no timezone is configured anywhere.
const DefaultTimezone = "Asia/Shanghai"

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables. Fields
// already set, by flags or by the embedding application, are kept.
func (p *Profile) FromEnv() {
	if p.Mode == "" {
		p.Mode = getEnvOrDefault("CADENCE_MODE", "demo")
	}
	if p.Addr == "" {
		p.Addr = getEnvOrDefault("CADENCE_ADDR", "")
	}
	if p.Port == 0 {
		p.Port = getEnvOrDefaultInt("CADENCE_PORT", 28480)
	}
	if p.Driver == "" {
		p.Driver = getEnvOrDefault("CADENCE_DRIVER", "sqlite")
	}
	if p.DSN == "" {
		p.DSN = getEnvOrDefault("CADENCE_DSN", "")
	}
	if p.RedisAddr == "" {
		p.RedisAddr = getEnvOrDefault("CADENCE_REDIS_ADDR", "")
	}
	if p.Data == "" {
		p.Data = getEnvOrDefault("CADENCE_DATA", ".")
	}
	if p.Timezone == "" {
		p.Timezone = getEnvOrDefault("CADENCE_TIMEZONE", DefaultTimezone)
	}
	if p.ConfigPath == "" {
		p.ConfigPath = getEnvOrDefault("CADENCE_CONFIG", "")
	}
	if p.LogTTLDays == 0 {
		p.LogTTLDays = getEnvOrDefaultInt("CADENCE_LOG_TTL_DAYS", 90)
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate normalizes the profile and fills derived defaults.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	switch p.Driver {
	case "sqlite", "redis", "memory":
	default:
		slog.Warn("unknown driver, falling back to sqlite", "driver", p.Driver)
		p.Driver = "sqlite"
	}

	if p.Driver == "redis" && p.RedisAddr == "" {
		return errors.New("redis driver requires CADENCE_REDIS_ADDR")
	}

	if p.Driver == "sqlite" {
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
		p.Data = dataDir
		if p.DSN == "" {
			dbFile := fmt.Sprintf("cadence_%s.db", p.Mode)
			p.DSN = filepath.Join(dataDir, dbFile)
		}
	}

	if p.Port <= 0 || p.Port > 65535 {
		p.Port = 28480
	}
	if p.LogTTLDays <= 0 {
		p.LogTTLDays = 90
	}
	if p.Timezone == "" {
		p.Timezone = DefaultTimezone
	}

	return nil
}
