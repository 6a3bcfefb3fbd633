package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"farmstead/internal/domain/farm"
	"farmstead/internal/domain/spatial"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

const (
	DefaultPort            = 8080
	DefaultCollisionRadius = 50.0
)

type Config struct {
	Port            int     `validate:"min=1,max=65535"`
	Store           string  `validate:"oneof=postgres memory"`
	DBDSN           string  `validate:"required_if=Store postgres"`
	Migrate         bool
	GridSize        float64 `validate:"gt=0"`
	CollisionRadius float64 `validate:"gt=0"`
	ClassesFile     string
	AdminKey        string
	LogLevel        string `validate:"oneof=debug info warn warning error"`
	LogFormat       string `validate:"oneof=text json"`
	Environment     string `validate:"required"`
	Version         string

	Classes farm.ClassTable `validate:"-"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Store:       strings.ToLower(getEnv("FARMSTEAD_STORE", StorePostgres)),
		DBDSN:       getEnv("FARMSTEAD_DB_DSN", ""),
		ClassesFile: getEnv("FARMSTEAD_CLASSES_FILE", ""),
		AdminKey:    getEnv("FARMSTEAD_ADMIN_KEY", ""),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", "text")),
		Environment: getEnv("ENVIRONMENT", "dev"),
		Version:     getEnv("FARMSTEAD_VERSION", "dev"),
	}

	var err error
	if cfg.Port, err = intEnv("FARMSTEAD_PORT", DefaultPort); err != nil {
		return nil, err
	}
	if cfg.Migrate, err = boolEnv("FARMSTEAD_MIGRATE", true); err != nil {
		return nil, err
	}
	if cfg.GridSize, err = floatEnv("FARMSTEAD_GRID_SIZE", spatial.DefaultCellSize); err != nil {
		return nil, err
	}
	if cfg.CollisionRadius, err = floatEnv("FARMSTEAD_COLLISION_RADIUS", DefaultCollisionRadius); err != nil {
		return nil, err
	}

	cfg.Classes = farm.DefaultClassTable()
	if cfg.ClassesFile != "" {
		classes, err := LoadClassTable(cfg.ClassesFile)
		if err != nil {
			return nil, err
		}
		cfg.Classes = classes
	}

	if err := validateStruct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func intEnv(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s value %q: must be finite", key, raw)
	}
	return v, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return v, nil
}
