package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	MongoURI string
	DBName   string

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	AnalyticsCacheTTL time.Duration

	LogMode string
	LogFile string

	// AdminEmail and AdminPassword, when both set, bootstrap an admin
	// account at startup.
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// LoadEnv loads a .env file when present. A missing file is not an error;
// the process environment always wins over file values.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func GetEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// Load assembles the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              GetEnv("PORT", "8080"),
		GinMode:           GetEnv("GIN_MODE", "release"),
		CORSOrigins:       splitList(GetEnv("CORS_ORIGINS", "http://localhost:3000")),
		MongoURI:          GetEnv("MONGO_URI", ""),
		DBName:            GetEnv("DB_NAME", ""),
		JWTSecret:         GetEnv("JWT_SECRET", ""),
		JWTTTL:            cast.ToDuration(GetEnv("JWT_TTL", "24h")),
		RedisAddr:         GetEnv("REDIS_ADDR", ""),
		RedisPassword:     GetEnv("REDIS_PASSWORD", ""),
		RedisDB:           cast.ToInt(GetEnv("REDIS_DB", "0")),
		AnalyticsCacheTTL: cast.ToDuration(GetEnv("ANALYTICS_CACHE_TTL", "5m")),
		LogMode:           GetEnv("LOG_MODE", "production"),
		LogFile:           GetEnv("LOG_FILE", ""),
		AdminName:         GetEnv("ADMIN_NAME", "Administrator"),
		AdminEmail:        GetEnv("ADMIN_EMAIL", ""),
		AdminPassword:     GetEnv("ADMIN_PASSWORD", ""),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MongoURI == "" || c.DBName == "" {
		return errors.New("MONGO_URI and DB_NAME are required")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be a positive duration")
	}
	if c.AnalyticsCacheTTL <= 0 {
		return errors.New("ANALYTICS_CACHE_TTL must be a positive duration")
	}
	if c.AdminEmail != "" && len(c.AdminPassword) < 8 {
		return errors.New("ADMIN_PASSWORD must be at least 8 characters when ADMIN_EMAIL is set")
	}
	switch c.LogMode {
	case "production", "development":
	default:
		return fmt.Errorf("invalid LOG_MODE %q (must be production or development)", c.LogMode)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
