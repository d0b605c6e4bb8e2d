package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/authkit/authkit/internal/hash"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string
	BcryptCost int
	AppBaseURL string
	GinMode    string
	Port       string
}

// Load reads configuration from the environment. The JWT secret has no
// default: a process without one must not start.
func Load() (*Config, error) {
	jwtSecret := os.Getenv("AUTH_JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET is not set")
	}

	cost := hash.DefaultCost
	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid BCRYPT_COST %q: %w", raw, err)
		}
		cost = parsed
	}

	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "authkit"),
		DBPassword: getEnv("DB_PASSWORD", "authkit"),
		DBName:     getEnv("DB_NAME", "authkit"),
		JWTSecret:  jwtSecret,
		BcryptCost: cost,
		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:3000"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		Port:       getEnv("PORT", "8080"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
