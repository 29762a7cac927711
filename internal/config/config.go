package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseURL    string
	DBDriver       string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RatesFile      string
	RateTTL        time.Duration
	AuthSecret     string
	TokenTTL       time.Duration
	LogLevel       string
	ReportSchedule string
	ReportDir      string
	Timezone       string
	AllowedOrigin  string
}

// Load reads the environment, after applying an optional .env file from the working directory
func Load() Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	rateTTL, err := strconv.Atoi(getEnv("RATE_TTL_HOURS", "24"))
	if err != nil || rateTTL < 1 {
		rateTTL = 24
	}
	tokenTTL, err := strconv.Atoi(getEnv("TOKEN_TTL_HOURS", "12"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 12
	}

	return Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBDriver:       getEnv("DB_DRIVER", "pgx"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,
		RatesFile:      getEnv("RATES_FILE", "rates.yaml"),
		RateTTL:        time.Duration(rateTTL) * time.Hour,
		AuthSecret:     strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		TokenTTL:       time.Duration(tokenTTL) * time.Hour,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ReportSchedule: getEnv("REPORT_SCHEDULE", "0 8 * * MON"),
		ReportDir:      getEnv("REPORT_DIR", "reports"),
		Timezone:       getEnv("TIMEZONE", "Europe/Istanbul"),
		AllowedOrigin:  os.Getenv("CORS_ORIGIN"),
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location resolves Timezone, falling back to UTC
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AuthEnabled reports whether API requests must carry a bearer token
func (c Config) AuthEnabled() bool {
	return c.AuthSecret != ""
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
