package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port string

	JWTSecret string

	DBDriver string

	RedisAddr string

	MonstersFile string
	ImageStore   string

	// Claims on OPEN tasks past their booking deadline are refused when set.
	EnforceBookingDeadline bool
	// Responding to an expired PENDING side quest is refused when set.
	EnforceSideQuestExpiry bool

	Debug bool
}

// LoadEnv loads .env if present without overwriting variables that are already set.
func LoadEnv() {
	envMap, err := godotenv.Read()
	if err != nil {
		return
	}
	for k, v := range envMap {
		if os.Getenv(k) == "" {
			os.Setenv(k, v)
		}
	}
}

// Load reads the process configuration from the environment.
func Load() (Config, error) {
	LoadEnv()

	cfg := Config{
		Env:                    strings.ToLower(Getenv("ENV", "development")),
		Port:                   Getenv("PORT", "8080"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		DBDriver:               strings.ToLower(Getenv("DB_DRIVER", "mysql")),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		MonstersFile:           os.Getenv("MONSTERS_FILE"),
		ImageStore:             strings.ToLower(Getenv("IMAGE_STORE", "inline")),
		EnforceBookingDeadline: GetBool("ENFORCE_BOOKING_DEADLINE", false),
		EnforceSideQuestExpiry: GetBool("ENFORCE_SIDE_QUEST_EXPIRY", false),
		Debug:                  GetBool("DEBUG", false),
	}

	required := []string{"JWT_SECRET"}
	switch cfg.DBDriver {
	case "mysql", "postgres":
		required = append(required, "DB_HOST", "DB_USER", "DB_NAME")
	case "sqlite":
		required = append(required, "DB_NAME")
	default:
		return cfg, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	for _, key := range required {
		if os.Getenv(key) == "" {
			return cfg, fmt.Errorf("required environment variable %s is not set", key)
		}
	}
	if cfg.ImageStore != "inline" && cfg.ImageStore != "r2" {
		return cfg, fmt.Errorf("unsupported IMAGE_STORE %q", cfg.ImageStore)
	}
	return cfg, nil
}

func Getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func GetBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

func GetInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}
