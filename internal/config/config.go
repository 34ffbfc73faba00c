package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP (optional; empty URL disables the notification event bus and
	// the sweep dispatches pushes inline)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Auth
	JWTSecret string

	// Gemini (optional; empty key degrades the AI endpoints to fallback
	// responses)
	GeminiAPIKey  string
	GeminiModel   string
	GeminiTimeout time.Duration

	// Push delivery
	ExpoPushURL string
	PushTimeout time.Duration

	// Sweep job
	SweepHourUTC       int
	SweepCheckInterval time.Duration

	// Analysis cache
	AnalysisCacheSize int
	AnalysisCacheTTL  time.Duration

	// Upload
	UploadMaxBytes int64
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "3001"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/kuber.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "kuber"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "push_notifications"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTimeout: getEnvDuration("GEMINI_TIMEOUT", 30*time.Second),

		ExpoPushURL: getEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		PushTimeout: getEnvDuration("PUSH_TIMEOUT", 10*time.Second),

		SweepHourUTC:       getEnvInt("SWEEP_HOUR_UTC", 3),
		SweepCheckInterval: getEnvDuration("SWEEP_CHECK_INTERVAL", time.Hour),

		AnalysisCacheSize: getEnvInt("ANALYSIS_CACHE_SIZE", 1000),
		AnalysisCacheTTL:  getEnvDuration("ANALYSIS_CACHE_TTL", 24*time.Hour),

		UploadMaxBytes: int64(getEnvInt("UPLOAD_MAX_BYTES", 10<<20)),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET must be provided")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GeminiAPIKey != "" && c.GeminiModel == "" {
		errors = append(errors, "Gemini model cannot be empty when an API key is provided")
	}

	if c.ExpoPushURL != "" {
		if parsedURL, err := url.Parse(c.ExpoPushURL); err != nil || parsedURL.Scheme == "" {
			errors = append(errors, fmt.Sprintf("invalid Expo push URL '%s'", c.ExpoPushURL))
		}
	}

	if c.SweepHourUTC < 0 || c.SweepHourUTC > 23 {
		errors = append(errors, fmt.Sprintf("invalid sweep hour %d: must be between 0 and 23", c.SweepHourUTC))
	}

	if c.SweepCheckInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid sweep check interval %v: must be at least 1 minute", c.SweepCheckInterval))
	} else if c.SweepCheckInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sweep check interval %v: must be at most 24 hours", c.SweepCheckInterval))
	}

	if c.AnalysisCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid analysis cache size %d: must be at least 1", c.AnalysisCacheSize))
	}
	if c.AnalysisCacheTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid analysis cache TTL %v: must be at least 1 minute", c.AnalysisCacheTTL))
	}

	if c.UploadMaxBytes < 1024 {
		errors = append(errors, fmt.Sprintf("invalid upload limit %d: must be at least 1KB", c.UploadMaxBytes))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
