package bootstrap

import (
	"fmt"
	"os"
	"strconv"

	"github.com/eleven-am/mohami/internal/gemini"
	"github.com/eleven-am/mohami/internal/resource"
	"github.com/eleven-am/mohami/internal/voicesession"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GeminiBaseURL  string
	LiveModel      string
	OCRModel       string
	Voice          string
	UploadMaxBytes int64

	RateLimitRPS   float64
	RateLimitBurst int

	StaticDir string
	IndexHTML string
}

var envFiles = []string{".env", "../.env"}

func LoadConfig() *Config {
	loadEnvFiles(envFiles)

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		DatabaseDSN: getEnv("DATABASE_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GeminiBaseURL:  getEnv("GEMINI_BASE_URL", ""),
		LiveModel:      getEnv("GEMINI_LIVE_MODEL", voicesession.DefaultModel),
		OCRModel:       getEnv("GEMINI_OCR_MODEL", gemini.DefaultOCRModel),
		Voice:          getEnv("GEMINI_VOICE", voicesession.DefaultVoice),
		UploadMaxBytes: int64(getEnvInt("UPLOAD_MAX_BYTES", resource.DefaultMaxUploadBytes)),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 5),

		StaticDir: getEnv("STATIC_DIR", "./static"),
		IndexHTML: getEnv("INDEX_HTML", "./static/index.html"),
	}
}

// loadEnvFiles applies the first files found over the process environment.
func loadEnvFiles(paths []string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
