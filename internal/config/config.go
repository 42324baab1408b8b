package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fedutinova/mcqgen/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Host   string `validate:"required"`
	Port   int    `validate:"min=1,max=65535"`
	Reload bool

	AllowedOrigins []string `validate:"min=1,dive,required"`

	OpenRouterAPIKey  string
	OpenRouterBaseURL string `validate:"required,url"`
	OpenRouterModel   string `validate:"required"`
	SiteURL           string
	SiteName          string
	UpstreamTimeout   time.Duration `validate:"gt=0"`
	Temperature       float64       `validate:"gte=0,lte=2"`
	MaxTokens         int           `validate:"gt=0"`

	UploadDir       string        `validate:"required"`
	ResultsDir      string        `validate:"required"`
	ResultsURL      string        `validate:"required,startswith=/"`
	MaxUploadSize   int64         `validate:"gt=0"`
	ResultRetention time.Duration `validate:"gt=0"`
	UploadRetention time.Duration `validate:"gt=0"`
	SweepSchedule   string

	GenerateRateLimit int `validate:"gte=0"`
}

// Addr is the listen address built from HOST and PORT.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the loaded values once at startup.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvAllowEmpty is getenv for keys where an explicitly empty value is
// meaningful.
func getenvAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func mustInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
		slog.Warn("bad int env, using default", "key", key, "value", v)
	}
	return def
}

func mustInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
		slog.Warn("bad int env, using default", "key", key, "value", v)
	}
	return def
}

func mustFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
		slog.Warn("bad float env, using default", "key", key, "value", v)
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "true", "1":
			return true
		case "false", "0":
			return false
		}
		slog.Warn("bad bool env, using default", "key", key, "value", v)
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
		slog.Warn("bad duration env, using default", "key", key, "value", v)
	}
	return def
}

func getList(key, def string) []string {
	var out []string
	for _, item := range strings.Split(getenv(key, def), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func loadEnvFiles() {
	envFiles := []string{
		".env.local",
		".env",
	}

	currentDir, err := os.Getwd()
	if err != nil {
		slog.Debug("failed to get current directory", "error", err)
		return
	}

	// look in current directory and up to 3 parent directories
	searchDirs := []string{currentDir}
	for i := 0; i < 3; i++ {
		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			break
		}
		searchDirs = append(searchDirs, parent)
		currentDir = parent
	}

	for _, dir := range searchDirs {
		loaded := false
		for _, envFile := range envFiles {
			envPath := filepath.Join(dir, envFile)
			if _, err := os.Stat(envPath); err != nil {
				continue
			}
			if err := godotenv.Load(envPath); err != nil {
				slog.Debug("failed to load environment file", "path", envPath, "error", err)
				continue
			}
			slog.Debug("loaded environment file", "path", envPath)
			loaded = true
		}
		if loaded {
			return
		}
	}

	slog.Debug("no .env files found, using system environment variables only")
}

func Load() Config {
	loadEnvFiles()
	return Config{
		Host:   getenv("HOST", "0.0.0.0"),
		Port:   mustInt("PORT", 8000),
		Reload: getBool("RELOAD", false),

		AllowedOrigins: getList("ALLOWED_ORIGINS", "*"),

		OpenRouterAPIKey:  getenv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: getenv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:   getenv("OPENROUTER_MODEL", "openai/gpt-4"),
		SiteURL:           getenv("YOUR_SITE_URL", "http://localhost:8000"),
		SiteName:          getenv("YOUR_SITE_NAME", "MCQ Generator"),
		UpstreamTimeout:   mustDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		Temperature:       mustFloat("GENERATION_TEMPERATURE", 0.7),
		MaxTokens:         mustInt("GENERATION_MAX_TOKENS", 2000),

		UploadDir:       getenv("UPLOAD_DIR", "uploads"),
		ResultsDir:      getenv("RESULTS_DIR", "results"),
		ResultsURL:      getenv("RESULTS_URL", "/results"),
		MaxUploadSize:   mustInt64("MAX_UPLOAD_SIZE", validation.MaxFileSize),
		ResultRetention: mustDuration("RESULT_RETENTION", 24*time.Hour),
		UploadRetention: mustDuration("UPLOAD_RETENTION", 24*time.Hour),
		SweepSchedule:   getenvAllowEmpty("SWEEP_SCHEDULE", "@every 1h"),

		GenerateRateLimit: mustInt("GENERATE_RATE_LIMIT", 30),
	}
}
