package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string
	GeoIPDBPath string

	// Object storage (Supabase storage API).
	SupabaseURL        string
	SupabaseServiceKey string
	TempBucket         string
	TemplateBucket     string
	// TemplateBaseURL is the public base of the read-only templates bucket,
	// used to resolve relative asset paths when no request origin is known.
	TemplateBaseURL string

	// External image-generation provider.
	ImageGenBaseURL string
	ImageGenAPIKey  string

	// Request limits.
	MaxAssetBytes      int64
	PromptMaxChars     int
	PromptCeilingChars int

	DefaultLanguage    string
	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
		TempBucket:         getEnv("STORAGE_TEMP_BUCKET", "generation-temp"),
		TemplateBucket:     getEnv("STORAGE_TEMPLATE_BUCKET", "poster-templates"),
		TemplateBaseURL:    os.Getenv("TEMPLATE_BASE_URL"),

		ImageGenBaseURL: getEnv("IMAGEGEN_BASE_URL", "https://api.imagegen.example.com/v1"),
		ImageGenAPIKey:  os.Getenv("IMAGEGEN_API_KEY"),

		MaxAssetBytes:      int64(getEnvInt("MAX_ASSET_MB", 10)) * 1024 * 1024,
		PromptMaxChars:     getEnvInt("PROMPT_MAX_CHARS", 2000),
		PromptCeilingChars: getEnvInt("PROMPT_CEILING_CHARS", 4500),

		DefaultLanguage:    getEnv("DEFAULT_LANGUAGE", "fr"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// The templates bucket is public; without an explicit override its base
	// URL follows from the Supabase public-object endpoint.
	if cfg.TemplateBaseURL == "" && cfg.SupabaseURL != "" {
		cfg.TemplateBaseURL = strings.TrimRight(cfg.SupabaseURL, "/") + "/storage/v1/object/public/" + cfg.TemplateBucket
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
