package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AnshRaj112/vitalcoach-backend/internal/revision"
)

type Config struct {
	MongoURI       string
	PostgresURI    string
	RedisURI       string
	StoreBackend   string // "postgres" or "memory"
	Port           string
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	Host           string   // Raw HOST env (e.g. https://api.vitalcoach.app)
	AllowedHost    string   // Hostname only for strict host check (production only)
	Environment    string   // ENV: production, development, etc.
	TrustProxy     bool     // Read client IP from X-Forwarded-For / X-Real-IP

	LLMProvider    string
	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	LLMTemperature float32
	LLMTimeout     time.Duration

	ThreadWindow      int
	PlanDurationWeeks int
	ChatRatePerMinute int

	RevisionMinLength   int
	RevisionIntentWords []string
	RevisionPlanPhrases []string
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	host := getEnv("HOST", "http://localhost:8080")

	// AllowedHost is only set in production; host check is skipped in development
	var allowedHost string
	if env == "production" {
		allowedHost = bareHost(host)
	}

	allowedOrigins := parseList(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	return &Config{
		MongoURI:       getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/vitalcoach")),
		PostgresURI:    getEnv("POSTGRES_URI", "postgres://localhost:5432/vitalcoach?sslmode=disable"),
		RedisURI:       getEnv("REDIS_URI", "redis://localhost:6379/0"),
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", "postgres")),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: allowedOrigins,
		Host:           host,
		AllowedHost:    allowedHost,
		Environment:    env,
		TrustProxy:     getEnvBool("TRUST_PROXY", env == "production"),

		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		LLMAPIKey:      getEnv("LLM_API_KEY", getEnv("OPENROUTER_API_KEY", "")),
		LLMBaseURL:     getEnv("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMModel:       getEnv("LLM_MODEL", "google/gemma-3-27b-it:free"),
		LLMTemperature: float32(getEnvFloat("LLM_TEMPERATURE", 0.7)),
		LLMTimeout:     time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,

		ThreadWindow:      getEnvInt("THREAD_WINDOW", 20),
		PlanDurationWeeks: getEnvInt("PLAN_DURATION_WEEKS", 4),
		ChatRatePerMinute: getEnvInt("CHAT_RATE_PER_MINUTE", 20),

		RevisionMinLength:   getEnvInt("REVISION_MIN_LENGTH", revision.DefaultMinLength),
		RevisionIntentWords: parseList(getEnv("REVISION_INTENT_WORDS", "")),
		RevisionPlanPhrases: parseList(getEnv("REVISION_PLAN_PHRASES", "")),
	}
}

// RevisionPolicy returns the classifier policy, falling back to the default
// vocabularies when no override is configured.
func (c *Config) RevisionPolicy() revision.Policy {
	p := revision.DefaultPolicy()
	if c.RevisionMinLength > 0 {
		p.MinLength = c.RevisionMinLength
	}
	if len(c.RevisionIntentWords) > 0 {
		p.IntentWords = c.RevisionIntentWords
	}
	if len(c.RevisionPlanPhrases) > 0 {
		p.PlanPhrases = c.RevisionPlanPhrases
	}
	return p
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func bareHost(host string) string {
	h := host
	for _, prefix := range []string{"https://", "http://"} {
		h = strings.TrimPrefix(h, prefix)
	}
	if idx := strings.Index(h, "/"); idx != -1 {
		h = h[:idx]
	}
	if idx := strings.Index(h, ":"); idx != -1 {
		h = h[:idx]
	}
	return strings.TrimSpace(h)
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil && v >= 0 {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return defaultValue
}
