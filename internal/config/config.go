package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Logger       LoggerConfig
	Freshdesk    FreshdeskConfig
	OpenAI       OpenAIConfig
	Policy       PolicyConfig
	Knowledge    KnowledgeConfig
	Redis        RedisConfig
	Idempotency  IdempotencyConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// FreshdeskConfig holds ticketing system connection values.
type FreshdeskConfig struct {
	Domain string
	APIKey string
}

// OpenAIConfig holds model-service connection values.
type OpenAIConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	TimeoutSeconds int
	MaxTokens      int64
	ReplyLanguage  string
}

// PolicyConfig drives the action gate.
type PolicyConfig struct {
	AutoReplyEnabled    bool
	ConfidenceThreshold float64
	SafeIntents         []string
	SensitiveIntents    []string
	EscalationAssignee  int64
}

// KnowledgeConfig locates reference material and bounds lookups.
type KnowledgeConfig struct {
	CSVPaths           []string
	DocPaths           []string
	ByteBudget         int
	CompulsoryKeywords []string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// IdempotencyConfig bounds the webhook deduplication window.
type IdempotencyConfig struct {
	TTLSeconds int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-autopilot"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Freshdesk: FreshdeskConfig{
			Domain: os.Getenv("FRESHDESK_DOMAIN"),
			APIKey: os.Getenv("FRESHDESK_API_KEY"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         os.Getenv("OPENAI_API_KEY"),
			Model:          getEnv("OPENAI_MODEL", "gpt-4"),
			BaseURL:        os.Getenv("OPENAI_BASE_URL"),
			TimeoutSeconds: getEnvAsInt("OPENAI_TIMEOUT_SECONDS", 30),
			MaxTokens:      int64(getEnvAsInt("OPENAI_MAX_TOKENS", 600)),
			ReplyLanguage:  getEnv("REPLY_LANGUAGE", "English"),
		},
		Policy: PolicyConfig{
			AutoReplyEnabled:    getEnvAsBool("AUTO_REPLY_ENABLED", false),
			ConfidenceThreshold: getEnvAsFloat("AUTO_REPLY_CONFIDENCE_THRESHOLD", 0.95),
			SafeIntents:         getEnvAsList("SAFE_INTENTS", []string{"GENERAL", "COURSE_INQUIRY"}),
			SensitiveIntents:    getEnvAsList("SENSITIVE_INTENTS", []string{"BILLING", "PAYMENT", "REFUND"}),
			EscalationAssignee:  int64(getEnvAsInt("ESCALATION_ASSIGNEE_ID", 0)),
		},
		Knowledge: KnowledgeConfig{
			CSVPaths:           getEnvAsList("KNOWLEDGE_CSV_PATHS", nil),
			DocPaths:           getEnvAsList("KNOWLEDGE_DOC_PATHS", nil),
			ByteBudget:         getEnvAsInt("KNOWLEDGE_BYTE_BUDGET", 4000),
			CompulsoryKeywords: getEnvAsList("COMPULSORY_KEYWORDS", []string{"fee", "certificate", "link"}),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Idempotency: IdempotencyConfig{
			TTLSeconds: getEnvAsInt("IDEMPOTENCY_TTL_SECONDS", 300),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", ""),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// MissingCredentials lists required credentials that are absent. Startup logs
// these as warnings rather than refusing to boot, so the health endpoint
// stays reachable.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if strings.TrimSpace(c.Freshdesk.Domain) == "" {
		missing = append(missing, "FRESHDESK_DOMAIN")
	}
	if strings.TrimSpace(c.Freshdesk.APIKey) == "" {
		missing = append(missing, "FRESHDESK_API_KEY")
	}
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	return missing
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the model call timeout duration.
func (o OpenAIConfig) Timeout() time.Duration {
	if o.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// TTL returns the deduplication window duration.
func (i IdempotencyConfig) TTL() time.Duration {
	if i.TTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(i.TTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
