package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderVertex     = "vertex"
	ProviderMock       = "mock"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"3000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	LLMProvider      string        `env:"LLM_PROVIDER" envDefault:"openrouter"`
	OpenRouterAPIKey string        `env:"OPENROUTER_API_KEY"`
	OpenRouterURL    string        `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	OpenRouterModel  string        `env:"OPENROUTER_MODEL" envDefault:"arcee-ai/trinity-large-preview:free"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	LLMMaxRetries    int           `env:"LLM_MAX_RETRIES" envDefault:"3"`
	LLMTemperature   float64       `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	LLMMaxTokens     int           `env:"LLM_MAX_TOKENS" envDefault:"2048"`
	VertexProjectID  string        `env:"VERTEX_PROJECT_ID"`
	VertexLocation   string        `env:"VERTEX_LOCATION" envDefault:"us-central1"`
	VertexModel      string        `env:"VERTEX_MODEL" envDefault:"gemini-1.5-flash"`

	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`

	CORSOrigin    string        `env:"CORS_ORIGIN" envDefault:"http://localhost:4200"`
	ThrottleTTL   time.Duration `env:"THROTTLE_TTL" envDefault:"60s"`
	ThrottleLimit int           `env:"THROTTLE_LIMIT" envDefault:"30"`

	JWTSecret   string `env:"JWT_SECRET"`
	JWTIssuer   string `env:"JWT_ISSUER"`
	JWTAudience string `env:"JWT_AUDIENCE"`

	RedisURL       string        `env:"REDIS_URL"`
	ReportCacheTTL time.Duration `env:"REPORT_CACHE_TTL" envDefault:"24h"`
	PostgresURI    string        `env:"POSTGRES_URI"`
	MongoURI       string        `env:"MONGO_URI"`
	MongoDB        string        `env:"MONGO_DB" envDefault:"yoointerview"`
	GCSBucket      string        `env:"GCS_BUCKET"`
	ArchiveWorkers int           `env:"ARCHIVE_WORKERS" envDefault:"2"`

	GoogleCredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE"`
	STTEnabled            bool   `env:"STT_ENABLED" envDefault:"false"`
	STTLanguageFallback   string `env:"STT_LANGUAGE_FALLBACK" envDefault:"en-US"`
}

// Load reads the environment. Call godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.LLMProvider {
	case ProviderOpenRouter:
		if c.OpenRouterAPIKey == "" {
			errs = append(errs, errors.New("OPENROUTER_API_KEY is required when LLM_PROVIDER=openrouter"))
		}
	case ProviderVertex:
		if c.VertexProjectID == "" {
			errs = append(errs, errors.New("VERTEX_PROJECT_ID is required when LLM_PROVIDER=vertex"))
		}
	case ProviderMock:
		if c.IsProduction() {
			errs = append(errs, errors.New("LLM_PROVIDER=mock is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be one of openrouter, vertex, mock (got %q)", c.LLMProvider))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, errors.New("LLM_TIMEOUT must be positive"))
	}
	if c.LLMMaxRetries < 0 {
		errs = append(errs, errors.New("LLM_MAX_RETRIES must not be negative"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.ThrottleLimit <= 0 || c.ThrottleTTL <= 0 {
		errs = append(errs, errors.New("THROTTLE_LIMIT and THROTTLE_TTL must be positive"))
	}
	if c.GCSBucket != "" && c.GoogleCredentialsFile == "" && c.IsProduction() {
		errs = append(errs, errors.New("GOOGLE_CREDENTIALS_FILE is required for GCS_BUCKET in production"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

func (c *Config) AuthEnabled() bool { return c.JWTSecret != "" }
