package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Env string

const (
	EnvDevelopment Env = "development"
	EnvProduction  Env = "production"
)

const (
	StorageMemory    = "memory"
	StorageSQLite    = "sqlite"
	StorageMySQL     = "mysql"
	StoragePostgres  = "postgres"
	StorageFirestore = "firestore"
)

const (
	LLMMock   = "mock"
	LLMVertex = "vertex"
	LLMOpenAI = "openai"
)

type Config struct {
	Env      Env
	Port     string
	LogLevel string

	StorageBackend string
	SQLitePath     string
	MySQLDSN       string
	DatabaseURL    string

	GCPProjectID string
	GCPLocation  string

	LLMProvider   string
	ModelName     string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	ContextWindow     int
	GenerationTimeout time.Duration
	GenerationRetries int

	RedisURL string

	JWTSecret    string
	CORSOrigins  []string
	MaxBodyBytes int64
}

// New returns a viper instance bound to TRINA_* env vars with defaults set.
// cmd/trina-api binds its flags on top of it.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("TRINA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", string(EnvDevelopment))
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")

	v.SetDefault("storage_backend", StorageMemory)
	v.SetDefault("sqlite_path", "./data/trina.db")
	v.SetDefault("mysql_dsn", "")
	v.SetDefault("database_url", "")

	v.SetDefault("gcp_project", "")
	v.SetDefault("gcp_location", "us-central1")

	v.SetDefault("llm_provider", LLMMock)
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("openai_model", "gpt-4o-mini")

	v.SetDefault("context_window", 10)
	v.SetDefault("generation_timeout", "60s")
	v.SetDefault("generation_retries", 0)

	v.SetDefault("redis_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("max_body_bytes", 64*1024)

	return v
}

// Load reads .env (if present) and the environment, and validates the result.
func Load() (*Config, error) {
	return LoadFrom(New())
}

// LoadFrom is Load for a viper instance that already has flags bound.
func LoadFrom(v *viper.Viper) (*Config, error) {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()
	return FromViper(v)
}

// FromViper builds a Config out of an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:      Env(strings.ToLower(v.GetString("env"))),
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log_level"),

		StorageBackend: strings.ToLower(v.GetString("storage_backend")),
		SQLitePath:     v.GetString("sqlite_path"),
		MySQLDSN:       v.GetString("mysql_dsn"),
		DatabaseURL:    v.GetString("database_url"),

		GCPProjectID: v.GetString("gcp_project"),
		GCPLocation:  v.GetString("gcp_location"),

		LLMProvider:   strings.ToLower(v.GetString("llm_provider")),
		ModelName:     v.GetString("model_name"),
		OpenAIAPIKey:  v.GetString("openai_api_key"),
		OpenAIBaseURL: v.GetString("openai_base_url"),
		OpenAIModel:   v.GetString("openai_model"),

		ContextWindow:     v.GetInt("context_window"),
		GenerationTimeout: v.GetDuration("generation_timeout"),
		GenerationRetries: v.GetInt("generation_retries"),

		RedisURL:     v.GetString("redis_url"),
		JWTSecret:    v.GetString("jwt_secret"),
		CORSOrigins:  splitList(v.GetString("cors_origins")),
		MaxBodyBytes: v.GetInt64("max_body_bytes"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the backend specific requirements.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("TRINA_SQLITE_PATH is required for sqlite storage")
		}
	case StorageMySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("TRINA_MYSQL_DSN is required for mysql storage")
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("TRINA_DATABASE_URL is required for postgres storage")
		}
	case StorageFirestore:
		if c.GCPProjectID == "" {
			return fmt.Errorf("TRINA_GCP_PROJECT is required for firestore storage")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	switch c.LLMProvider {
	case LLMMock:
	case LLMVertex:
		if c.GCPProjectID == "" || c.GCPLocation == "" {
			return fmt.Errorf("TRINA_GCP_PROJECT and TRINA_GCP_LOCATION must be set for vertex")
		}
	case LLMOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("TRINA_OPENAI_API_KEY is required for openai")
		}
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLMProvider)
	}

	if c.GenerationRetries < 0 {
		return fmt.Errorf("TRINA_GENERATION_RETRIES must be >= 0")
	}
	if c.Env == EnvProduction && c.StorageBackend == StorageMemory {
		return fmt.Errorf("memory storage is not allowed in production")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func splitList(s string) []string {
	var out []string
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}
