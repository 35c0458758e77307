package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port            string
	Env             string
	LogLevel        string
	LogPretty       bool
	DefaultProvider string
	Credentials     Credentials
	Generation      GenerationConfig
	History         HistoryConfig
	Cache           CacheConfig
}

type GenerationConfig struct {
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	MaxSources       int
	Timeout          time.Duration
}

type HistoryConfig struct {
	Backend     string // memory | postgres | sqlite | s3
	PostgresDSN string
	SQLitePath  string
	S3          S3Config
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type CacheConfig struct {
	Backend       string // memory | redis | none
	Size          int
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Credentials holds API keys by provider id.
type Credentials map[string]string

func (c Credentials) APIKey(providerID string) string {
	return strings.TrimSpace(c[strings.ToLower(strings.TrimSpace(providerID))])
}

// credentialEnv maps provider ids to the variables holding their keys.
var credentialEnv = map[string]string{
	"gemini":     "GEMINI_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"groq":       "GROQ_API_KEY",
}

// New returns a viper instance with every key's default and env binding.
// Callers may bind flags to it before passing it to Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("INFOGRAPHIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8081")
	v.SetDefault("app_env", "local")
	v.SetDefault("log_level", "info")
	v.SetDefault("default_provider", "gemini")
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay", time.Second)
	v.SetDefault("max_sources", 50)
	v.SetDefault("generation_timeout", 5*time.Minute)
	v.SetDefault("history_backend", "memory")
	v.SetDefault("history_sqlite_path", "infographic.db")
	v.SetDefault("history_s3_region", "us-east-1")
	v.SetDefault("history_s3_bucket", "infographic-history")
	v.SetDefault("history_s3_use_ssl", true)
	v.SetDefault("cache_backend", "memory")
	v.SetDefault("cache_size", 256)
	v.SetDefault("cache_ttl", time.Hour)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)

	// Unprefixed names used by docker-compose files and vendor tooling.
	for _, key := range []string{
		"port", "app_env", "log_level", "default_provider",
		"retry_max_attempts", "retry_base_delay", "max_sources", "generation_timeout",
		"history_backend", "history_pg_dsn", "history_sqlite_path",
		"history_s3_endpoint", "history_s3_access_key", "history_s3_secret_key",
		"cache_backend", "redis_addr", "redis_password", "redis_db",
	} {
		_ = v.BindEnv(key, "INFOGRAPHIC_"+strings.ToUpper(key), strings.ToUpper(key))
	}
	for id, env := range credentialEnv {
		_ = v.BindEnv("keys."+id, "INFOGRAPHIC_"+env, env)
	}
	return v
}

// Load reads .env, an optional config file named by INFOGRAPHIC_CONFIG, and
// the environment. A nil v uses New().
func Load(v *viper.Viper) (*Config, error) {
	_ = godotenv.Load()
	if v == nil {
		v = New()
	}
	if path := firstNonEmpty(v.GetString("config"), os.Getenv("INFOGRAPHIC_CONFIG")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	env := strings.TrimSpace(v.GetString("app_env"))
	creds := Credentials{}
	for id := range credentialEnv {
		if key := strings.TrimSpace(v.GetString("keys." + id)); key != "" {
			creds[id] = key
		}
	}

	cfg := &Config{
		Port:            normalizePort(v.GetString("port")),
		Env:             env,
		LogLevel:        v.GetString("log_level"),
		LogPretty:       strings.EqualFold(env, "local"),
		DefaultProvider: strings.ToLower(strings.TrimSpace(v.GetString("default_provider"))),
		Credentials:     creds,
		Generation: GenerationConfig{
			RetryMaxAttempts: v.GetInt("retry_max_attempts"),
			RetryBaseDelay:   v.GetDuration("retry_base_delay"),
			MaxSources:       v.GetInt("max_sources"),
			Timeout:          v.GetDuration("generation_timeout"),
		},
		History: HistoryConfig{
			Backend:     strings.ToLower(strings.TrimSpace(v.GetString("history_backend"))),
			PostgresDSN: firstNonEmpty(v.GetString("history_pg_dsn"), os.Getenv("DATABASE_URL")),
			SQLitePath:  v.GetString("history_sqlite_path"),
			S3: S3Config{
				Endpoint:  strings.TrimSpace(v.GetString("history_s3_endpoint")),
				Region:    v.GetString("history_s3_region"),
				AccessKey: firstNonEmpty(v.GetString("history_s3_access_key"), os.Getenv("MINIO_ROOT_USER")),
				SecretKey: firstNonEmpty(v.GetString("history_s3_secret_key"), os.Getenv("MINIO_ROOT_PASSWORD")),
				Bucket:    v.GetString("history_s3_bucket"),
				UseSSL:    v.GetBool("history_s3_use_ssl"),
			},
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(strings.TrimSpace(v.GetString("cache_backend"))),
			Size:          v.GetInt("cache_size"),
			TTL:           v.GetDuration("cache_ttl"),
			RedisAddr:     v.GetString("redis_addr"),
			RedisPassword: v.GetString("redis_password"),
			RedisDB:       v.GetInt("redis_db"),
		},
	}
	applyLocalDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.History.Backend {
	case "memory", "sqlite":
	case "postgres":
		if c.History.PostgresDSN == "" {
			return fmt.Errorf("history backend postgres needs HISTORY_PG_DSN")
		}
	case "s3":
		if c.History.S3.Endpoint == "" {
			return fmt.Errorf("history backend s3 needs HISTORY_S3_ENDPOINT")
		}
	default:
		return fmt.Errorf("unknown history backend %q", c.History.Backend)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

func normalizePort(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || strings.HasPrefix(p, ":") || strings.Contains(p, ":") {
		return p
	}
	return ":" + p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
