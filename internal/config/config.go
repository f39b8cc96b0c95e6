package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	AI        AIConfig        `mapstructure:"ai"`
	Audio     AudioConfig     `mapstructure:"audio"`
	Minio     MinioConfig     `mapstructure:"minio"`
	Log       LogConfig       `mapstructure:"log"`
	Parent    ParentConfig    `mapstructure:"parent"`
	Email     EmailConfig     `mapstructure:"email"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorageConfig selects the persistence backend for the store.
// Backend is one of memory, file, sqlite, postgres, mysql, redis.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	URL     string `mapstructure:"url"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type AIConfig struct {
	Provider        string        `mapstructure:"provider"`
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	TextModel       string        `mapstructure:"text_model"`
	SpeechModel     string        `mapstructure:"speech_model"`
	Voice           string        `mapstructure:"voice"`
	SampleRate      int           `mapstructure:"sample_rate"`
	Timeout         time.Duration `mapstructure:"timeout"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

type AudioConfig struct {
	Cache    string `mapstructure:"cache"`
	CacheDir string `mapstructure:"cache_dir"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// ParentConfig guards parent-only actions. An empty PinHash leaves them open.
type ParentConfig struct {
	PinHash       string        `mapstructure:"pin_hash"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenDuration time.Duration `mapstructure:"token_duration"`
}

type EmailConfig struct {
	Region   string `mapstructure:"region"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
	To       string `mapstructure:"to"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", "./vocabhero.db")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.prefix", "vocabhero:")
	v.SetDefault("redis.db", 0)

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.text_model", "gemini-3-flash-preview")
	v.SetDefault("ai.speech_model", "gemini-2.5-flash-preview-tts")
	v.SetDefault("ai.voice", "Kore")
	v.SetDefault("ai.sample_rate", 24000)
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.breaker_failures", 5)
	v.SetDefault("ai.breaker_timeout", 30*time.Second)

	v.SetDefault("audio.cache", "disk")
	v.SetDefault("audio.cache_dir", "./data/audio")
	v.SetDefault("minio.bucket", "vocabhero-audio")
	v.SetDefault("minio.use_ssl", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/vocabhero.log")

	v.SetDefault("parent.token_duration", 12*time.Hour)

	v.SetDefault("email.region", "eu-west-2")
	v.SetDefault("email.from_name", "Vocab Hero")

	v.SetDefault("rate_limit.requests", 30)
	v.SetDefault("rate_limit.window", time.Minute)

	// Registered so that Unmarshal sees them when only set in the environment
	for _, key := range []string{
		"storage.url", "redis.password", "ai.api_key", "ai.base_url",
		"minio.endpoint", "minio.access_key", "minio.secret_key",
		"parent.pin_hash", "parent.jwt_secret", "email.from", "email.to",
	} {
		if !v.IsSet(key) {
			v.SetDefault(key, "")
		}
	}
}

// Load reads configuration from an optional YAML file, a .env file and
// VOCABHERO_* environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VOCABHERO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("vocabhero")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.AI.Provider == "openai" {
		if strings.HasPrefix(cfg.AI.TextModel, "gemini") {
			cfg.AI.TextModel = "gpt-4o-mini"
		}
		if strings.HasPrefix(cfg.AI.SpeechModel, "gemini") {
			cfg.AI.SpeechModel = "gpt-4o-mini-tts"
		}
		if cfg.AI.Voice == "Kore" {
			cfg.AI.Voice = "alloy"
		}
	}

	// Provider keys commonly live under their vendor names
	if cfg.AI.APIKey == "" {
		switch cfg.AI.Provider {
		case "gemini":
			cfg.AI.APIKey = firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("API_KEY"))
		case "openai":
			cfg.AI.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the server cannot start with
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "file", "sqlite", "sqlite3", "postgres", "postgresql", "mysql", "redis":
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}
	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported ai provider: %s", c.AI.Provider)
	}
	switch c.Audio.Cache {
	case "", "none", "disk", "minio":
	default:
		return fmt.Errorf("unsupported audio cache: %s", c.Audio.Cache)
	}
	if c.AI.SampleRate <= 0 {
		return fmt.Errorf("ai.sample_rate must be positive")
	}
	if c.Parent.PinHash != "" && c.Parent.JWTSecret == "" {
		return fmt.Errorf("parent.jwt_secret is required when parent.pin_hash is set")
	}
	return nil
}

// IsDebug reports whether verbose logging was requested
func (c *Config) IsDebug() bool {
	return c.Server.Mode == "debug"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
