// Package config provides configuration loading and validation for the
// tutoring service. It reads defaults, an optional config.yaml, and
// REFORCO_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines the application configuration for all components:
// HTTP server, auth, AI integration, chat sessions, notes, uploads,
// database, and the maintenance scheduler.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	AI        AIConfig        `mapstructure:"ai"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Notes     NotesConfig     `mapstructure:"notes"`
	Uploads   UploadsConfig   `mapstructure:"uploads"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"min=1s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"min=1s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
}

// AuthConfig controls credential hashing and token issuance.
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"  validate:"required,min=16"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"   validate:"min=1m"`
	BCryptCost int           `mapstructure:"bcrypt_cost" validate:"min=4,max=31"`
}

// AIConfig controls the completion provider.
type AIConfig struct {
	Provider    string        `mapstructure:"provider"    validate:"oneof=openai gemini"`
	Token       string        `mapstructure:"token"       validate:"required"`
	BaseURL     string        `mapstructure:"base_url"    validate:"omitempty,url"`
	Model       string        `mapstructure:"model"       validate:"required"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxTokens   int           `mapstructure:"max_tokens"  validate:"min=1"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
}

// ChatConfig controls chat session behaviour and user-facing messages.
type ChatConfig struct {
	MaxMessageLength int           `mapstructure:"max_message_length" validate:"min=1"`
	SessionIdleTTL   time.Duration `mapstructure:"session_idle_ttl"   validate:"min=1m"`
	WelcomeMessage   string        `mapstructure:"welcome_message"    validate:"required"`
	FallbackReply    string        `mapstructure:"fallback_reply"     validate:"required"`
}

// NotesConfig controls note validation bounds and the optional webhook.
type NotesConfig struct {
	MaxTitleLength   int    `mapstructure:"max_title_length"   validate:"min=1"`
	MaxContentLength int    `mapstructure:"max_content_length" validate:"min=1"`
	WebhookURL       string `mapstructure:"webhook_url"        validate:"omitempty,url"`
}

// UploadsConfig controls upload metadata validation. File content is never
// stored or parsed; only the metadata row is kept.
type UploadsConfig struct {
	MaxSizeBytes     int64    `mapstructure:"max_size_bytes" validate:"min=1"`
	AllowedMimeTypes []string `mapstructure:"allowed_mime_types" validate:"min=1"`
}

// DatabaseConfig controls the SQLite database location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig controls the maintenance jobs.
type SchedulerConfig struct {
	MaintenanceCron   string        `mapstructure:"maintenance_cron"    validate:"required"`
	SessionPruneEvery time.Duration `mapstructure:"session_prune_every" validate:"min=1m"`
}

// Load reads configuration from defaults, config.yaml (optional), and
// REFORCO_* environment variables, then validates the result.
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("REFORCO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine; defaults plus env cover everything.
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the struct tags and the cross-field constraints a tag
// cannot express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// A message submit may legitimately wait for the full AI timeout, so
	// the HTTP write timeout has to outlast it or slow successful replies
	// get cut off mid-response.
	if cfg.Server.WriteTimeout <= cfg.AI.Timeout {
		return fmt.Errorf("invalid configuration: server.write_timeout (%s) must be greater than ai.timeout (%s)",
			cfg.Server.WriteTimeout, cfg.AI.Timeout)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.json", false)

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.allowed_origins", []string{"*"})
	viper.SetDefault("server.read_timeout", 15*time.Second)
	viper.SetDefault("server.write_timeout", 3*time.Minute)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)

	viper.SetDefault("auth.token_ttl", 24*time.Hour)
	viper.SetDefault("auth.bcrypt_cost", 10)

	viper.SetDefault("ai.provider", "openai")
	viper.SetDefault("ai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("ai.model", "gpt-4o-mini")
	viper.SetDefault("ai.temperature", 0.7)
	viper.SetDefault("ai.max_tokens", 1000)
	viper.SetDefault("ai.timeout", 2*time.Minute)

	viper.SetDefault("chat.max_message_length", 1000)
	viper.SetDefault("chat.session_idle_ttl", 30*time.Minute)
	viper.SetDefault("chat.welcome_message", "Olá! Sou seu tutor virtual 🎓 O que vamos estudar hoje?")
	viper.SetDefault("chat.fallback_reply", "Ops! Ocorreu um erro. Tente novamente.")

	viper.SetDefault("notes.max_title_length", 200)
	viper.SetDefault("notes.max_content_length", 10000)

	viper.SetDefault("uploads.max_size_bytes", int64(10*1024*1024))
	viper.SetDefault("uploads.allowed_mime_types", []string{
		"application/pdf",
		"image/png",
		"image/jpeg",
		"text/plain",
	})

	viper.SetDefault("database.path", "storage.db")

	viper.SetDefault("scheduler.maintenance_cron", "0 4 * * *")
	viper.SetDefault("scheduler.session_prune_every", 5*time.Minute)
}
