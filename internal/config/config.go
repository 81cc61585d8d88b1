package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath       = "config.toml"
	DefaultHTTPAddr         = ":8080"
	DefaultJWTExpiresIn     = "24h"
	DefaultPGHost           = "127.0.0.1"
	DefaultPGPort           = 5432
	DefaultPGUser           = "postgres"
	DefaultPGDatabase       = "deskrelay"
	DefaultPGSSLMode        = "disable"
	DefaultQdrantHost       = "127.0.0.1"
	DefaultQdrantPort       = 6334
	DefaultQdrantCollection = "knowledge"
	DefaultLLMModel         = "gpt-4o-mini"
	DefaultEmbeddingsModel  = "text-embedding-3-small"
	DefaultRetentionDays    = 30
)

type Config struct {
	Log         LogConfig         `toml:"log"`
	Server      ServerConfig      `toml:"server"`
	Admin       AdminConfig       `toml:"admin"`
	Auth        AuthConfig        `toml:"auth"`
	Postgres    PostgresConfig    `toml:"postgres"`
	Qdrant      QdrantConfig      `toml:"qdrant"`
	LLM         LLMConfig         `toml:"llm"`
	Embeddings  EmbeddingsConfig  `toml:"embeddings"`
	CRM         CRMConfig         `toml:"crm"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
	// PublicBaseURL is the externally reachable base URL used when building
	// webhook callback and websocket URLs handed to providers and widgets.
	PublicBaseURL string `toml:"public_base_url"`
}

type AdminConfig struct {
	Email    string `toml:"email" validate:"omitempty,email"`
	Password string `toml:"password"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

func (c AuthConfig) ExpiresIn() time.Duration {
	d, err := time.ParseDuration(c.JWTExpiresIn)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultJWTExpiresIn)
	}
	return d
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port" validate:"gt=0,lte=65535"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

type QdrantConfig struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	APIKey     string `toml:"api_key"`
	UseTLS     bool   `toml:"use_tls"`
	Collection string `toml:"collection"`
}

// LLMConfig describes the chat-completion capability. The endpoint speaks an
// OpenAI-compatible dialect behind an OAuth client-credentials token endpoint,
// matching providers that gate the API with short-lived tokens.
type LLMConfig struct {
	BaseURL        string `toml:"base_url"`
	AuthURL        string `toml:"auth_url"`
	ClientID       string `toml:"client_id"`
	ClientSecret   string `toml:"client_secret"`
	Scope          string `toml:"scope"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type EmbeddingsConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	Dimensions     int    `toml:"dimensions"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type CRMConfig struct {
	WebhookURL string `toml:"webhook_url" validate:"omitempty,url"`
}

type DiagnosticsConfig struct {
	RetentionDays int `toml:"retention_days"`
}

// Load reads the TOML config at path (DefaultConfigPath when empty), applying
// defaults for anything the file leaves out. A missing file is not an error;
// defaults are returned so a fresh checkout can start against local services.
func Load(path string) (Config, error) {
	cfg := Config{
		Log:    LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{Addr: DefaultHTTPAddr},
		Auth:   AuthConfig{JWTExpiresIn: DefaultJWTExpiresIn},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Qdrant: QdrantConfig{
			Host:       DefaultQdrantHost,
			Port:       DefaultQdrantPort,
			Collection: DefaultQdrantCollection,
		},
		LLM:         LLMConfig{Model: DefaultLLMModel, TimeoutSeconds: 60},
		Embeddings:  EmbeddingsConfig{Model: DefaultEmbeddingsModel, Dimensions: 1536, TimeoutSeconds: 15},
		Diagnostics: DiagnosticsConfig{RetentionDays: DefaultRetentionDays},
	}

	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
