// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Warehouse     WarehouseConfig    `mapstructure:"warehouse"`
	WhatsApp      WhatsAppConfig     `mapstructure:"whatsapp"`
	GenAI         GenAIConfig        `mapstructure:"genai"`
	OCR           OCRConfig          `mapstructure:"ocr"`
	Translate     TranslateConfig    `mapstructure:"translate"`
	Onboarding    OnboardingConfig   `mapstructure:"onboarding"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Server        ServerConfig       `mapstructure:"server"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses      []string `mapstructure:"addresses"`
	Username       string   `mapstructure:"username"`
	Password       string   `mapstructure:"password"`
	ApplicantIndex string   `mapstructure:"applicant_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WarehouseConfig points at the analytics warehouse SQL endpoint. The
// warehouse speaks the postgres wire protocol; catalog and schema scope
// the ad-hoc browsing endpoints.
type WarehouseConfig struct {
	DSN     string `mapstructure:"dsn"`
	Catalog string `mapstructure:"catalog"`
	Schema  string `mapstructure:"schema"`
}

// WhatsAppConfig holds the local bridge settings.
type WhatsAppConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// GenAIConfig holds the model provider settings.
type GenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// OCRConfig holds the OCR sidecar settings.
type OCRConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// TranslateConfig holds the translation endpoint settings.
type TranslateConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// OnboardingConfig drives the batch orchestrator.
type OnboardingConfig struct {
	// ExcludedSenders are operator/admin identifiers never processed as
	// applicants.
	ExcludedSenders     []string `mapstructure:"excluded_senders"`
	ReplyLanguage       string   `mapstructure:"reply_language"`
	PollIntervalSeconds int      `mapstructure:"poll_interval_seconds"`
	ApplicantTable      string   `mapstructure:"applicant_table"`
	VerdictTable        string   `mapstructure:"verdict_table"`
}

// NotificationConfig holds settings for staff escalation notices.
type NotificationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled    bool     `mapstructure:"enabled"`
			FromEmail  string   `mapstructure:"from_email"`
			StaffEmail []string `mapstructure:"staff_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			StaffPhone         string `mapstructure:"staff_phone"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	MetricsPort    int `mapstructure:"metrics_port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
