package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete gateway configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
	Audit         AuditConfig
	Alerts        AlertsConfig
	Backend       BackendConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// SecurityConfig holds session and threat-policy configuration.
type SecurityConfig struct {
	SessionSecret     string
	SessionTTL        time.Duration
	HighThreatLevel   float64
	CriticalThreat    float64
	BlockDuration     time.Duration
	IntegrityChecking bool
}

// RateLimitConfig holds per-tier rate limit overrides. Zero values fall
// back to built-in tier defaults.
type RateLimitConfig struct {
	Window     time.Duration
	FreeLimit  int
	FreeBurst  int
	ProLimit   int
	ProBurst   int
	AdminLimit int
	AdminBurst int
}

// AuditConfig holds audit buffering configuration.
type AuditConfig struct {
	BufferSize    int
	FlushInterval time.Duration
	FlushTimeout  time.Duration
}

// AlertsConfig holds security alert dispatch configuration.
type AlertsConfig struct {
	Enabled     bool
	EmailTo     string
	ChatWebhook string
	WebhookURL  string
	SMSNumber   string
	Timeout     time.Duration
	SMTP        SMTPConfig
	Twilio      TwilioConfig
}

// SMTPConfig holds outbound email configuration for alerts.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
}

// TwilioConfig holds SMS delivery configuration for alerts.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// BackendConfig holds the upstream generation service configuration.
type BackendConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or text
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: loadDatabaseConfig(),
		Security: SecurityConfig{
			SessionSecret:     getEnv("SESSION_SECRET", ""),
			SessionTTL:        getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			HighThreatLevel:   getEnvAsFloat("THREAT_HIGH_LEVEL", 0.8),
			CriticalThreat:    getEnvAsFloat("THREAT_CRITICAL_LEVEL", 0.9),
			BlockDuration:     getEnvAsDuration("THREAT_BLOCK_DURATION", 24*time.Hour),
			IntegrityChecking: getEnvAsBool("INTEGRITY_CHECKING", true),
		},
		RateLimit: RateLimitConfig{
			Window:     getEnvAsDuration("RATE_LIMIT_WINDOW", time.Hour),
			FreeLimit:  getEnvAsInt("RATE_LIMIT_FREE", 100),
			FreeBurst:  getEnvAsInt("RATE_LIMIT_FREE_BURST", 10),
			ProLimit:   getEnvAsInt("RATE_LIMIT_PRO", 500),
			ProBurst:   getEnvAsInt("RATE_LIMIT_PRO_BURST", 50),
			AdminLimit: getEnvAsInt("RATE_LIMIT_ADMIN", 2000),
			AdminBurst: getEnvAsInt("RATE_LIMIT_ADMIN_BURST", 200),
		},
		Audit: AuditConfig{
			BufferSize:    getEnvAsInt("AUDIT_BUFFER_SIZE", 100),
			FlushInterval: getEnvAsDuration("AUDIT_FLUSH_INTERVAL", 30*time.Second),
			FlushTimeout:  getEnvAsDuration("AUDIT_FLUSH_TIMEOUT", 5*time.Second),
		},
		Alerts: AlertsConfig{
			Enabled:     getEnvAsBool("ALERTS_ENABLED", false),
			EmailTo:     getEnv("ALERT_EMAIL_TO", ""),
			ChatWebhook: getEnv("ALERT_CHAT_WEBHOOK", ""),
			WebhookURL:  getEnv("ALERT_WEBHOOK_URL", ""),
			SMSNumber:   getEnv("ALERT_SMS_NUMBER", ""),
			Timeout:     getEnvAsDuration("ALERT_TIMEOUT", 10*time.Second),
			SMTP: SMTPConfig{
				Host:        getEnv("SMTP_HOST", ""),
				Port:        getEnvAsInt("SMTP_PORT", 587),
				Username:    getEnv("SMTP_USERNAME", ""),
				Password:    getEnv("SMTP_PASSWORD", ""),
				FromAddress: getEnv("SMTP_FROM_ADDRESS", "alerts@localhost"),
			},
			Twilio: TwilioConfig{
				AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
				AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
				FromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
			},
		},
		Backend: BackendConfig{
			BaseURL:    getEnv("BACKEND_BASE_URL", "http://localhost:9000"),
			Timeout:    getEnvAsDuration("BACKEND_TIMEOUT", 30*time.Second),
			MaxRetries: getEnvAsInt("BACKEND_MAX_RETRIES", 0),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.IsProduction() && c.Security.SessionSecret == "" {
		return fmt.Errorf("session secret is required in production")
	}

	if c.Security.HighThreatLevel <= 0 || c.Security.HighThreatLevel > 1 {
		return fmt.Errorf("high threat level must be in (0, 1]")
	}
	if c.Security.CriticalThreat < c.Security.HighThreatLevel || c.Security.CriticalThreat > 1 {
		return fmt.Errorf("critical threat level must be in [high, 1]")
	}

	if c.Audit.BufferSize <= 0 {
		return fmt.Errorf("audit buffer size must be positive")
	}
	if c.Audit.FlushInterval <= 0 {
		return fmt.Errorf("audit flush interval must be positive")
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "gateway"),
		Password:        getEnv("DB_PASSWORD", "gateway"),
		Database:        getEnv("DB_NAME", "gateway_audit"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
