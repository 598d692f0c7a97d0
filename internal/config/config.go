package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Kafka      KafkaConfig
	Redis      RedisConfig
	MarketData MarketDataConfig
	Agent      AgentConfig
	SMTP       SMTPConfig
	Alerts     AlertsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Enabled bool
}

// RedisConfig holds Redis configuration for alert cooldowns
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// MarketDataConfig holds the FMP historical-price API configuration
type MarketDataConfig struct {
	BaseURL   string
	APIKey    string
	Symbols   []string
	StartDate string
}

// AgentConfig holds the browser-automation agent API configuration
type AgentConfig struct {
	BaseURL string
	APIKey  string
}

// SMTPConfig holds outbound email configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	UseTLS   bool
}

// AlertsConfig holds alert thresholds and recipients.
// Thresholds stay strings here and are parsed once by the alerting engine.
type AlertsConfig struct {
	Recipients            []string
	PremiumDiscountBelow  string
	NetAssetsBelow        string
	UnderperformanceBelow string
	CooldownHours         int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "fundmonitor"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getEnv("KAFKA_TOPIC", "monitor-events"),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Enabled:  getEnvBool("REDIS_ENABLED", false),
		},
		MarketData: MarketDataConfig{
			BaseURL:   getEnv("FMP_BASE_URL", "https://financialmodelingprep.com/api/v3/historical-price-full"),
			APIKey:    getEnv("FMP_API_KEY", ""),
			Symbols:   getEnvList("COMPARE_SYMBOLS", "EBI,VTI,IWV,IWN,VTV"),
			StartDate: getEnv("COMPARE_START_DATE", "2025-03-01"),
		},
		Agent: AgentConfig{
			BaseURL: getEnv("HYPERBROWSER_BASE_URL", "https://api.hyperbrowser.ai"),
			APIKey:  getEnv("HYPERBROWSER_API_KEY", ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "updates@fund-monitor.local"),
			FromName: getEnv("SMTP_FROM_NAME", "Fund Monitor"),
			UseTLS:   getEnvBool("SMTP_USE_TLS", true),
		},
		Alerts: AlertsConfig{
			Recipients:            getEnvList("ALERT_RECIPIENTS", "jason.laster.11@gmail.com"),
			PremiumDiscountBelow:  getEnv("ALERT_PREMIUM_DISCOUNT_BELOW", "-0.2"),
			NetAssetsBelow:        getEnv("ALERT_NET_ASSETS_BELOW", "400000000"),
			UnderperformanceBelow: getEnv("ALERT_UNDERPERFORMANCE_BELOW", "-2.5"),
			CooldownHours:         getEnvInt("ALERT_COOLDOWN_HOURS", 20),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
