package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the service configuration.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RunMigrations   bool

	RedisURL string

	Kafka    KafkaConfig
	Auth     AuthConfig
	Casdoor  CasdoorConfig
	SMTP     SMTPConfig
	Twilio   TwilioConfig
	Dispatch DispatchConfig
	Live     LiveConfig

	// UserSource selects the user directory: "postgres" or "casdoor".
	UserSource string
}

type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
	// RequestsTopic carries notification requests from other services.
	RequestsTopic string
	EventsTopic   string
}

type AuthConfig struct {
	// Provider is "jwt" (local HS256 tokens) or "casdoor".
	Provider  string
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration
}

type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether outbound email is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

type DispatchConfig struct {
	EmailWorkers   int
	EmailQueueSize int
	EmailTimeout   time.Duration
	SMSTimeout     time.Duration
	MaxRecipients  int
	RateLimit      int
	RateWindow     time.Duration
}

type LiveConfig struct {
	WriteTimeout time.Duration
	PongTimeout  time.Duration
	AllowOrigins []string
}

// LoadConfig reads configuration from .env, an optional config file and
// NOTIFY_* environment variables, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	return Load("")
}

// Load is LoadConfig with an explicit config file path.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("NOTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:            v.GetString("server.port"),
		Environment:     v.GetString("server.environment"),
		LogLevel:        parseLogLevel(v.GetString("log.level")),
		DatabaseURL:     v.GetString("db.url"),
		MaxOpenConns:    v.GetInt("db.max_open_conns"),
		MaxIdleConns:    v.GetInt("db.max_idle_conns"),
		ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
		RunMigrations:   v.GetBool("db.run_migrations"),
		RedisURL:        v.GetString("redis.url"),
		UserSource:      strings.ToLower(v.GetString("users.source")),
		Kafka: KafkaConfig{
			Brokers:       splitList(v.GetString("kafka.brokers")),
			ConsumerGroup: v.GetString("kafka.consumer_group"),
			RequestsTopic: v.GetString("kafka.requests_topic"),
			EventsTopic:   v.GetString("kafka.events_topic"),
		},
		Auth: AuthConfig{
			Provider:  strings.ToLower(v.GetString("auth.provider")),
			JWTSecret: v.GetString("auth.jwt_secret"),
			JWTIssuer: v.GetString("auth.jwt_issuer"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		Casdoor: CasdoorConfig{
			Endpoint:     v.GetString("casdoor.endpoint"),
			ClientID:     v.GetString("casdoor.client_id"),
			ClientSecret: v.GetString("casdoor.client_secret"),
			Cert:         v.GetString("casdoor.cert"),
			Organization: v.GetString("casdoor.organization"),
			Application:  v.GetString("casdoor.application"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetInt("smtp.port"),
			Username: v.GetString("smtp.username"),
			Password: v.GetString("smtp.password"),
			From:     v.GetString("smtp.from"),
		},
		Twilio: TwilioConfig{
			AccountSID: v.GetString("twilio.account_sid"),
			AuthToken:  v.GetString("twilio.auth_token"),
			FromNumber: v.GetString("twilio.from_number"),
		},
		Dispatch: DispatchConfig{
			EmailWorkers:   v.GetInt("dispatch.email_workers"),
			EmailQueueSize: v.GetInt("dispatch.email_queue_size"),
			EmailTimeout:   v.GetDuration("dispatch.email_timeout"),
			SMSTimeout:     v.GetDuration("dispatch.sms_timeout"),
			MaxRecipients:  v.GetInt("dispatch.max_recipients"),
			RateLimit:      v.GetInt("dispatch.rate_limit"),
			RateWindow:     v.GetDuration("dispatch.rate_window"),
		},
		Live: LiveConfig{
			WriteTimeout: v.GetDuration("live.write_timeout"),
			PongTimeout:  v.GetDuration("live.pong_timeout"),
			AllowOrigins: splitList(v.GetString("live.allow_origins")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("log.level", "info")

	v.SetDefault("db.url", "host=localhost user=postgres password=postgres dbname=notifications port=5432 sslmode=disable")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", "1h")
	v.SetDefault("db.run_migrations", true)

	v.SetDefault("redis.url", "")
	v.SetDefault("users.source", "postgres")

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.consumer_group", "notification-service")
	v.SetDefault("kafka.requests_topic", "notification.requested")
	v.SetDefault("kafka.events_topic", "notification.events")

	v.SetDefault("auth.provider", "jwt")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "learning-platform")
	v.SetDefault("auth.token_ttl", "24h")

	v.SetDefault("smtp.port", 587)

	v.SetDefault("dispatch.email_workers", 4)
	v.SetDefault("dispatch.email_queue_size", 256)
	v.SetDefault("dispatch.email_timeout", "15s")
	v.SetDefault("dispatch.sms_timeout", "10s")
	v.SetDefault("dispatch.max_recipients", 1000)
	v.SetDefault("dispatch.rate_limit", 30)
	v.SetDefault("dispatch.rate_window", "1m")

	v.SetDefault("live.write_timeout", "10s")
	v.SetDefault("live.pong_timeout", "60s")
	v.SetDefault("live.allow_origins", "")
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	switch c.Auth.Provider {
	case "jwt":
		if len(c.Auth.JWTSecret) < 16 {
			return fmt.Errorf("config: auth.jwt_secret must be at least 16 characters")
		}
	case "casdoor":
		if c.Casdoor.Endpoint == "" || c.Casdoor.ClientID == "" {
			return fmt.Errorf("config: casdoor.endpoint and casdoor.client_id are required for the casdoor provider")
		}
	default:
		return fmt.Errorf("config: unknown auth.provider %q", c.Auth.Provider)
	}

	switch c.UserSource {
	case "postgres":
	case "casdoor":
		if c.Casdoor.Endpoint == "" {
			return fmt.Errorf("config: casdoor.endpoint is required when users.source is casdoor")
		}
	default:
		return fmt.Errorf("config: unknown users.source %q", c.UserSource)
	}

	if c.Port == "" {
		return fmt.Errorf("config: server.port is required")
	}
	if c.Dispatch.EmailWorkers <= 0 {
		return fmt.Errorf("config: dispatch.email_workers must be positive")
	}
	if c.Dispatch.MaxRecipients <= 0 {
		return fmt.Errorf("config: dispatch.max_recipients must be positive")
	}

	return nil
}

func parseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
