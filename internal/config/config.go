package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Store   StoreConfig   `mapstructure:"store"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Breaker BreakerConfig `mapstructure:"breaker"`
	Session SessionConfig `mapstructure:"session"`
	Server  ServerConfig  `mapstructure:"server"`
	Events  EventsConfig  `mapstructure:"events"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Report  ReportConfig  `mapstructure:"report"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type StoreConfig struct {
	// Backend is "mongo" or "memory".
	Backend string `mapstructure:"backend"`
}

type MongoConfig struct {
	URI                    string        `mapstructure:"uri"`
	Database               string        `mapstructure:"database"`
	ConnectTimeout         time.Duration `mapstructure:"connect_timeout"`
	ServerSelectionTimeout time.Duration `mapstructure:"server_selection_timeout"`
	SocketTimeout          time.Duration `mapstructure:"socket_timeout"`
	OperationTimeout       time.Duration `mapstructure:"operation_timeout"`
}

type BreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

type SessionConfig struct {
	LoginAttemptsPerMinute float64       `mapstructure:"login_attempts_per_minute"`
	LoginBurst             int           `mapstructure:"login_burst"`
	LockoutTTL             time.Duration `mapstructure:"lockout_ttl"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
	// Mode is a gin mode: debug, release or test.
	Mode           string        `mapstructure:"mode"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type EventsConfig struct {
	// Broker is "none", "redis" or "kafka".
	Broker       string   `mapstructure:"broker"`
	RedisURL     string   `mapstructure:"redis_url"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	Topic        string   `mapstructure:"topic"`
}

type AuditConfig struct {
	// DSN of the PostgreSQL audit database; empty keeps the audit trail in
	// the application log.
	DSN string `mapstructure:"dsn"`
	// RetentionDays of zero keeps entries forever.
	RetentionDays   int           `mapstructure:"retention_days"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type ReportConfig struct {
	// Exporter is "file", "s3" or "mail".
	Exporter string     `mapstructure:"exporter"`
	Dir      string     `mapstructure:"dir"`
	S3       S3Config   `mapstructure:"s3"`
	Mail     MailConfig `mapstructure:"mail"`
}

type S3Config struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

type MailConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("store.backend", "mongo")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017/")
	v.SetDefault("mongo.database", "hospital_a_db")
	v.SetDefault("mongo.connect_timeout", 10*time.Second)
	v.SetDefault("mongo.server_selection_timeout", 5*time.Second)
	v.SetDefault("mongo.socket_timeout", 30*time.Second)
	v.SetDefault("mongo.operation_timeout", 5*time.Second)

	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.open_timeout", 30*time.Second)

	v.SetDefault("session.login_attempts_per_minute", 5)
	v.SetDefault("session.login_burst", 5)
	v.SetDefault("session.lockout_ttl", 15*time.Minute)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.token_ttl", 8*time.Hour)
	v.SetDefault("server.rate_limit_rps", 20)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("server.request_timeout", 30*time.Second)

	v.SetDefault("events.broker", "none")
	v.SetDefault("events.topic", "clinical-events")

	v.SetDefault("audit.retention_days", 365)
	v.SetDefault("audit.cleanup_interval", 24*time.Hour)

	v.SetDefault("report.exporter", "file")
	v.SetDefault("report.dir", "reports")
	v.SetDefault("report.mail.port", 587)
}

// LoadConfig reads config.yaml from the working directory, ./config or
// /etc/ward-assistant (or from path when given), then applies WARD_*
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/ward-assistant")
	}

	v.SetEnvPrefix("ward")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "mongo":
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return fmt.Errorf("mongo.uri and mongo.database are required")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Mongo.OperationTimeout <= 0 {
		return fmt.Errorf("mongo.operation_timeout must be positive")
	}

	if c.Audit.RetentionDays < 0 {
		return fmt.Errorf("audit.retention_days must not be negative")
	}
	if c.Audit.RetentionDays > 0 && c.Audit.CleanupInterval <= 0 {
		return fmt.Errorf("audit.cleanup_interval must be positive")
	}

	switch c.Events.Broker {
	case "", "none":
	case "redis":
		if c.Events.RedisURL == "" {
			return fmt.Errorf("events.redis_url is required for the redis broker")
		}
	case "kafka":
		if len(c.Events.KafkaBrokers) == 0 {
			return fmt.Errorf("events.kafka_brokers is required for the kafka broker")
		}
	default:
		return fmt.Errorf("unknown events broker %q", c.Events.Broker)
	}

	switch c.Report.Exporter {
	case "file":
	case "s3":
		if c.Report.S3.Bucket == "" {
			return fmt.Errorf("report.s3.bucket is required for the s3 exporter")
		}
	case "mail":
		if c.Report.Mail.Host == "" || c.Report.Mail.From == "" || len(c.Report.Mail.To) == 0 {
			return fmt.Errorf("report.mail host, from and to are required for the mail exporter")
		}
	default:
		return fmt.Errorf("unknown report exporter %q", c.Report.Exporter)
	}
	return nil
}
