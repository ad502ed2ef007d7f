package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	JWT          JWTConfig
	WebSocket    WebSocketConfig
	Notification NotificationConfig
	Log          LogConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver   string // postgres or mysql
	URL      string // takes precedence over the individual fields
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.DBName)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	URL          string
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type JWTConfig struct {
	Secret string
	Leeway time.Duration
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	MaxMessageSize  int64
	WriteWait       time.Duration
	PongWait        time.Duration
	AllowedOrigins  []string

	// ConnectLimit caps connection attempts per client IP within
	// ConnectWindow. Zero disables the limit.
	ConnectLimit  int
	ConnectWindow time.Duration
}

type NotificationConfig struct {
	Queue        string // memory, redis or kafka
	QueueKey     string
	QueueSize    int
	Workers      int
	PushEndpoint string // empty means log-only delivery
	PushTimeout  time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("NOTIFY_HOST", "")
	v.SetDefault("NOTIFY_PORT", "8080")
	v.SetDefault("NOTIFY_READ_TIMEOUT", 30*time.Second)
	v.SetDefault("NOTIFY_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("NOTIFY_IDLE_TIMEOUT", 120*time.Second)

	v.SetDefault("NOTIFY_JWT_SECRET", "")
	v.SetDefault("NOTIFY_JWT_LEEWAY", 0)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "password")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_DB", "postgres")
	v.SetDefault("POSTGRES_SSLMODE", "disable")

	v.SetDefault("REDIS_URL", "redis://127.0.0.1:6379/0")
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_POOL_SIZE", 100)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "chat.notifications")
	v.SetDefault("KAFKA_GROUP_ID", "chat-realtime-notifier")

	v.SetDefault("WS_READ_BUFFER_SIZE", 1024)
	v.SetDefault("WS_WRITE_BUFFER_SIZE", 1024)
	v.SetDefault("WS_SEND_BUFFER_SIZE", 256)
	v.SetDefault("WS_MAX_MESSAGE_SIZE", 512)
	v.SetDefault("WS_WRITE_WAIT", 10*time.Second)
	v.SetDefault("WS_PONG_WAIT", 60*time.Second)
	v.SetDefault("WS_ALLOWED_ORIGINS", "")
	v.SetDefault("WS_CONNECT_LIMIT", 0)
	v.SetDefault("WS_CONNECT_WINDOW", time.Minute)

	v.SetDefault("NOTIFICATION_QUEUE", "memory")
	v.SetDefault("NOTIFICATION_QUEUE_KEY", "chat:notifications")
	v.SetDefault("NOTIFICATION_QUEUE_SIZE", 1024)
	v.SetDefault("NOTIFICATION_WORKERS", 4)
	v.SetDefault("PUSH_ENDPOINT", "")
	v.SetDefault("PUSH_TIMEOUT", 10*time.Second)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Load reads configuration from the environment, optionally seeded by a
// .env file in the working directory.
func Load() (*Config, error) {
	// A missing .env file is fine, the environment may carry everything.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         v.GetString("NOTIFY_HOST"),
			Port:         v.GetString("NOTIFY_PORT"),
			ReadTimeout:  v.GetDuration("NOTIFY_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("NOTIFY_WRITE_TIMEOUT"),
			IdleTimeout:  v.GetDuration("NOTIFY_IDLE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("POSTGRES_HOST"),
			Port:     v.GetString("POSTGRES_PORT"),
			User:     v.GetString("POSTGRES_USER"),
			Password: v.GetString("POSTGRES_PASSWORD"),
			DBName:   v.GetString("POSTGRES_DB"),
			SSLMode:  v.GetString("POSTGRES_SSLMODE"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("REDIS_URL"),
			MaxRetries:   v.GetInt("REDIS_MAX_RETRIES"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
			GroupID: v.GetString("KAFKA_GROUP_ID"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("NOTIFY_JWT_SECRET"),
			Leeway: v.GetDuration("NOTIFY_JWT_LEEWAY"),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  v.GetInt("WS_READ_BUFFER_SIZE"),
			WriteBufferSize: v.GetInt("WS_WRITE_BUFFER_SIZE"),
			SendBufferSize:  v.GetInt("WS_SEND_BUFFER_SIZE"),
			MaxMessageSize:  v.GetInt64("WS_MAX_MESSAGE_SIZE"),
			WriteWait:       v.GetDuration("WS_WRITE_WAIT"),
			PongWait:        v.GetDuration("WS_PONG_WAIT"),
			AllowedOrigins:  splitList(v.GetString("WS_ALLOWED_ORIGINS")),
			ConnectLimit:    v.GetInt("WS_CONNECT_LIMIT"),
			ConnectWindow:   v.GetDuration("WS_CONNECT_WINDOW"),
		},
		Notification: NotificationConfig{
			Queue:        strings.ToLower(v.GetString("NOTIFICATION_QUEUE")),
			QueueKey:     v.GetString("NOTIFICATION_QUEUE_KEY"),
			QueueSize:    v.GetInt("NOTIFICATION_QUEUE_SIZE"),
			Workers:      v.GetInt("NOTIFICATION_WORKERS"),
			PushEndpoint: v.GetString("PUSH_ENDPOINT"),
			PushTimeout:  v.GetDuration("PUSH_TIMEOUT"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("NOTIFY_JWT_SECRET is required"))
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "mysql" {
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}
	switch c.Notification.Queue {
	case "memory", "redis", "kafka":
	default:
		errs = append(errs, fmt.Errorf("unsupported NOTIFICATION_QUEUE %q", c.Notification.Queue))
	}
	if c.Notification.Workers <= 0 {
		errs = append(errs, errors.New("NOTIFICATION_WORKERS must be positive"))
	}
	if c.WebSocket.PongWait <= 0 {
		errs = append(errs, errors.New("WS_PONG_WAIT must be positive"))
	}
	if c.WebSocket.ConnectLimit > 0 && c.WebSocket.ConnectWindow <= 0 {
		errs = append(errs, errors.New("WS_CONNECT_WINDOW must be positive when WS_CONNECT_LIMIT is set"))
	}
	return errors.Join(errs...)
}

// NeedsRedis reports whether any enabled component talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.Notification.Queue == "redis" || c.WebSocket.ConnectLimit > 0
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
