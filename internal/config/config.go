package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

var ErrConfigPathIsEmpty = errors.New("config path is empty")

type Config struct {
	App        `yaml:"app"`
	Logger     `yaml:"log"`
	HTTPServer `yaml:"http_server"`
	Relay      `yaml:"relay"`
	Database   `yaml:"database"`
	Redis      `yaml:"redis"`
	Kafka      `yaml:"kafka"`
	Metrics    `yaml:"metrics"`
}

type App struct {
	ServiceName string `env:"APP_SERVICE_NAME" env-default:"relay" yaml:"service_name"`
	Version     string `env:"APP_VERSION"      env-default:"0.1.0" yaml:"version"`
}

type Logger struct {
	Level      string   `env:"LOG_LEVEL"       env-default:"info"  yaml:"level"`
	FormatJSON bool     `env:"LOG_FORMAT_JSON" env-default:"false" yaml:"format_json"`
	Rotation   Rotation `yaml:"rotation"`
}

type Rotation struct {
	File       string `env:"LOG_ROTATION_FILE"        yaml:"file"`
	MaxSize    int    `env:"LOG_ROTATION_MAX_SIZE"    env-default:"100" yaml:"max_size"`
	MaxBackups int    `env:"LOG_ROTATION_MAX_BACKUPS" env-default:"3"   yaml:"max_backups"`
	MaxAge     int    `env:"LOG_ROTATION_MAX_AGE"     env-default:"28"  yaml:"max_age"`
}

type HTTPServer struct {
	Host            string  `env:"HTTP_HOST"              env-default:"0.0.0.0" yaml:"host"`
	Port            uint16  `env:"HTTP_PORT"              env-default:"8080"    yaml:"port"`
	BasePath        string  `env:"HTTP_BASE_PATH"         env-default:"/api"    yaml:"base_path"`
	MaxContentBytes int     `env:"HTTP_MAX_CONTENT_BYTES" env-default:"65536"   yaml:"max_content_bytes"`
	Timeout         Timeout `yaml:"timeout"`
	CORS            CORS    `yaml:"cors"`
}

type Timeout struct {
	Request time.Duration `env:"HTTP_TIMEOUT_REQUEST" env-default:"10s" yaml:"request"`
	Read    time.Duration `env:"HTTP_TIMEOUT_READ"    env-default:"10s" yaml:"read"`
	Write   time.Duration `env:"HTTP_TIMEOUT_WRITE"   env-default:"15s" yaml:"write"`
	Idle    time.Duration `env:"HTTP_TIMEOUT_IDLE"    env-default:"60s" yaml:"idle"`
}

// Boolean switches carry no env-default: cleanenv cannot tell an explicit
// false in the file from an unset key.
type CORS struct {
	Enabled          bool          `env:"CORS_ENABLED"           yaml:"enabled"`
	AllowAllOrigins  bool          `env:"CORS_ALLOW_ALL_ORIGINS" yaml:"allow_all_origins"`
	AllowOrigins     []string      `env:"CORS_ALLOW_ORIGINS"     env-separator:","                                    yaml:"allow_origins"`
	AllowMethods     []string      `env:"CORS_ALLOW_METHODS"     env-default:"GET,POST,PATCH,DELETE,OPTIONS"          env-separator:"," yaml:"allow_methods"`
	AllowHeaders     []string      `env:"CORS_ALLOW_HEADERS"     env-default:"Origin,Content-Type,Idempotency-Key"    env-separator:"," yaml:"allow_headers"`
	ExposeHeaders    []string      `env:"CORS_EXPOSE_HEADERS"    env-default:"Retry-After"                            env-separator:"," yaml:"expose_headers"`
	AllowCredentials bool          `env:"CORS_ALLOW_CREDENTIALS" env-default:"false"                                  yaml:"allow_credentials"`
	MaxAge           time.Duration `env:"CORS_MAX_AGE"           env-default:"12h"                                    yaml:"max_age"`
	AllowWebSockets  bool          `env:"CORS_ALLOW_WEBSOCKETS"  yaml:"allow_websockets"`
}

type Relay struct {
	IdempotencyWindow time.Duration `env:"RELAY_IDEMPOTENCY_WINDOW" env-default:"10m" yaml:"idempotency_window"`
	SubscriberBuffer  int           `env:"RELAY_SUBSCRIBER_BUFFER"  env-default:"64"  yaml:"subscriber_buffer"`
}

type Database struct {
	Enable    bool      `env:"DATABASE_ENABLE"    env-default:"false"   yaml:"enable"`
	Host      string    `env:"DATABASE_HOST"      env-default:"localhost" yaml:"host"`
	Port      uint16    `env:"DATABASE_PORT"      env-default:"5432"    yaml:"port"`
	User      string    `env:"DATABASE_USER"      env-default:"relay"   yaml:"user"`
	Password  string    `env:"DATABASE_PASSWORD"  yaml:"password"`
	Name      string    `env:"DATABASE_NAME"      env-default:"relay"   yaml:"name"`
	SSLMode   string    `env:"DATABASE_SSL_MODE"  env-default:"disable" yaml:"ssl_mode"`
	MaxConns  int32     `env:"DATABASE_MAX_CONNS" env-default:"10"      yaml:"max_conns"`
	MinConns  int32     `env:"DATABASE_MIN_CONNS" env-default:"1"       yaml:"min_conns"`
	Migration Migration `yaml:"migration"`
	Journal   Journal   `yaml:"journal"`
}

type Migration struct {
	Path      string `env:"DATABASE_MIGRATION_PATH"       env-default:"migrations" yaml:"path"`
	AutoApply bool   `env:"DATABASE_MIGRATION_AUTO_APPLY" yaml:"auto_apply"`
}

type Journal struct {
	QueueSize   int           `env:"JOURNAL_QUEUE_SIZE"    env-default:"4096" yaml:"queue_size"`
	WorkerCount int           `env:"JOURNAL_WORKER_COUNT"  env-default:"2"    yaml:"worker_count"`
	Timeout     time.Duration `env:"JOURNAL_WRITE_TIMEOUT" env-default:"5s"   yaml:"write_timeout"`
}

type Redis struct {
	Enable    bool      `env:"REDIS_ENABLE"   env-default:"false"     yaml:"enable"`
	Host      string    `env:"REDIS_HOST"     env-default:"localhost" yaml:"host"`
	Port      uint16    `env:"REDIS_PORT"     env-default:"6379"      yaml:"port"`
	Password  string    `env:"REDIS_PASSWORD" yaml:"password"`
	DB        int       `env:"REDIS_DB"       env-default:"0"         yaml:"db"`
	RateLimit RateLimit `yaml:"rate_limit"`
}

type RateLimit struct {
	Capacity        int     `env:"RATE_LIMIT_CAPACITY"          env-default:"20" yaml:"capacity"`
	RefillPerSecond float64 `env:"RATE_LIMIT_REFILL_PER_SECOND" env-default:"5"  yaml:"refill_per_second"`
}

type Kafka struct {
	Enable     bool       `env:"KAFKA_ENABLE"  env-default:"false"          yaml:"enable"`
	Brokers    []string   `env:"KAFKA_BROKERS" env-default:"localhost:9092" env-separator:"," yaml:"brokers"`
	Subscriber Subscriber `yaml:"subscriber"`
	Producer   Producer   `yaml:"producer"`
}

type Subscriber struct {
	Name        string `env:"KAFKA_SUBSCRIBER_NAME"         env-default:"relay-ingest" yaml:"name"`
	WorkerCount int    `env:"KAFKA_SUBSCRIBER_WORKER_COUNT" env-default:"4"            yaml:"worker_count"`
	Topic       string `env:"KAFKA_SUBSCRIBER_TOPIC"        env-default:"relay.send"   yaml:"topic"`
	GroupID     string `env:"KAFKA_SUBSCRIBER_GROUP_ID"     env-default:"relay"        yaml:"group_id"`
	BufferSize  int    `env:"KAFKA_SUBSCRIBER_BUFFER_SIZE"  env-default:"1000"         yaml:"buffer_size"`
}

type Producer struct {
	Name         string        `env:"KAFKA_PRODUCER_NAME"          env-default:"relay-outbox" yaml:"name"`
	Topic        string        `env:"KAFKA_PRODUCER_TOPIC"         env-default:"relay.events" yaml:"topic"`
	WorkerCount  int           `env:"KAFKA_PRODUCER_WORKER_COUNT"  env-default:"2"            yaml:"worker_count"`
	PollInterval time.Duration `env:"KAFKA_PRODUCER_POLL_INTERVAL" env-default:"1s"           yaml:"poll_interval"`
	BatchSize    int           `env:"KAFKA_PRODUCER_BATCH_SIZE"    env-default:"100"          yaml:"batch_size"`
}

type Metrics struct {
	Enable    bool   `env:"METRICS_ENABLE"    yaml:"enable"`
	Path      string `env:"METRICS_PATH"      env-default:"/metrics" yaml:"path"`
	Namespace string `env:"METRICS_NAMESPACE" env-default:"relay"    yaml:"namespace"`
}

func MustLoadConfig() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}

	return cfg
}

// LoadConfig reads the file named by -config or CONFIG_PATH, or the
// environment alone when neither is set.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(fetchConfigPath())
}

func LoadConfigFrom(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}

		return &cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}

func MustPrintConfig(cfg *Config) {
	if err := PrintConfig(cfg); err != nil {
		panic(err)
	}
}

func PrintConfig(cfg *Config) error {
	redacted := *cfg
	redacted.Database.Password = redact(cfg.Database.Password)
	redacted.Redis.Password = redact(cfg.Redis.Password)

	data, err := yaml.Marshal(&redacted)
	if err != nil {
		return err
	}

	println(string(data))

	return nil
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}

	return "***"
}

func fetchConfigPath() string {
	var result string

	flag.StringVar(&result, "config", "", "Path to config file")
	flag.Parse()

	if result == "" {
		result = os.Getenv("CONFIG_PATH")
	}

	return result
}
