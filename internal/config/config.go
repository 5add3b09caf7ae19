// Package config предоставляет структуры и функции для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/magabrotheeeer/risk-monitor/internal/risk"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	HTTPServer              `yaml:"http_server"`
	GRPCServer              `yaml:"grpc_server"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	Scheduler               `yaml:"scheduler"`
	Risk                    `yaml:"risk"`
	SMTP                    `yaml:"smtp"`
	Notifier                `yaml:"notifier"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"20"`
	RateBurst   int           `yaml:"rate_burst" env-default:"40"`
}

// GRPCServer структура для настройки gRPC-сервера проверки здоровья
type GRPCServer struct {
	AddressGRPC string `yaml:"addressgrpc" env:"GRPC_ADDRESS" env-default:":50051"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// RabbitMQ структура для настройки подключения к брокеру алертов
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// Scheduler структура для настройки периодической рассылки алертов
type Scheduler struct {
	SchedulerInterval time.Duration `yaml:"interval" env-default:"1h"`
	AlertLimit        int           `yaml:"alert_limit" env-default:"100"`
}

// Risk структура с параметрами движка оценки риска и кэша результатов
type Risk struct {
	Weights    risk.Weights    `yaml:"weights"`
	Thresholds risk.Thresholds `yaml:"thresholds"`
	Workers    int             `yaml:"workers" env-default:"8"`
	CacheTTL   time.Duration   `yaml:"cache_ttl" env-default:"5m"`
}

// SMTP структура для настройки почтового сервера уведомлений
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"password" env:"SMTP_PASSWORD"`
}

// Notifier структура для настройки рассылки писем по алертам
type Notifier struct {
	Recipients []string `yaml:"recipients" env:"NOTIFIER_RECIPIENTS" env-separator:","`
	Levels     []string `yaml:"levels" env-default:"critical,high"`
}

// EngineConfig собирает конфигурацию движка из секции risk.
func (r Risk) EngineConfig() risk.Config {
	return risk.Config{
		Weights:    r.Weights,
		Thresholds: r.Thresholds,
		Workers:    r.Workers,
	}
}

// Load читает конфиг из файла path и проверяет параметры движка.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.EngineConfig().Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"GRPCServer:\n"+
			"  Address: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  MaxRetries: %d\n"+
			"  RetryDelay: %s\n"+
			"Scheduler:\n"+
			"  Interval: %s\n"+
			"Risk:\n"+
			"  Thresholds: %.2f/%.2f/%.2f\n"+
			"  Workers: %d\n"+
			"  CacheTTL: %s\n"+
			"SMTP:\n"+
			"  Addr: %s:%s\n"+
			"Notifier:\n"+
			"  Recipients: %d\n"+
			"  Levels: %v\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AddressGRPC,
		c.AddressRedis,
		c.DB,
		c.RabbitMQMaxRetries,
		c.RabbitMQRetryDelay,
		c.SchedulerInterval,
		c.Thresholds.Medium,
		c.Thresholds.High,
		c.Thresholds.Critical,
		c.Workers,
		c.CacheTTL,
		c.SMTPHost,
		c.SMTPPort,
		len(c.Recipients),
		c.Levels,
	)
}
