// Package config предоставляет структуры и функцию для парсинга и загрузки конфига.
// Один и тот же файл читают все бинарники: api, agent и referral-worker,
// каждый использует только свои секции.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Agent                   `yaml:"agent"`
	Forest                  `yaml:"forest"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"10"`
	RateBurst   int           `yaml:"rate_burst" env-default:"20"`
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
	TeamsTTL     time.Duration `yaml:"teams_ttl" env-default:"5m"`
}

// RabbitMQ структура для настройки подключения к брокеру событий
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Exchange           string        `yaml:"exchange" env-default:"idleforest"`
	ReferralQueue      string        `yaml:"referral_queue" env-default:"referral.registered"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"720h"`
}

// Agent настройки фонового процесса расширения.
type Agent struct {
	LocalStorePath  string        `yaml:"local_store_path" env:"AGENT_LOCAL_STORE" env-default:"./idleforest-local.db"`
	SyncInterval    time.Duration `yaml:"sync_interval" env-default:"24h"`
	TickInterval    time.Duration `yaml:"tick_interval" env-default:"60s"`
	MessagesAddress string        `yaml:"messages_address" env-default:"127.0.0.1:8765"`
	WelcomeURL      string        `yaml:"welcome_url" env-default:"https://idleforest.com/welcome"`
	APIBaseURL      string        `yaml:"api_base_url" env:"AGENT_API_BASE_URL" env-default:"http://localhost:8080/api/v1"`
	SDKPublicKey    string        `yaml:"sdk_public_key" env:"PLASMO_PUBLIC_MELLOWTEL"`
	SDKLinkBaseURL  string        `yaml:"sdk_link_base_url" env-default:"https://www.mellowtel.com"`
}

// Forest настройки получения глобальной статистики.
type Forest struct {
	StatsURL     string        `yaml:"stats_url" env:"FOREST_STATS_URL"`
	StatsTimeout time.Duration `yaml:"stats_timeout" env-default:"10s"`
}

// Load читает конфиг по указанному пути.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH, завершает процесс при ошибке
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
			"MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  Exchange: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"Agent:\n"+
			"  LocalStorePath: %s\n"+
			"  SyncInterval: %s\n"+
			"  TickInterval: %s\n",
		c.Env,
		c.MigrationsPath,
		c.AddressRedis,
		c.DB,
		c.Exchange,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.LocalStorePath,
		c.SyncInterval,
		c.TickInterval,
	)
}
