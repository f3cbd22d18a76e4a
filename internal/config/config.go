package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug   bool    `yaml:"debug" env:"DEBUG"`
	Limiter Limiter `yaml:"limiter"`
	Cors    Cors    `yaml:"cors"`
	Auth    Auth    `yaml:"auth"`
	Server  Server  `yaml:"server"`
	DB      DB      `yaml:"db"`
	SMTP    SMTP    `yaml:"smtp"`
}

type Limiter struct {
	Enabled bool    `yaml:"enabled" env:"LIMITER_ENABLED"`
	Rps     float64 `yaml:"rps" env-default:"20"`
	Burst   int     `yaml:"burst" env-default:"5"`
}

type Cors struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

type Auth struct {
	SecretKey           string        `yaml:"secret_key" env:"AUTH_SECRET_KEY" env-required:"true"`
	AccessTokenTTL      time.Duration `yaml:"access_token_ttl" env-default:"24h"`
	ConfirmationCodeTTL time.Duration `yaml:"confirmation_code_ttl" env-default:"24h"`
}

type Server struct {
	Port string `yaml:"port" env:"SERVER_PORT" env-default:"8000"`
	Host string `yaml:"host" env:"SERVER_HOST" env-default:"localhost"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"20s"`
}

type DB struct {
	Dsn             string        `yaml:"dsn" env:"DB_DSN" env-required:"true"`
	MaxConns        int           `yaml:"max_conns" env-default:"25"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env-default:"10m"`
}

type SMTP struct {
	Host         string        `yaml:"host" env:"SMTP_HOST" env-default:"localhost"`
	Port         int           `yaml:"port" env:"SMTP_PORT" env-default:"25"`
	Username     string        `yaml:"username" env:"SMTP_USERNAME"`
	Password     string        `yaml:"password" env:"SMTP_PASSWORD"`
	Sender       string        `yaml:"sender" env:"SMTP_SENDER" env-default:"YaMDb <noreply@yamdb.local>"`
	Timeout      time.Duration `yaml:"timeout" env-default:"5s"`
	RetriesCount int           `yaml:"retries_count" env-default:"1"`
}

// Load reads the yaml config at configPath, applying env overrides.
// Values from a .env file in the working directory are exported first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	var cfg Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file %s not found", configPath)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return cfg
}
