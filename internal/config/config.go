package config

import (
	"time"
)

const (
	ModeLive = "live"
	ModeDemo = "demo"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const DefaultPath = "config/application-local.yaml"

type Config struct {
	App        AppConfig        `yaml:"app"`
	HTTP       HTTPConfig       `yaml:"http"`
	Store      StoreConfig      `yaml:"store"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Redis      RedisConfig      `yaml:"redis"`
	Submission SubmissionConfig `yaml:"submission"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Log        LogConfig        `yaml:"log"`
}

type AppConfig struct {
	// live persists and notifies, demo answers submissions with a synthetic success
	Mode string `yaml:"mode" validate:"oneof=live demo"`
}

type HTTPConfig struct {
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	// proxies whose X-Forwarded-For is honoured when picking the client ip,
	// empty means the socket peer address is used
	TrustedProxies []string `yaml:"trusted_proxies" validate:"dive,ip|cidr"`
}

type StoreConfig struct {
	Driver          string        `yaml:"driver" validate:"oneof=postgres sqlite"`
	DSN             string        `yaml:"dsn"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
	MaxOpenConns    int           `yaml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `yaml:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" validate:"gte=0"`
	// bound for a single save, applied on a context detached from the request
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gt=0"`
}

type TelegramConfig struct {
	BotToken string        `yaml:"bot_token"`
	ChatID   string        `yaml:"chat_id"`
	APIBase  string        `yaml:"api_base" validate:"required,url"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
	Timezone string        `yaml:"timezone" validate:"required"`
}

type RedisConfig struct {
	// empty disables the vacancy catalog cache
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db" validate:"gte=0"`
	TTL         time.Duration `yaml:"ttl" validate:"gt=0"`
	DialTimeout time.Duration `yaml:"dial_timeout" validate:"gte=0"`
}

type SubmissionConfig struct {
	// increment the vacancy view counter when a submission resolves it
	CountViews bool     `yaml:"count_views"`
	Strategies []string `yaml:"strategies" validate:"min=1,dive,oneof=direct catalog"`
}

type RateLimitConfig struct {
	// requests per second per client ip, 0 disables the limiter
	RPS   float64 `yaml:"rps" validate:"gte=0"`
	Burst int     `yaml:"burst" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `yaml:"pretty"`
}

// NewDefault returns the configuration used when no file is present.
func NewDefault() *Config {
	return &Config{
		App: AppConfig{Mode: ModeLive},
		HTTP: HTTPConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver:          DriverPostgres,
			AutoMigrate:     true,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			WriteTimeout:    10 * time.Second,
		},
		Telegram: TelegramConfig{
			APIBase:  "https://api.telegram.org",
			Timeout:  5 * time.Second,
			Timezone: "Europe/Moscow",
		},
		Redis: RedisConfig{
			TTL:         time.Minute,
			DialTimeout: 2 * time.Second,
		},
		Submission: SubmissionConfig{
			Strategies: []string{"direct", "catalog"},
		},
		RateLimit: RateLimitConfig{
			RPS:   1,
			Burst: 5,
		},
		Log: LogConfig{Level: "info"},
	}
}

func (c *Config) Demo() bool {
	return c.App.Mode == ModeDemo
}
