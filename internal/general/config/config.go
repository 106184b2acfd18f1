package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

type Config struct {
	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"database"`
	} `yaml:"database"`
	RabbitMQ struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"rabbitmq"`
	Services struct {
		TripServicePort    int `yaml:"trip_service"`
		BookingServicePort int `yaml:"booking_service"`
		NotificationPort   int `yaml:"notification_worker"`
		AdminServicePort   int `yaml:"admin_service"`
	} `yaml:"services"`
	JWT struct {
		SecretKey string `yaml:"secret_key"`
	} `yaml:"jwt"`
	Stripe struct {
		SecretKey string `yaml:"secret_key"`
		Currency  string `yaml:"currency"`
	} `yaml:"stripe"`
	CostService struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"cost_service"`
	Geocoding struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"geocoding"`
	Search struct {
		DefaultRadiusMeters float64 `yaml:"default_radius_m"`
		MaxRadiusMeters     float64 `yaml:"max_radius_m"`
	} `yaml:"search"`
}

const (
	DefaultGeocodingURL = "https://maps.googleapis.com/maps/api/geocode/json"
)

// LoadFromFile loads an optional .env file, reads YAML config from path,
// applies environment overrides and defaults, then validates the result.
func LoadFromFile(path string) (*Config, error) {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML bytes into a validated Config.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalWithOptions(raw, &cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyEnv lets secrets live outside the YAML file.
func applyEnv(cfg *Config) {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&cfg.Database.Password, "DB_PASSWORD")
	override(&cfg.RabbitMQ.Password, "RABBITMQ_PASSWORD")
	override(&cfg.JWT.SecretKey, "JWT_SECRET")
	override(&cfg.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	override(&cfg.Geocoding.APIKey, "GOOGLE_MAPS_API_KEY")
	override(&cfg.CostService.URL, "COST_SERVICE_URL")
}

func applyDefaults(cfg *Config) {
	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	// Services
	if cfg.Services.TripServicePort == 0 {
		cfg.Services.TripServicePort = 3003
	}
	if cfg.Services.BookingServicePort == 0 {
		cfg.Services.BookingServicePort = 3004
	}
	if cfg.Services.NotificationPort == 0 {
		cfg.Services.NotificationPort = 3006
	}
	if cfg.Services.AdminServicePort == 0 {
		cfg.Services.AdminServicePort = 3007
	}

	if cfg.Stripe.Currency == "" {
		cfg.Stripe.Currency = "usd"
	}
	if cfg.CostService.Timeout == 0 {
		cfg.CostService.Timeout = 5 * time.Second
	}
	if cfg.Geocoding.BaseURL == "" {
		cfg.Geocoding.BaseURL = DefaultGeocodingURL
	}
	if cfg.Search.DefaultRadiusMeters == 0 {
		cfg.Search.DefaultRadiusMeters = 5000
	}
	if cfg.Search.MaxRadiusMeters == 0 {
		cfg.Search.MaxRadiusMeters = 50000
	}
}

func (c *Config) validate() error {
	var problems []string

	// DB
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, "database.port must be in 1..65535")
	}
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Password == "" {
		problems = append(problems, "database.password is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.database is required")
	}

	// RabbitMQ
	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "rabbitmq.port must be in 1..65535")
	}
	if c.RabbitMQ.User == "" {
		problems = append(problems, "rabbitmq.user is required")
	}
	if c.RabbitMQ.Password == "" {
		problems = append(problems, "rabbitmq.password is required")
	}

	// Services
	if c.Services.TripServicePort <= 0 || c.Services.TripServicePort > 65535 {
		problems = append(problems, "services.trip_service must be in 1..65535")
	}
	if c.Services.BookingServicePort <= 0 || c.Services.BookingServicePort > 65535 {
		problems = append(problems, "services.booking_service must be in 1..65535")
	}
	if c.Services.NotificationPort <= 0 || c.Services.NotificationPort > 65535 {
		problems = append(problems, "services.notification_worker must be in 1..65535")
	}
	if c.Services.AdminServicePort <= 0 || c.Services.AdminServicePort > 65535 {
		problems = append(problems, "services.admin_service must be in 1..65535")
	}

	if c.JWT.SecretKey == "" {
		problems = append(problems, "jwt.secret_key is required")
	}
	if c.CostService.Timeout < 0 {
		problems = append(problems, "cost_service.timeout must be positive")
	}
	if c.Search.DefaultRadiusMeters <= 0 || c.Search.DefaultRadiusMeters > c.Search.MaxRadiusMeters {
		problems = append(problems, "search.default_radius_m must be in (0, search.max_radius_m]")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// DSN renders a postgres URL with escaped credentials.
func (c *Config) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port)),
		Path:   "/" + c.Database.Name,
		User:   url.UserPassword(c.Database.User, c.Database.Password),
	}
	q := url.Values{}
	q.Set("sslmode", "disable")
	u.RawQuery = q.Encode()
	return u.String()
}

// AMQPURL renders the broker URL with escaped credentials.
func (c *Config) AMQPURL() string {
	u := &url.URL{
		Scheme: "amqp",
		Host:   net.JoinHostPort(c.RabbitMQ.Host, strconv.Itoa(c.RabbitMQ.Port)),
		Path:   "/",
		User:   url.UserPassword(c.RabbitMQ.User, c.RabbitMQ.Password),
	}
	return u.String()
}
