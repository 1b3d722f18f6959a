package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Duration unmarshals from YAML strings like "10s" or "1h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return oops.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)

	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Log      Log      `yaml:"log"`
	Telegram Telegram `yaml:"telegram"`
	Backend  Backend  `yaml:"backend"`
	Storage  Storage  `yaml:"storage"`
	Booking  Booking  `yaml:"booking"`
	Server   Server   `yaml:"server"`

	Locations []Location `yaml:"locations" validate:"required,min=1,dive"`
}

type Telegram struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789" validate:"required"`
	// Telegram user ids allowed to run admin commands
	AdminIDs []int64 `yaml:"admin_ids"`
}

type Backend struct {
	// Base URL of the booking backend
	BaseURL string `yaml:"base_url" example:"http://localhost:8080" validate:"required,url"`
	// Search/health endpoint path
	BridgePath string `yaml:"bridge_path" example:"/api/bridge"`
	// Booking cancellation endpoint path
	CancelPath string `yaml:"cancel_path" example:"/api/bridge/cancel"`
	// Auth scheme: none, api_key, bearer or basic
	AuthScheme string `yaml:"auth_scheme" example:"bearer" validate:"omitempty,oneof=none api_key bearer basic"`
	// Secret for the chosen auth scheme
	AuthSecret string `yaml:"auth_secret"`
	// Header name used by the api_key scheme
	APIKeyHeader string `yaml:"api_key_header" example:"X-API-Key"`
	// Per-request timeout
	RequestTimeout Duration `yaml:"request_timeout" example:"10s"`
	// Total attempts per call, including the first one
	MaxRetries int `yaml:"max_retries" example:"3" validate:"omitempty,min=1"`
	// Base delay of the exponential backoff between attempts
	RetryBackoffBase Duration `yaml:"retry_backoff_base" example:"500ms"`
}

type Storage struct {
	// Path to the users JSON file
	Path string `yaml:"path" example:"data/users.json"`
}

type Booking struct {
	// How long a booking stays active before it silently expires
	TTL Duration `yaml:"ttl" example:"1h"`
	// Requested reservation length sent to the backend
	DurationMinutes int `yaml:"duration_minutes" example:"80" validate:"omitempty,min=15,max=480"`
}

type Server struct {
	// Listen address of the status HTTP server, empty disables it
	Addr string `yaml:"addr" example:":9090"`
}

type Location struct {
	ID     string `yaml:"id" example:"main" validate:"required"`
	Name   string `yaml:"name" example:"Main building" validate:"required"`
	Floors []int  `yaml:"floors"`
}

type Log struct {
	// Path to the JSON log file, empty disables file logging
	Path string `yaml:"path" example:"logs/bot.log"`
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func (c *Config) Location(id string) (Location, bool) {
	for _, loc := range c.Locations {
		if loc.ID == id {
			return loc, true
		}
	}

	return Location{}, false
}

func Load() (*Config, error) {
	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var result Config

	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.Backend.BridgePath == "" {
		result.Backend.BridgePath = "/api/bridge"
	}
	if result.Backend.CancelPath == "" {
		result.Backend.CancelPath = "/api/bridge/cancel"
	}
	if result.Backend.AuthScheme == "" {
		result.Backend.AuthScheme = "none"
	}
	if result.Backend.APIKeyHeader == "" {
		result.Backend.APIKeyHeader = "X-API-Key"
	}
	if result.Backend.RequestTimeout <= 0 {
		result.Backend.RequestTimeout = Duration(10 * time.Second)
	}
	if result.Backend.MaxRetries <= 0 {
		result.Backend.MaxRetries = 3
	}
	if result.Backend.RetryBackoffBase <= 0 {
		result.Backend.RetryBackoffBase = Duration(500 * time.Millisecond)
	}
	if result.Storage.Path == "" {
		result.Storage.Path = "data/users.json"
	}
	if result.Booking.TTL <= 0 {
		result.Booking.TTL = Duration(time.Hour)
	}
	if result.Booking.DurationMinutes == 0 {
		result.Booking.DurationMinutes = 80
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}
