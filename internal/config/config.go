package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/fabolze/SoAWebApp-sub000/internal/database"
)

// Dataset sources.
const (
	SourceYAML     = "yaml"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Config holds the balance service configuration. Values come from defaults,
// then the YAML file, then BALANCE_* environment variables.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Simulation SimulationConfig `yaml:"simulation"`
	Datasets   DatasetsConfig   `yaml:"datasets"`
}

// ServerConfig holds HTTP and WebSocket settings.
type ServerConfig struct {
	Addr string `yaml:"addr" env:"BALANCE_ADDR"`

	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins" env:"BALANCE_ALLOWED_ORIGINS" envSeparator:","`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size" env:"BALANCE_MAX_MESSAGE_SIZE"`

	// AdminTokenHash is the bcrypt hash of the token that may refresh datasets.
	// Empty disables the refresh endpoint.
	AdminTokenHash string `yaml:"admin_token_hash" env:"BALANCE_ADMIN_TOKEN_HASH"`

	RequestTimeout time.Duration `yaml:"request_timeout" env:"BALANCE_REQUEST_TIMEOUT"`

	Connections ConnectionsConfig `yaml:"connections"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Frames      FrameLimitConfig  `yaml:"frames"`
}

// FrameLimitConfig throttles simulate frames on one WebSocket session.
type FrameLimitConfig struct {
	// MaxFrames per Window; 0 disables the throttle.
	MaxFrames int           `yaml:"max_frames" env:"BALANCE_WS_MAX_FRAMES"`
	Window    time.Duration `yaml:"window" env:"BALANCE_WS_FRAME_WINDOW"`
}

// ConnectionsConfig limits concurrent WebSocket sessions.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent sessions from a single IP address.
	// 0 means unlimited.
	MaxPerIP int `yaml:"max_per_ip" env:"BALANCE_WS_MAX_PER_IP"`

	// MaxTotal is the maximum concurrent sessions overall. 0 means unlimited.
	MaxTotal int `yaml:"max_total" env:"BALANCE_WS_MAX_TOTAL"`
}

// RateLimitConfig holds lockout settings for failed admin token attempts.
type RateLimitConfig struct {
	MaxAttempts int `yaml:"max_attempts" env:"BALANCE_AUTH_MAX_ATTEMPTS"`

	// LockoutSeconds is the initial lockout; it doubles per repeat lockout.
	LockoutSeconds    int `yaml:"lockout_seconds" env:"BALANCE_AUTH_LOCKOUT_SECONDS"`
	MaxLockoutSeconds int `yaml:"max_lockout_seconds" env:"BALANCE_AUTH_MAX_LOCKOUT_SECONDS"`
}

// SimulationConfig holds defaults applied to requests that leave them out.
type SimulationConfig struct {
	DefaultScenario string `yaml:"default_scenario" env:"BALANCE_DEFAULT_SCENARIO"`
	Runs            int    `yaml:"runs" env:"BALANCE_RUNS"`
	Seed            int64  `yaml:"seed" env:"BALANCE_SEED"`

	// Workers bounds sweep concurrency; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers" env:"BALANCE_WORKERS"`
}

// DatasetsConfig selects where entity collections are loaded from.
type DatasetsConfig struct {
	Source     string         `yaml:"source" env:"BALANCE_DATASET_SOURCE"`
	Dir        string         `yaml:"dir" env:"BALANCE_DATASET_DIR"`
	SQLitePath string         `yaml:"sqlite_path" env:"BALANCE_SQLITE_PATH"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host" env:"BALANCE_PG_HOST"`
	Port     int    `yaml:"port" env:"BALANCE_PG_PORT"`
	User     string `yaml:"user" env:"BALANCE_PG_USER"`
	Password string `yaml:"password" env:"BALANCE_PG_PASSWORD"`
	Database string `yaml:"database" env:"BALANCE_PG_DATABASE"`
	SSLMode  string `yaml:"sslmode" env:"BALANCE_PG_SSLMODE"`
}

// DefaultConfig returns a Config with local-development defaults.
func DefaultConfig() *Config {
	pg := database.DefaultPostgresConfig()
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{}, // Same-origin only by default
			MaxMessageSize: 64 * 1024,
			RequestTimeout: 30 * time.Second,
			Connections: ConnectionsConfig{
				MaxPerIP: 4,
				MaxTotal: 100,
			},
			RateLimit: RateLimitConfig{
				MaxAttempts:       5,
				LockoutSeconds:    30,
				MaxLockoutSeconds: 300,
			},
			Frames: FrameLimitConfig{
				MaxFrames: 20,
				Window:    10 * time.Second,
			},
		},
		Simulation: SimulationConfig{
			DefaultScenario: "duel_baseline",
			Runs:            300,
			Seed:            1,
		},
		Datasets: DatasetsConfig{
			Source:     SourceYAML,
			Dir:        "data/datasets",
			SQLitePath: "data/balance.db",
			Postgres: PostgresConfig{
				Host:     pg.Host,
				Port:     pg.Port,
				User:     pg.User,
				Database: pg.Database,
				SSLMode:  pg.SSLMode,
			},
		},
	}
}

// LoadConfig loads configuration from a YAML file and applies environment
// overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, config); err != nil {
				return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return config, err
		}
	}

	if err := env.Parse(config); err != nil {
		return config, fmt.Errorf("parse env: %w", err)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Datasets.Source {
	case SourceYAML, SourceSQLite, SourcePostgres:
	default:
		return fmt.Errorf("unknown dataset source %q (want yaml, sqlite or postgres)", c.Datasets.Source)
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("simulation workers must not be negative, got %d", c.Simulation.Workers)
	}
	if c.Server.Connections.MaxPerIP < 0 || c.Server.Connections.MaxTotal < 0 {
		return fmt.Errorf("connection limits must not be negative")
	}
	if c.Server.Frames.MaxFrames > 0 && c.Server.Frames.Window <= 0 {
		return fmt.Errorf("frames.window must be positive when max_frames is set")
	}
	if c.Server.MaxMessageSize <= 0 {
		return fmt.Errorf("max_message_size must be positive, got %d", c.Server.MaxMessageSize)
	}
	return nil
}

// Database converts the dataset settings to a database configuration. Only
// meaningful for the sqlite and postgres sources.
func (d DatasetsConfig) Database() database.Config {
	if d.Source == SourcePostgres {
		pg := database.DefaultPostgresConfig()
		pg.Host = d.Postgres.Host
		pg.Port = d.Postgres.Port
		pg.User = d.Postgres.User
		pg.Password = d.Postgres.Password
		pg.Database = d.Postgres.Database
		pg.SSLMode = d.Postgres.SSLMode
		return database.Config{Driver: string(database.DialectPostgres), Postgres: pg}
	}
	return database.DefaultConfig(d.SQLitePath)
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *ServerConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// isSameOrigin checks if the origin matches the request host.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means a non-browser client
	}

	// "http://localhost:3000" -> "localhost:3000"
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
