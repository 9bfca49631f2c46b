package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultPath = "./config/config.yaml"

type HTTP struct {
	Addr         string        `yaml:"addr"`         // ":8090"
	ReadTimeout  time.Duration `yaml:"readTimeout"`  // "10s"
	IdleTimeout  time.Duration `yaml:"idleTimeout"`  // "60s"
	Debug        bool          `yaml:"debug"`        // /debug/rooms
	AllowOrigins []string      `yaml:"allowOrigins"` // CORS + websocket origin check
}

type WS struct {
	Path           string        `yaml:"path"`           // "/ws"
	PingInterval   time.Duration `yaml:"pingInterval"`   // "15s"
	WriteWait      time.Duration `yaml:"writeWait"`      // "5s"
	SendQueue      int           `yaml:"sendQueue"`      // frames buffered per connection
	MaxMessageSize int64         `yaml:"maxMessageSize"` // bytes
}

type GRPC struct {
	Addr string `yaml:"addr"` // empty disables the health server
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // relay
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Postgres struct {
	DSN              string        `yaml:"dsn"` // empty disables snapshots
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	WS       WS       `yaml:"ws"`
	GRPC     GRPC     `yaml:"grpc"`
	Logging  Logging  `yaml:"logging"`
	Postgres Postgres `yaml:"postgres"`
}

// LoadConfig reads CONFIG_PATH (default ./config/config.yaml), applies
// environment overrides and fills defaults. A missing default file is not an
// error; a missing explicit CONFIG_PATH is.
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = defaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal yaml: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		c.HTTP.Addr = ":" + port
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Postgres.DSN = dsn
	}
	if env := os.Getenv("APP_ENV"); env != "" && c.Logging.Env == "" {
		c.Logging.Env = env
	}
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8090"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}

	if c.WS.Path == "" {
		c.WS.Path = "/ws"
	}
	if !strings.HasPrefix(c.WS.Path, "/") {
		return fmt.Errorf("ws.path must start with /, got %q", c.WS.Path)
	}
	if c.WS.PingInterval == 0 {
		c.WS.PingInterval = 15 * time.Second
	}
	if c.WS.WriteWait == 0 {
		c.WS.WriteWait = 5 * time.Second
	}
	if c.WS.SendQueue == 0 {
		c.WS.SendQueue = 64
	}
	if c.WS.SendQueue < 0 {
		return errors.New("ws.sendQueue must be positive")
	}
	if c.WS.MaxMessageSize == 0 {
		c.WS.MaxMessageSize = 1 << 16
	}

	if c.Postgres.SnapshotInterval == 0 {
		c.Postgres.SnapshotInterval = time.Minute
	}

	// дефолты логгера
	if c.Logging.Service == "" {
		c.Logging.Service = "relay"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	return nil
}
