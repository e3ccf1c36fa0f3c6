package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
	IdleTimeout       time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
}

// GRPC serves the admin API; an empty addr disables it.
type GRPC struct {
	Addr string `yaml:"addr"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type WS struct {
	PingEvery    time.Duration `yaml:"pingEvery"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	ReadLimit    int64         `yaml:"readLimit"`
	SendBuffer   int           `yaml:"sendBuffer"`
}

type Rooms struct {
	DisconnectPolicy string `yaml:"disconnectPolicy"` // cleanup|retain
	CodeAttempts     int    `yaml:"codeAttempts"`
}

// Postgres backs the event journal; an empty dsn disables it.
type Postgres struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
}

type Journal struct {
	Buffer int `yaml:"buffer"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // bowling-server
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	GRPC     GRPC     `yaml:"grpc"`
	CORS     CORS     `yaml:"cors"`
	WS       WS       `yaml:"ws"`
	Rooms    Rooms    `yaml:"rooms"`
	Postgres Postgres `yaml:"postgres"`
	Journal  Journal  `yaml:"journal"`
	Logging  Logging  `yaml:"logging"`
}

// LoadConfig reads the file named by CONFIG_PATH, or ./config/config.yaml.
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	switch c.Rooms.DisconnectPolicy {
	case "":
		c.Rooms.DisconnectPolicy = "cleanup"
	case "cleanup", "retain":
	default:
		return fmt.Errorf("rooms.disconnectPolicy: unknown value %q", c.Rooms.DisconnectPolicy)
	}
	if c.Rooms.CodeAttempts < 0 {
		return errors.New("rooms.codeAttempts must not be negative")
	}
	if c.WS.ReadLimit < 0 || c.WS.SendBuffer < 0 {
		return errors.New("ws.readLimit and ws.sendBuffer must not be negative")
	}

	// defaults
	if c.HTTP.ReadHeaderTimeout == 0 {
		c.HTTP.ReadHeaderTimeout = 10 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.WS.PingEvery == 0 {
		c.WS.PingEvery = 15 * time.Second
	}
	if c.WS.WriteTimeout == 0 {
		c.WS.WriteTimeout = 5 * time.Second
	}
	if c.WS.ReadLimit == 0 {
		c.WS.ReadLimit = 64 << 10
	}
	if c.WS.SendBuffer == 0 {
		c.WS.SendBuffer = 64
	}
	if c.Rooms.CodeAttempts == 0 {
		c.Rooms.CodeAttempts = 16
	}
	if c.Journal.Buffer == 0 {
		c.Journal.Buffer = 256
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "bowling-server"
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
