// Package config loads the p2pcam application configuration from a file and
// P2PCAM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/backkem/p2pcam/pkg/camera"
	"github.com/backkem/p2pcam/pkg/httpapi"
	"github.com/backkem/p2pcam/pkg/protocol"
	"github.com/backkem/p2pcam/pkg/publish"
	"github.com/pion/logging"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. P2PCAM_IP_ADDRESS.
const EnvPrefix = "P2PCAM"

var (
	// ErrInvalidFlag is returned when a 0/1 option has another value.
	ErrInvalidFlag = errors.New("config: flag must be 0 or 1")

	// ErrInvalidLogLevel is returned for an unknown log level.
	ErrInvalidLogLevel = errors.New("config: unknown log level")

	// ErrInvalidAddress is returned when host or ip_address is not an IP.
	ErrInvalidAddress = errors.New("config: invalid IP address")
)

// MQTT holds the publisher settings.
type MQTT struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	QoS      int    `mapstructure:"qos"`
	Retain   bool   `mapstructure:"retain"`
}

// HTTP holds the snapshot server settings.
type HTTP struct {
	Listen          string        `mapstructure:"listen"`
	SnapshotTimeout time.Duration `mapstructure:"snapshot_timeout"`
}

// Config is the application configuration.
type Config struct {
	Name      string `mapstructure:"name"`
	Host      string `mapstructure:"host"`
	IPAddress string `mapstructure:"ip_address"`

	HorizontalFlip int `mapstructure:"horizontal_flip"`
	VerticalFlip   int `mapstructure:"vertical_flip"`
	Timestamp      int `mapstructure:"timestamp"`

	LocalPort         int           `mapstructure:"local_port"`
	RemotePort        int           `mapstructure:"remote_port"`
	ReceiveTimeout    time.Duration `mapstructure:"receive_timeout"`
	FragmentThreshold int           `mapstructure:"fragment_threshold"`

	LogLevel string `mapstructure:"log_level"`

	MQTT MQTT `mapstructure:"mqtt"`
	HTTP HTTP `mapstructure:"http"`
}

// Load reads the configuration. An empty path searches for p2pcam.yaml in
// the working directory and $HOME/.p2pcam; a missing file is not an error.
func Load(path string) (*Config, error) {
	v, err := initViper(path)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func initViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("p2pcam")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.p2pcam")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("name", "camera")
	v.SetDefault("host", camera.DefaultHostAddress)
	v.SetDefault("ip_address", "")
	v.SetDefault("horizontal_flip", 0)
	v.SetDefault("vertical_flip", 0)
	v.SetDefault("timestamp", 0)
	v.SetDefault("local_port", protocol.DefaultLocalPort)
	v.SetDefault("remote_port", protocol.DefaultRemotePort)
	v.SetDefault("receive_timeout", protocol.DefaultReceiveTimeout)
	v.SetDefault("fragment_threshold", protocol.DefaultFragmentThreshold)
	v.SetDefault("log_level", "info")
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.topic", "")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.qos", 0)
	v.SetDefault("mqtt.retain", true)
	v.SetDefault("http.listen", ":8080")
	v.SetDefault("http.snapshot_timeout", 30*time.Second)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the options that are not validated by the camera package.
func (c *Config) Validate() error {
	for name, val := range map[string]int{
		"horizontal_flip": c.HorizontalFlip,
		"vertical_flip":   c.VerticalFlip,
		"timestamp":       c.Timestamp,
	} {
		if val != 0 && val != 1 {
			return fmt.Errorf("%w: %s=%d", ErrInvalidFlag, name, val)
		}
	}
	if c.IPAddress == "" {
		return camera.ErrTargetRequired
	}
	if net.ParseIP(c.IPAddress) == nil || net.ParseIP(c.Host) == nil {
		return ErrInvalidAddress
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Camera returns the session configuration.
func (c *Config) Camera(factory logging.LoggerFactory) camera.Config {
	return camera.Config{
		HostAddress:       c.Host,
		TargetAddress:     c.IPAddress,
		LocalPort:         c.LocalPort,
		RemotePort:        c.RemotePort,
		ReceiveTimeout:    c.ReceiveTimeout,
		FragmentThreshold: c.FragmentThreshold,
		HorizontalFlip:    c.HorizontalFlip == 1,
		VerticalFlip:      c.VerticalFlip == 1,
		Timestamp:         c.Timestamp == 1,
		LoggerFactory:     factory,
	}
}

// Publish returns the publisher configuration.
func (c *Config) Publish(factory logging.LoggerFactory) publish.Config {
	return publish.Config{
		Broker:        c.MQTT.Broker,
		Name:          c.Name,
		Topic:         c.MQTT.Topic,
		ClientID:      c.MQTT.ClientID,
		Username:      c.MQTT.Username,
		Password:      c.MQTT.Password,
		QoS:           byte(c.MQTT.QoS),
		Retain:        c.MQTT.Retain,
		LoggerFactory: factory,
	}
}

// HTTPServer returns the snapshot server configuration.
func (c *Config) HTTPServer(factory logging.LoggerFactory) *httpapi.Config {
	cfg := httpapi.DefaultConfig()
	cfg.Addr = c.HTTP.Listen
	cfg.Name = c.Name
	if c.HTTP.SnapshotTimeout > 0 {
		cfg.SnapshotTimeout = c.HTTP.SnapshotTimeout
	}
	cfg.LoggerFactory = factory
	return cfg
}

// LoggerFactory returns a pion logger factory at the configured level.
func (c *Config) LoggerFactory() logging.LoggerFactory {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		level = logging.LogLevelInfo
	}
	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = level
	return f
}

// ParseLogLevel maps a level name onto a pion log level.
func ParseLogLevel(s string) (logging.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off":
		return logging.LogLevelDisabled, nil
	case "error":
		return logging.LogLevelError, nil
	case "warn", "warning":
		return logging.LogLevelWarn, nil
	case "", "info":
		return logging.LogLevelInfo, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "trace":
		return logging.LogLevelTrace, nil
	default:
		return logging.LogLevelDisabled, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
}
