// Package config provides configuration management for peerchat.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultPort = 12345

// Config represents the peerchat configuration file.
type Config struct {
	Network NetworkConfig `yaml:"network"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// NetworkConfig contains the chat and API listeners and dial settings.
type NetworkConfig struct {
	ListenHost         string `yaml:"listen_host"`
	ListenPort         int    `yaml:"listen_port"`
	APIPort            int    `yaml:"api_port"`
	LocalAddr          string `yaml:"local_addr"` // empty means discover
	Connect            string `yaml:"connect"`
	DialTimeout        string `yaml:"dial_timeout"`
	KeyExchangeTimeout string `yaml:"key_exchange_timeout"` // empty or 0 disables
}

// StorageConfig says where key, cipher and transcript files go.
type StorageConfig struct {
	KeyDir     string `yaml:"key_dir"`
	Transcript string `yaml:"transcript"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			ListenPort:  DefaultPort,
			APIPort:     8080,
			DialTimeout: "3s",
		},
		Storage: StorageConfig{
			KeyDir: ".",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".peerchat", "config.yaml")
}

// Load loads the configuration from a file. Fields absent from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a file, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Network.ListenPort < 0 || c.Network.ListenPort > 65535 {
		return errors.Errorf("invalid listen_port %d", c.Network.ListenPort)
	}
	if c.Network.APIPort < 0 || c.Network.APIPort > 65535 {
		return errors.Errorf("invalid api_port %d", c.Network.APIPort)
	}
	if _, err := c.DialTimeout(); err != nil {
		return err
	}
	if _, err := c.KeyExchangeTimeout(); err != nil {
		return err
	}
	return nil
}

func (c *Config) DialTimeout() (time.Duration, error) {
	return parseDuration("dial_timeout", c.Network.DialTimeout)
}

func (c *Config) KeyExchangeTimeout() (time.Duration, error) {
	return parseDuration("key_exchange_timeout", c.Network.KeyExchangeTimeout)
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", field)
	}
	if d < 0 {
		return 0, errors.Errorf("invalid %s: negative duration", field)
	}
	return d, nil
}
