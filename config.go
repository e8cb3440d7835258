package otp

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the file form of the server and client settings.
// Command line flags take precedence over it.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
}

// ServerConfig holds the otp-server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	Role            Role     `yaml:"role"`
	Backlog         int      `yaml:"backlog"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	MaxFrameSize    int      `yaml:"max_frame_size"`
	RequireFullKey  bool     `yaml:"require_full_key"`
	MetricsAddr     string   `yaml:"metrics_addr"`
}

// ClientConfig holds the otp-client settings.
// Deadline bounds a whole request; the other timeouts apply per operation.
type ClientConfig struct {
	Host         string   `yaml:"host"`
	Port         int      `yaml:"port"`
	Role         Role     `yaml:"role"`
	DialTimeout  Duration `yaml:"dial_timeout"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	Deadline     Duration `yaml:"deadline"`
}

// Duration is a time.Duration written as a string such as "30s" in YAML.
type Duration struct{ time.Duration }

// UnmarshalYAML parses the value with time.ParseDuration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", s)
	}
	d.Duration = dd
	return nil
}

// MarshalYAML writes the duration in time.Duration.String form.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML accepts "encrypt" or "decrypt" in any case.
func (r *Role) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	role, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// MarshalYAML writes the role name, "Encrypt" or "Decrypt".
func (r Role) MarshalYAML() (any, error) {
	return r.String(), nil
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Role:            RoleDecrypt,
			Backlog:         5,
			ReadTimeout:     Duration{defaultReadTimeout},
			WriteTimeout:    Duration{defaultWriteTimeout},
			ShutdownTimeout: Duration{5 * time.Second},
			MaxFrameSize:    defaultMaxFrameSize,
		},
		Client: ClientConfig{
			Host:         "localhost",
			Role:         RoleDecrypt,
			DialTimeout:  Duration{defaultDialTimeout},
			ReadTimeout:  Duration{defaultReadTimeout},
			WriteTimeout: Duration{defaultWriteTimeout},
			Deadline:     Duration{2 * time.Minute},
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig, so omitted keys keep their defaults.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Options returns the worker options described by c.
func (c ServerConfig) Options(logger Logger) []Option {
	return []Option{
		LoggerOption(logger),
		ReadTimeoutOption(c.ReadTimeout.Duration),
		WriteTimeoutOption(c.WriteTimeout.Duration),
		MaxFrameSizeOption(c.MaxFrameSize),
		RequireFullKeyOption(c.RequireFullKey),
	}
}

// ServerOptions returns the dispatcher options described by c.
func (c ServerConfig) ServerOptions(logger Logger) []ServerOption {
	return []ServerOption{
		ServerLoggerOption(logger),
		ServerBacklogOption(c.Backlog),
		ServerShutdownTimeoutOption(c.ShutdownTimeout.Duration),
	}
}

// Options returns the client options described by c.
func (c ClientConfig) Options(logger Logger) []ClientOption {
	return []ClientOption{
		ClientLoggerOption(logger),
		ClientDialTimeoutOption(c.DialTimeout.Duration),
		ClientReadTimeoutOption(c.ReadTimeout.Duration),
		ClientWriteTimeoutOption(c.WriteTimeout.Duration),
	}
}
