// Package config loads fosd settings and fos scenario files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pspoerri/fosfix/internal/api"
	"github.com/pspoerri/fosfix/internal/coord"
)

// Config holds all fosd configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	NATS    NATSConfig    `mapstructure:"nats"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Engine  EngineConfig  `mapstructure:"engine"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"`
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
	Queue   string `mapstructure:"queue"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	ServiceName string  `mapstructure:"service_name"`
}

type EngineConfig struct {
	System    string `mapstructure:"system"`
	Precision int    `mapstructure:"precision"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.body_limit", 64*1024)
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject", "fos.resect")
	v.SetDefault("nats.queue", "fosd")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 64)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("tracing.service_name", "fosd")
	v.SetDefault("engine.system", string(coord.SystemUTM))
	v.SetDefault("engine.precision", coord.MaxPrecision)
}

// Load reads configuration from file and environment variables. When file
// is empty an optional fosd.yaml is looked up in . and ./configs.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("fosd")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// Environment variables: FOS_SERVER_ADDR → server.addr
	v.SetEnvPrefix("FOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that configuration fields are present and sane, reporting
// every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.BodyLimit <= 0 {
		errs = append(errs, "server.body_limit must be positive")
	}
	if c.NATS.Enabled {
		if c.NATS.URL == "" {
			errs = append(errs, "nats.url is required when nats.enabled")
		}
		if c.NATS.Subject == "" {
			errs = append(errs, "nats.subject is required when nats.enabled")
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Tracing.Enabled {
		switch strings.ToLower(c.Tracing.Exporter) {
		case "stdout":
		case "otlp":
			if c.Tracing.Endpoint == "" {
				errs = append(errs, "tracing.endpoint is required for the otlp exporter")
			}
		default:
			errs = append(errs, fmt.Sprintf("tracing.exporter must be stdout or otlp, got %q", c.Tracing.Exporter))
		}
		if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
			errs = append(errs, fmt.Sprintf("tracing.sample_ratio must be within [0, 1], got %v", c.Tracing.SampleRatio))
		}
	}
	if _, err := coord.ForSystem(c.Engine.System); err != nil {
		errs = append(errs, fmt.Sprintf("engine.system: %v", err))
	}
	if c.Engine.Precision < 1 || c.Engine.Precision > coord.MaxPrecision {
		errs = append(errs, fmt.Sprintf("engine.precision must be 1-%d, got %d", coord.MaxPrecision, c.Engine.Precision))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// LoadScenario reads a resection request from a YAML, JSON or TOML file, as
// chosen by the file extension.
func LoadScenario(path string) (*api.ResectRequest, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var req api.ResectRequest
	if err := v.Unmarshal(&req); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	if len(req.Points) == 0 {
		return nil, fmt.Errorf("scenario %s defines no points", path)
	}
	return &req, nil
}
