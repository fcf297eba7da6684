package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/alexjoedt/imagestore/internal/logging"
)

// EnvPrefix is prepended to every environment override, e.g.
// IMAGESTORE_STORAGE_ROOT for storage.root.
const EnvPrefix = "IMAGESTORE"

type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	Gzip         bool          `mapstructure:"gzip" yaml:"gzip"`
	CORS         CORSConfig    `mapstructure:"cors" yaml:"cors"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins" yaml:"allow_origins"`
}

type StorageConfig struct {
	Root           string `mapstructure:"root" yaml:"root"`
	DirMode        string `mapstructure:"dir_mode" yaml:"dir_mode"`
	FileMode       string `mapstructure:"file_mode" yaml:"file_mode"`
	CatalogWorkers int    `mapstructure:"catalog_workers" yaml:"catalog_workers"`
	// UniqueNames appends a random suffix to file names so uploads in the
	// same second do not replace each other.
	UniqueNames bool `mapstructure:"unique_names" yaml:"unique_names"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// SetDefaults registers every key with its default so that env overrides
// and Unmarshal see the full key set.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:3000")
	v.SetDefault("server.max_body_bytes", 32<<20)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.gzip", true)
	v.SetDefault("server.cors.allow_origins", []string{"*"})

	v.SetDefault("storage.root", "transferred_images")
	v.SetDefault("storage.dir_mode", "0755")
	v.SetDefault("storage.file_mode", "0644")
	v.SetDefault("storage.catalog_workers", 4)
	v.SetDefault("storage.unique_names", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// NewViper returns a viper instance with defaults and environment
// overrides wired up.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file at path into v and decodes the
// result. Values resolve as flag > env > file > default.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q: %w", path, err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}

	if c.Storage.Root == "" {
		errs = append(errs, errors.New("storage.root is required"))
	}
	if c.Storage.CatalogWorkers < 1 {
		errs = append(errs, fmt.Errorf("storage.catalog_workers must be at least 1, got %d", c.Storage.CatalogWorkers))
	}
	if _, _, err := c.Storage.Modes(); err != nil {
		errs = append(errs, err)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path))
	}

	return errors.Join(errs...)
}

// Modes parses the octal directory and file permission strings.
func (s StorageConfig) Modes() (dir os.FileMode, file os.FileMode, err error) {
	dir, err = parseMode("storage.dir_mode", s.DirMode)
	if err != nil {
		return 0, 0, err
	}
	file, err = parseMode("storage.file_mode", s.FileMode)
	if err != nil {
		return 0, 0, err
	}
	return dir, file, nil
}

func parseMode(key, value string) (os.FileMode, error) {
	mode, err := strconv.ParseUint(value, 8, 32)
	if err != nil || mode > 0o777 {
		return 0, fmt.Errorf("%s must be an octal permission like 0755, got %q", key, value)
	}
	return os.FileMode(mode), nil
}
