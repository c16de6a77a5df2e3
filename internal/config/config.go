package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"

	"go.ngs.io/modisci/internal/adapter/archive"
)

// DefaultPath is read when no config file is given and it exists.
const DefaultPath = "modisci.yaml"

// Config is the complete modisci configuration.
type Config struct {
	Port    string        `mapstructure:"port" yaml:"port"`
	Tiles   TilesConfig   `mapstructure:"tiles" yaml:"tiles"`
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`
	CORS    CORSConfig    `mapstructure:"cors" yaml:"cors"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// TilesConfig locates the local sinusoidal tiles.
type TilesConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// ArchiveConfig configures the remote archive download and its cache.
type ArchiveConfig struct {
	URL       string `mapstructure:"url" yaml:"url"`
	Dir       string `mapstructure:"dir" yaml:"dir"`
	ChunkSize int    `mapstructure:"chunk_size" yaml:"chunk_size"`
	Username  string `mapstructure:"username" yaml:"username"`
	Password  string `mapstructure:"password" yaml:"password"`
	Netrc     string `mapstructure:"netrc" yaml:"netrc"`
}

// CORSConfig lists the origins allowed by the HTTP API. Empty allows all.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// LogConfig sets the logrus level.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Load reads configuration from defaults, an optional YAML file and
// MODISCI_* environment variables, in increasing priority. An explicit path
// must exist; DefaultPath is only used when present.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set Defaults
	v.SetDefault("port", "8080")
	v.SetDefault("tiles.dir", "./data/tiles")
	v.SetDefault("archive.url", archive.DefaultURL)
	v.SetDefault("archive.dir", archive.DefaultDirectory)
	v.SetDefault("archive.chunk_size", archive.DefaultChunkSize)
	v.SetDefault("archive.username", "")
	v.SetDefault("archive.password", "")
	v.SetDefault("archive.netrc", "")
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("log.level", "info")

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Support Environment Variables
	v.SetEnvPrefix("MODISCI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port must not be empty")
	}
	if c.Tiles.Dir == "" {
		return errors.New("tiles.dir must not be empty")
	}
	if c.Archive.ChunkSize <= 0 {
		return fmt.Errorf("archive.chunk_size must be positive, got %d", c.Archive.ChunkSize)
	}
	u, err := url.Parse(c.Archive.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("archive.url %q is not an absolute URL", c.Archive.URL)
	}
	return nil
}

// ArchiveOptions returns the fetcher settings.
func (c *Config) ArchiveOptions() archive.Options {
	return archive.Options{
		Username:  c.Archive.Username,
		Password:  c.Archive.Password,
		URL:       c.Archive.URL,
		Directory: c.Archive.Dir,
		ChunkSize: c.Archive.ChunkSize,
		NetrcPath: c.Archive.Netrc,
	}
}
