package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/availdep/pkg/errors"
	"github.com/matzehuels/availdep/pkg/pipeline"
)

// Cache backends selectable in the config file.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendNone  = "none"
)

// Course sources selectable in the config file.
const (
	sourceDir   = "dir"
	sourceMongo = "mongo"
)

const defaultServerAddr = "127.0.0.1:8080"

// Config is the contents of config.toml. Every field is optional.
//
//	missing_label = "Fehlende Aktivität"
//	max_depth = 32
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "12h"
//
//	[source]
//	backend = "mongo"
//
//	[mongo]
//	uri = "mongodb://localhost:27017"
type Config struct {
	MissingLabel string `toml:"missing_label"`
	MaxDepth     int    `toml:"max_depth"`
	MaxWeight    int    `toml:"max_weight"`

	Cache  CacheConfig  `toml:"cache"`
	Source SourceConfig `toml:"source"`
	Server ServerConfig `toml:"server"`
	Mongo  MongoConfig  `toml:"mongo"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
	TTL       string `toml:"ttl"`
}

// SourceConfig selects where course records come from.
type SourceConfig struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// MongoConfig locates the module collection for the mongo source.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() *Config {
	return &Config{
		Cache:  CacheConfig{Backend: backendFile},
		Source: SourceConfig{Backend: sourceDir, Dir: "."},
		Server: ServerConfig{Addr: defaultServerAddr},
	}
}

// loadConfig reads the config file at path. An empty path means the default
// location, which may be absent; an explicitly named file must exist.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = configPath(); err != nil {
			return cfg, nil
		}
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "":
		c.Cache.Backend = backendFile
	case backendFile, backendNone:
	case backendRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache backend redis needs redis_addr")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	switch c.Source.Backend {
	case "":
		c.Source.Backend = sourceDir
	case sourceDir:
	case sourceMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("source backend mongo needs [mongo] uri")
		}
	default:
		return fmt.Errorf("unknown source backend %q", c.Source.Backend)
	}
	if c.Source.Dir == "" {
		c.Source.Dir = "."
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultServerAddr
	}

	if _, err := c.ttl(); err != nil {
		return err
	}
	if c.MaxDepth < 0 || c.MaxWeight < 0 {
		return fmt.Errorf("max_depth and max_weight must not be negative")
	}
	if c.MissingLabel != "" {
		return errors.ValidateLabel(c.MissingLabel)
	}
	return nil
}

// ttl returns the configured cache TTL, zero for the built-in defaults.
func (c *Config) ttl() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, fmt.Errorf("cache ttl: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("cache ttl must not be negative")
	}
	return d, nil
}

// pipelineOptions returns the build options the config sets. Zero values
// are filled in by pipeline.Options.ValidateAndSetDefaults.
func (c *Config) pipelineOptions(mode pipeline.Mode) pipeline.Options {
	return pipeline.Options{
		Mode:         mode,
		MissingLabel: c.MissingLabel,
		MaxDepth:     c.MaxDepth,
		MaxWeight:    c.MaxWeight,
	}
}

// configPath returns the default config file, following XDG
// (~/.config/availdep/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
