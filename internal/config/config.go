// Package config loads server settings. Sources in increasing order of
// precedence: built-in defaults, a .env file, an optional config file,
// NEXUS_* environment variables and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when reading the environment.
const EnvPrefix = "NEXUS"

// Config holds the resolved settings.
type Config struct {
	DB           string `mapstructure:"db"`
	Addr         string `mapstructure:"addr"`
	Log          string `mapstructure:"log"`
	LogLevel     string `mapstructure:"log_level"`
	Env          string `mapstructure:"env"`
	Timezone     string `mapstructure:"timezone"`
	CacheVersion string `mapstructure:"cache_version"`
	AssetOrigin  string `mapstructure:"asset_origin"`
	Icon         string `mapstructure:"icon"`
}

var defaults = map[string]string{
	"db":            "nexus.sqlite3",
	"addr":          ":8080",
	"log":           "",
	"log_level":     "info",
	"env":           "production",
	"timezone":      "Local",
	"cache_version": "nexus-cache-v2",
	"asset_origin":  "",
	"icon":          "",
}

// Options tell Load where to look.
type Options struct {
	// EnvFile is a dotenv file; a missing file is ignored.
	EnvFile string
	// ConfigFile is an explicit viper config file (yaml, json, toml). A
	// missing file is an error.
	ConfigFile string
	// Overrides win over every other source. Keys are config keys.
	Overrides map[string]string
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if opts.EnvFile != "" {
		dotenv, err := godotenv.Read(opts.EnvFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", opts.EnvFile, err)
		}
		for k, val := range dotenv {
			key, ok := keyForEnv(k)
			if !ok {
				continue
			}
			// Real environment variables beat the dotenv file.
			if _, set := os.LookupEnv(k); !set {
				v.SetDefault(key, val)
			}
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for k, val := range opts.Overrides {
		if _, known := defaults[k]; !known {
			return nil, fmt.Errorf("unknown config key %q", k)
		}
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if cfg.CacheVersion == "" {
		return nil, errors.New("cache_version must not be empty")
	}
	return &cfg, nil
}

// Location returns the time zone used for date labels.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// keyForEnv maps NEXUS_LOG_LEVEL to log_level.
func keyForEnv(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, EnvPrefix+"_")
	if !ok {
		return "", false
	}
	key := strings.ToLower(rest)
	_, known := defaults[key]
	return key, known
}
