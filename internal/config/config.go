package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all mem configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Recall   RecallConfig   `yaml:"recall"`
	Dedupe   DedupeConfig   `yaml:"dedupe"`
	Similar  SimilarConfig  `yaml:"similar"`

	// TagRules adds or replaces auto-tag triggers per tag. A key that
	// matches a built-in tag replaces its trigger list wholesale.
	TagRules map[string][]string `yaml:"tag_rules"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RecallConfig struct {
	Limit int `yaml:"limit"`
}

type DedupeConfig struct {
	Threshold float64 `yaml:"threshold"`
}

type SimilarConfig struct {
	Limit     int     `yaml:"limit"`
	Threshold float64 `yaml:"threshold"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 7690,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime, see cli.resolveDBPath
		},
		Recall: RecallConfig{
			Limit: 10,
		},
		Dedupe: DedupeConfig{
			Threshold: -3.0,
		},
		Similar: SimilarConfig{
			Limit:     3,
			Threshold: -5.0,
		},
	}
}

// Load reads the YAML file at path layered over the defaults. An empty
// path returns the defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve locates the config file to load. Precedence: the explicit
// path, $MEM_CONFIG, ./.mem/config.yaml, then ~/.mem/config.yaml.
// Empty means no config file exists and Load should fall back to
// defaults.
func Resolve(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("MEM_CONFIG"); env != "" {
		return env
	}
	local := filepath.Join(".mem", "config.yaml")
	if _, err := os.Stat(local); err == nil {
		return local
	}
	if home, err := os.UserHomeDir(); err == nil {
		global := filepath.Join(home, ".mem", "config.yaml")
		if _, err := os.Stat(global); err == nil {
			return global
		}
	}
	return ""
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
