package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const appName = "buddy-render"

// EnvPrefix prefixes environment overrides, e.g. BUDDY_ANIMATION_SPEED.
const EnvPrefix = "BUDDY"

type Config struct {
	Animation AnimationConfig `mapstructure:"animation" yaml:"animation"`
	Markdown  MarkdownConfig  `mapstructure:"markdown" yaml:"markdown"`
	Highlight HighlightConfig `mapstructure:"highlight" yaml:"highlight"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// AnimationConfig controls how streaming messages are revealed.
// Unset overrides stay nil and fall back to values derived from Speed.
type AnimationConfig struct {
	Mode                string   `mapstructure:"mode" yaml:"mode"`                             // "typewriter" or "fade"
	Speed               float64  `mapstructure:"speed" yaml:"speed"`                           // default 25
	FadeDuration        *float64 `mapstructure:"fade_duration" yaml:"fade_duration,omitempty"` // ms
	SegmentDelay        *float64 `mapstructure:"segment_delay" yaml:"segment_delay,omitempty"` // ms
	ChunkSize           *float64 `mapstructure:"chunk_size" yaml:"chunk_size,omitempty"`       // characters per tick
	Delay               *float64 `mapstructure:"delay" yaml:"delay,omitempty"`                 // ms between ticks
	EnableTextAnimation bool     `mapstructure:"enable_text_animation" yaml:"enable_text_animation"`
}

type MarkdownConfig struct {
	Engine   string `mapstructure:"engine" yaml:"engine"`     // "regex" or "goldmark"
	Sanitize bool   `mapstructure:"sanitize" yaml:"sanitize"` // run the HTML allow-list
}

type HighlightConfig struct {
	Style string `mapstructure:"style" yaml:"style"` // chroma style name
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("animation.mode", "typewriter")
	v.SetDefault("animation.speed", 25)
	v.SetDefault("animation.enable_text_animation", true)
	v.SetDefault("markdown.engine", "regex")
	v.SetDefault("markdown.sanitize", true)
	v.SetDefault("highlight.style", "github-dark")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
}

// Load reads config.yaml from the config directory or the working
// directory. A missing file is not an error.
func Load() (*Config, error) {
	configPath, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	v := viper.GetViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	return load(v)
}

// LoadFile reads the config at path into a fresh viper instance.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - won't error if missing)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown enum values.
func (c *Config) Validate() error {
	switch c.Animation.Mode {
	case "typewriter", "fade":
	default:
		return fmt.Errorf("animation.mode: unknown mode %q", c.Animation.Mode)
	}
	switch c.Markdown.Engine {
	case "regex", "goldmark":
	default:
		return fmt.Errorf("markdown.engine: unknown engine %q", c.Markdown.Engine)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	return nil
}

// Marshal renders the config as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// GetConfigDir returns the XDG config directory for buddy-render.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config
func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, appName), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// Exists returns true if a config file exists
func Exists() bool {
	path, err := GetConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Save writes the config to the default path.
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(cfg, path)
}

// SaveFile writes the config to path, creating its directory.
func SaveFile(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
