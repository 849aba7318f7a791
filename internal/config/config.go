// Package config provides configuration management for Zy
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Chat    ChatConfig    `mapstructure:"chat"`
	Model   ModelConfig   `mapstructure:"model"`
	Control ControlConfig `mapstructure:"control"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Window  WindowConfig  `mapstructure:"window"`
	Log     LogConfig     `mapstructure:"log"`
}

// ChatConfig configures the backend chat client
type ChatConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ModelConfig points at the avatar model
type ModelConfig struct {
	Path  string `mapstructure:"path"`  // .vrm, .glb or .gltf
	Watch bool   `mapstructure:"watch"` // reload joints when the file changes
}

// ControlConfig tunes pose control
type ControlConfig struct {
	StepDelay time.Duration `mapstructure:"step_delay"` // pause between sequence steps
	RandomMax int           `mapstructure:"random_max"` // default count offered for randomize
}

// SyncConfig configures the websocket pose sync server
type SyncConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	SendBuffer int    `mapstructure:"send_buffer"` // per-client queued messages before drop
}

// WindowConfig configures the desktop window
type WindowConfig struct {
	Title  string `mapstructure:"title"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
}

// LogConfig configures logging
type LogConfig struct {
	Dir     string `mapstructure:"dir"`
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	dir, _ := GetConfigDir()
	return &Config{
		Chat: ChatConfig{
			ServerURL: "http://localhost:8000",
			Timeout:   30 * time.Second,
		},
		Model: ModelConfig{
			Path:  filepath.Join(dir, "models", "avatar.vrm"),
			Watch: true,
		},
		Control: ControlConfig{
			StepDelay: 800 * time.Millisecond,
			RandomMax: 5,
		},
		Sync: SyncConfig{
			ListenAddr: "127.0.0.1:8765",
			SendBuffer: 64,
		},
		Window: WindowConfig{
			Title:  "Zy",
			Width:  1280,
			Height: 800,
		},
		Log: LogConfig{
			Dir:     filepath.Join(dir, "logs"),
			Level:   "debug",
			Console: true,
		},
	}
}

// Load reads configuration from ~/.zy/config.yaml and ZY_* environment
// variables. A missing file is created from the defaults.
func Load() (*Config, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadFrom(dir)
}

// LoadFrom is Load with an explicit config directory.
func LoadFrom(dir string) (*Config, error) {
	cfg := DefaultConfig()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return cfg, err
	}

	v := newViper(cfg)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := SaveTo(dir, cfg); err != nil {
			return cfg, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to ~/.zy/config.yaml
func Save(cfg *Config) error {
	dir, err := GetConfigDir()
	if err != nil {
		return err
	}
	return SaveTo(dir, cfg)
}

// SaveTo writes the configuration to dir/config.yaml.
func SaveTo(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	v := viper.New()
	for k, val := range flatten(cfg) {
		v.Set(k, val)
	}
	return v.WriteConfigAs(filepath.Join(dir, "config.yaml"))
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".zy"), nil
}

// newViper registers every key with its default so that AutomaticEnv can
// override nested keys (ZY_CHAT_SERVER_URL and so on).
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("ZY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range flatten(cfg) {
		v.SetDefault(k, val)
	}
	return v
}

func flatten(cfg *Config) map[string]any {
	return map[string]any{
		"chat.server_url":    cfg.Chat.ServerURL,
		"chat.timeout":       cfg.Chat.Timeout.String(),
		"model.path":         cfg.Model.Path,
		"model.watch":        cfg.Model.Watch,
		"control.step_delay": cfg.Control.StepDelay.String(),
		"control.random_max": cfg.Control.RandomMax,
		"sync.listen_addr":   cfg.Sync.ListenAddr,
		"sync.send_buffer":   cfg.Sync.SendBuffer,
		"window.title":       cfg.Window.Title,
		"window.width":       cfg.Window.Width,
		"window.height":      cfg.Window.Height,
		"log.dir":            cfg.Log.Dir,
		"log.level":          cfg.Log.Level,
		"log.console":        cfg.Log.Console,
	}
}
