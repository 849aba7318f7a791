package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChinaCraig/Zy/internal/config"
	"github.com/ChinaCraig/Zy/internal/sequence"
)

// SettingsData represents the settings the frontend may edit
type SettingsData struct {
	ServerURL   string `json:"serverUrl"`
	ModelPath   string `json:"modelPath"`
	WatchModel  bool   `json:"watchModel"`
	StepDelayMs int    `json:"stepDelayMs"`
	RandomMax   int    `json:"randomMax"`
}

// SettingsBridge exposes settings methods to the frontend
type SettingsBridge struct {
	ctx    context.Context
	cfg    *config.Config
	save   func(*config.Config) error
	logger zerolog.Logger
}

// NewSettingsBridge creates a new settings bridge
func NewSettingsBridge(cfg *config.Config, logger zerolog.Logger) *SettingsBridge {
	return &SettingsBridge{
		cfg:    cfg,
		save:   config.Save,
		logger: logger.With().Str("component", "settings").Logger(),
	}
}

// Bind sets the Wails runtime context
func (b *SettingsBridge) Bind(ctx context.Context) {
	b.ctx = ctx
}

// GetSettings returns current settings
func (b *SettingsBridge) GetSettings() SettingsData {
	return SettingsData{
		ServerURL:   b.cfg.Chat.ServerURL,
		ModelPath:   b.cfg.Model.Path,
		WatchModel:  b.cfg.Model.Watch,
		StepDelayMs: int(b.cfg.Control.StepDelay / time.Millisecond),
		RandomMax:   b.cfg.Control.RandomMax,
	}
}

// SaveSettings validates and persists settings. Changes to the server URL,
// model path and step delay apply on next start.
func (b *SettingsBridge) SaveSettings(s SettingsData) error {
	if s.StepDelayMs < 0 {
		return fmt.Errorf("step delay must not be negative: %d", s.StepDelayMs)
	}
	if s.RandomMax < sequence.MinRandomCount || s.RandomMax > sequence.MaxRandomCount {
		return fmt.Errorf("random count out of range: %d", s.RandomMax)
	}

	b.cfg.Chat.ServerURL = s.ServerURL
	b.cfg.Model.Path = s.ModelPath
	b.cfg.Model.Watch = s.WatchModel
	b.cfg.Control.StepDelay = time.Duration(s.StepDelayMs) * time.Millisecond
	b.cfg.Control.RandomMax = s.RandomMax

	if err := b.save(b.cfg); err != nil {
		b.logger.Error().Err(err).Msg("Failed to save settings")
		return err
	}

	b.logger.Info().Str("serverUrl", s.ServerURL).Str("modelPath", s.ModelPath).Msg("Settings saved")
	emit(b.ctx, "settings:saved", s)
	return nil
}
