// Zy - a chat avatar whose pose follows what you tell it
package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"

	"github.com/ChinaCraig/Zy/internal/bridge"
	"github.com/ChinaCraig/Zy/internal/bus"
	"github.com/ChinaCraig/Zy/internal/chat"
	"github.com/ChinaCraig/Zy/internal/config"
	"github.com/ChinaCraig/Zy/internal/logging"
	"github.com/ChinaCraig/Zy/internal/modelwatch"
	"github.com/ChinaCraig/Zy/internal/session"
)

//go:embed all:frontend/dist
var assets embed.FS

const version = "1.0.0"

func main() {
	cfg, cfgErr := config.Load()

	syslog, err := logging.New(&logging.Config{
		LogDir:     cfg.Log.Dir,
		Level:      logging.LogLevel(cfg.Log.Level),
		MaxHistory: 1000,
		Console:    cfg.Log.Console,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer syslog.Close()

	syslog.Info("main", "Zy starting", map[string]any{"version": version})
	if cfgErr != nil {
		syslog.Warn("config", "Failed to load config, using defaults", map[string]any{
			"error": cfgErr.Error(),
		})
	}
	syslog.Info("config", "Configuration loaded", map[string]any{
		"windowSize": fmt.Sprintf("%dx%d", cfg.Window.Width, cfg.Window.Height),
		"chatServer": cfg.Chat.ServerURL,
		"model":      cfg.Model.Path,
	})

	zlogger := syslog.Zerolog()
	eventBus := bus.NewEventBus()

	chatClient := chat.NewClient(&chat.ClientConfig{
		ServerURL: cfg.Chat.ServerURL,
		Timeout:   cfg.Chat.Timeout,
	}, zlogger)

	sess := session.New(eventBus, session.Options{
		StepDelay: cfg.Control.StepDelay,
		Backend:   chatClient,
	}, zlogger)

	app := &App{
		cfg:            cfg,
		syslog:         syslog,
		sess:           sess,
		poseBridge:     bridge.NewPoseBridge(sess, zlogger),
		chatBridge:     bridge.NewChatBridge(sess, chatClient, syslog),
		settingsBridge: bridge.NewSettingsBridge(cfg, zlogger),
		logBridge:      bridge.NewLogBridge(syslog),
	}

	assetFS, err := fs.Sub(assets, "frontend/dist")
	if err != nil {
		syslog.Error("assets", "Failed to get assets", err, nil)
		os.Exit(1)
	}

	err = wails.Run(&options.App{
		Title:     cfg.Window.Title,
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		MinWidth:  640,
		MinHeight: 480,
		AssetServer: &assetserver.Options{
			Assets: assetFS,
		},
		BackgroundColour: &options.RGBA{R: 26, G: 26, B: 46, A: 255},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		Bind: []interface{}{
			app,
			app.poseBridge,
			app.chatBridge,
			app.settingsBridge,
			app.logBridge,
		},
		Mac: &mac.Options{
			About: &mac.AboutInfo{
				Title:   "Zy",
				Message: "Virtual human pose control\nVersion " + version,
			},
		},
	})
	if err != nil {
		syslog.Error("wails", "Wails.Run failed", err, nil)
		os.Exit(1)
	}

	syslog.Info("main", "Application exited normally", nil)
}

// App struct holds the main application state
type App struct {
	ctx            context.Context
	cfg            *config.Config
	syslog         *logging.Logger
	sess           *session.Session
	watcher        *modelwatch.Watcher
	poseBridge     *bridge.PoseBridge
	chatBridge     *bridge.ChatBridge
	settingsBridge *bridge.SettingsBridge
	logBridge      *bridge.LogBridge
}

// startup is called when the app starts
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	a.poseBridge.Bind(ctx)
	a.chatBridge.Bind(ctx)
	a.settingsBridge.Bind(ctx)
	a.logBridge.Bind(ctx)

	a.loadModel()
	a.syslog.Info("lifecycle", "App.startup() complete", nil)
}

// loadModel enumerates joints from the configured model file, if any.
// Without one, the frontend's model loader signals readiness instead.
func (a *App) loadModel() {
	if _, err := os.Stat(a.cfg.Model.Path); errors.Is(err, os.ErrNotExist) {
		a.syslog.Info("model", "No model file, waiting for frontend", map[string]any{"path": a.cfg.Model.Path})
		return
	}

	w, err := modelwatch.New(a.cfg.Model.Path, a.sess, a.syslog.Zerolog())
	if err != nil {
		a.syslog.Error("model", "Failed to create model watcher", err, nil)
		return
	}
	_ = w.Load()

	if a.cfg.Model.Watch {
		if err := w.Start(); err != nil {
			a.syslog.Error("model", "Failed to watch model", err, nil)
			_ = w.Close()
			return
		}
	}
	a.watcher = w
}

// shutdown is called when the app is closing
func (a *App) shutdown(ctx context.Context) {
	a.sess.CancelPlayback()
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	a.syslog.Info("lifecycle", "Zy shutdown complete", nil)
}

// GetVersion returns the application version
func (a *App) GetVersion() string {
	return version
}

// GetConfig returns the current configuration
func (a *App) GetConfig() *config.Config {
	return a.cfg
}
