package bridge

import (
	"context"
	"os/exec"
	"path/filepath"
	goruntime "runtime"

	"github.com/ChinaCraig/Zy/internal/logging"
)

// LogBridge exposes logging methods to the frontend
type LogBridge struct {
	ctx    context.Context
	logger *logging.Logger
}

// NewLogBridge creates a new log bridge
func NewLogBridge(logger *logging.Logger) *LogBridge {
	return &LogBridge{
		logger: logger,
	}
}

// Bind sets the Wails context and streams new entries to the log panel
func (b *LogBridge) Bind(ctx context.Context) {
	b.ctx = ctx

	b.logger.SetOnLog(func(entry logging.LogEntry) {
		emit(b.ctx, "log:entry", entry)
	})
}

// Log records a message from the frontend
func (b *LogBridge) Log(level, component, message string, data map[string]any) {
	switch logging.LogLevel(level) {
	case logging.LevelDebug:
		b.logger.Debug(component, message, data)
	case logging.LevelWarn:
		b.logger.Warn(component, message, data)
	case logging.LevelError:
		b.logger.Error(component, message, nil, data)
	default:
		b.logger.Info(component, message, data)
	}
}

// GetLogHistory returns recent log entries
func (b *LogBridge) GetLogHistory(limit int) []logging.LogEntry {
	return b.logger.GetHistory(limit)
}

// GetLogPath returns the current log file path
func (b *LogBridge) GetLogPath() string {
	return b.logger.GetLogPath()
}

// OpenLogDir opens the log directory in the file manager
func (b *LogBridge) OpenLogDir() error {
	return openPath(filepath.Dir(b.logger.GetLogPath()))
}

func openPath(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", path)
	case "windows":
		cmd = exec.Command("explorer", path)
	default:
		cmd = exec.Command("open", path)
	}
	return cmd.Start()
}

// GetSystemInfo returns system information for troubleshooting
func (b *LogBridge) GetSystemInfo() map[string]any {
	var m goruntime.MemStats
	goruntime.ReadMemStats(&m)

	return map[string]any{
		"os":           goruntime.GOOS,
		"arch":         goruntime.GOARCH,
		"goVersion":    goruntime.Version(),
		"numGoroutine": goruntime.NumGoroutine(),
		"memAllocMB":   m.Alloc / 1024 / 1024,
		"logPath":      b.logger.GetLogPath(),
	}
}
