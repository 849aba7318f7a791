// Package notify turns operation results into user-facing notices.
package notify

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ChinaCraig/Zy/internal/bus"
	"github.com/ChinaCraig/Zy/internal/sequence"
	"github.com/ChinaCraig/Zy/internal/skeleton"
)

// Level is a notice severity.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// Notice is what the frontend shows as a toast.
type Notice struct {
	Level   Level  `json:"level"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

// OK reports whether the notice is not a warning or error.
func (n Notice) OK() bool {
	return n.Level == LevelInfo || n.Level == LevelSuccess
}

// Info returns an info notice.
func Info(msg string) Notice { return Notice{Level: LevelInfo, Message: msg} }

// Success returns a success notice.
func Success(msg string) Notice { return Notice{Level: LevelSuccess, Message: msg} }

// Warning returns a warning notice.
func Warning(msg string) Notice { return Notice{Level: LevelWarning, Message: msg} }

// Successf formats a success notice.
func Successf(format string, args ...any) Notice {
	return Success(fmt.Sprintf(format, args...))
}

// FromError maps an error onto a notice. Missing joints, invalid input
// and an unavailable model are warnings; anything else is an error.
func FromError(err error) Notice {
	switch {
	case err == nil:
		return Notice{}
	case errors.Is(err, skeleton.ErrNotFound):
		return Notice{Level: LevelWarning, Title: "找不到骨骼", Message: "未找到指定的骨骼"}
	case errors.Is(err, skeleton.ErrModelNotLoaded):
		return Notice{Level: LevelWarning, Title: "模型未就绪", Message: "模型尚未加载完成"}
	case errors.Is(err, skeleton.ErrNoJoints):
		return Notice{Level: LevelWarning, Title: "模型未就绪", Message: "当前模型没有可控制的骨骼"}
	case errors.Is(err, sequence.ErrNothingSelected):
		return Warning("请先选择一个骨骼")
	case errors.Is(err, sequence.ErrInvalidCount):
		return Warning(fmt.Sprintf("随机动作数量必须在 %d 到 %d 之间", sequence.MinRandomCount, sequence.MaxRandomCount))
	case errors.Is(err, sequence.ErrEmptySequence):
		return Warning("动作序列为空")
	case errors.Is(err, sequence.ErrPlaybackInProgress):
		return Warning("动作序列正在播放")
	default:
		return Notice{Level: LevelError, Title: "操作失败", Message: err.Error()}
	}
}

// Presenter delivers notices to the bus and the log.
type Presenter struct {
	bus    *bus.EventBus
	logger zerolog.Logger
}

// NewPresenter creates a presenter. eventBus may be nil.
func NewPresenter(eventBus *bus.EventBus, logger zerolog.Logger) *Presenter {
	return &Presenter{
		bus:    eventBus,
		logger: logger.With().Str("component", "notify").Logger(),
	}
}

// Show publishes n in order with other session events and returns it
// unchanged. Empty notices are dropped.
func (p *Presenter) Show(n Notice) Notice {
	if n.Message == "" {
		return n
	}

	ev := p.logger.Info()
	switch n.Level {
	case LevelWarning:
		ev = p.logger.Warn()
	case LevelError:
		ev = p.logger.Error()
	}
	ev.Str("level", string(n.Level)).Str("title", n.Title).Msg(n.Message)

	if p.bus != nil {
		p.bus.Publish(bus.Event{
			Type: bus.EventTypeNotice,
			Data: map[string]any{"notice": n},
		})
	}
	return n
}

// Error is Show(FromError(err)).
func (p *Presenter) Error(err error) Notice {
	return p.Show(FromError(err))
}
