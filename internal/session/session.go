// Package session wires the joint registry, pose store, command
// interpreter and sequence tools into one object per loaded avatar.
package session

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChinaCraig/Zy/internal/bus"
	"github.com/ChinaCraig/Zy/internal/chat"
	"github.com/ChinaCraig/Zy/internal/command"
	"github.com/ChinaCraig/Zy/internal/metrics"
	"github.com/ChinaCraig/Zy/internal/notify"
	"github.com/ChinaCraig/Zy/internal/pose"
	"github.com/ChinaCraig/Zy/internal/sequence"
	"github.com/ChinaCraig/Zy/internal/skeleton"
)

// ErrNoBackend is returned by Submit when no chat backend is configured.
var ErrNoBackend = errors.New("chat backend not configured")

// Backend answers chat messages that are not pose commands.
type Backend interface {
	Send(ctx context.Context, message string) (*chat.Reply, error)
}

// Options tune a Session.
type Options struct {
	StepDelay  time.Duration  // pause between sequence steps
	HistoryMax int            // chat messages kept in memory
	Backend    Backend        // optional
	Rules      []command.Rule // nil selects command.DefaultRules
}

// Session owns every piece of pose state for one avatar.
type Session struct {
	bus       *bus.EventBus
	registry  *skeleton.Registry
	store     *pose.Store
	interp    *command.Interpreter
	builder   *sequence.Builder
	player    *sequence.Player
	presenter *notify.Presenter
	history   *chat.History
	backend   Backend
	logger    zerolog.Logger

	active atomic.Bool
}

// New creates a session publishing on eventBus. A nil bus gets a private one.
func New(eventBus *bus.EventBus, opts Options, logger zerolog.Logger) *Session {
	if eventBus == nil {
		eventBus = bus.NewEventBus()
	}

	registry := skeleton.NewRegistry()
	store := pose.NewStore(registry)

	rules := opts.Rules
	if rules == nil {
		rules = command.DefaultRules()
	}

	s := &Session{
		bus:       eventBus,
		registry:  registry,
		store:     store,
		interp:    command.NewWithRules(registry, store, rules, logger),
		builder:   sequence.NewBuilder(registry),
		player:    sequence.NewPlayer(store, opts.StepDelay, logger),
		presenter: notify.NewPresenter(eventBus, logger),
		history:   chat.NewHistory(opts.HistoryMax),
		backend:   opts.Backend,
		logger:    logger.With().Str("component", "session").Logger(),
	}

	store.SetOnChange(func(c pose.Change) {
		eventBus.Publish(bus.Event{
			Type: bus.EventTypePoseChanged,
			Data: map[string]any{"change": c},
		})
	})
	s.player.SetProgressHandler(func(p sequence.Progress) {
		if p.Err == nil {
			metrics.PlaybackStepsTotal.Inc()
		}
		eventBus.Publish(bus.Event{
			Type: bus.EventTypeSequenceProgress,
			Data: map[string]any{"progress": p},
		})
	})
	s.player.SetDoneHandler(func(r sequence.Result) {
		eventBus.Publish(bus.Event{
			Type: bus.EventTypeSequenceDone,
			Data: map[string]any{"result": r},
		})
	})

	return s
}

// Bus returns the event bus the session publishes on.
func (s *Session) Bus() *bus.EventBus { return s.bus }

// Registry returns the joint registry.
func (s *Session) Registry() *skeleton.Registry { return s.registry }

// Store returns the pose store.
func (s *Session) Store() *pose.Store { return s.store }

// Builder returns the sequence builder.
func (s *Session) Builder() *sequence.Builder { return s.builder }

// History returns the chat history.
func (s *Session) History() *chat.History { return s.history }

// ControlActive reports whether chat commands are being interpreted.
func (s *Session) ControlActive() bool { return s.active.Load() }

// ModelReady installs the joints of a freshly loaded model. Any running
// playback is stopped before state belonging to the previous model is
// dropped. Control turns on only when the model has joints. Returns the
// number of joints registered.
func (s *Session) ModelReady(rest []skeleton.RestJoint) int {
	s.player.Stop()

	n := s.registry.PopulateRest(rest)
	s.store.Clear()
	s.builder.Clear()
	s.builder.ClearSelection()
	s.active.Store(n > 0)

	s.logger.Info().Int("joints", n).Msg("Model ready")
	s.bus.Publish(bus.Event{
		Type: bus.EventTypeModelReady,
		Data: map[string]any{"joints": s.Joints()},
	})

	if n == 0 {
		s.presenter.Error(skeleton.ErrNoJoints)
	}
	return n
}

// ModelUnloaded forgets the current model and stops interpreting commands.
func (s *Session) ModelUnloaded() {
	s.player.Stop()
	s.active.Store(false)
	s.registry.Unload()
	s.store.Clear()
	s.builder.Clear()
	s.builder.ClearSelection()

	s.logger.Info().Msg("Model unloaded")
	s.bus.Publish(bus.Event{Type: bus.EventTypeModelUnloaded})
}

// ModelFailed reports a model that could not be loaded. The previous
// model is dropped and control stays off.
func (s *Session) ModelFailed(err error) {
	s.ModelUnloaded()
	s.bus.Publish(bus.Event{
		Type: bus.EventTypeModelError,
		Data: map[string]any{"error": err.Error()},
	})
	s.presenter.Error(err)
}

// HandleInput runs text through the command interpreter when control is
// active. A handled command is recorded in the chat history with its reply
// and must not be forwarded to the chat backend. False means the caller
// should treat text as ordinary chat.
func (s *Session) HandleInput(ctx context.Context, text string) bool {
	_, ok := s.interpret(text)
	return ok
}

func (s *Session) interpret(text string) (chat.Message, bool) {
	if !s.ControlActive() {
		return chat.Message{}, false
	}

	out := s.interp.Interpret(text)
	if !out.Handled {
		return chat.Message{}, false
	}

	metrics.CommandsTotal.WithLabelValues(out.Rule).Inc()
	if out.Err != nil {
		s.logger.Debug().Err(out.Err).Str("rule", out.Rule).Msg("Command had no effect")
	}

	s.record(chat.RoleUser, text)
	return s.record(chat.RoleCommand, out.Reply), true
}

// Submit handles text as a command if possible and otherwise sends it to
// the chat backend. It returns the message shown as the avatar's answer.
func (s *Session) Submit(ctx context.Context, text string) (chat.Message, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, chat.ErrEmptyMessage
	}
	if msg, ok := s.interpret(text); ok {
		return msg, nil
	}

	metrics.ChatFallthroughTotal.Inc()
	if s.backend == nil {
		return chat.Message{}, ErrNoBackend
	}

	s.record(chat.RoleUser, text)

	start := time.Now()
	reply, err := s.backend.Send(ctx, text)
	metrics.ChatLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		s.presenter.Error(err)
		return chat.Message{}, err
	}
	return s.record(chat.RoleAssistant, reply.Text), nil
}

func (s *Session) record(role chat.Role, text string) chat.Message {
	m := s.history.Add(role, text)
	s.bus.Publish(bus.Event{
		Type: bus.EventTypeChatMessage,
		Data: map[string]any{"message": m},
	})
	return m
}
