package sequence

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChinaCraig/Zy/internal/pose"
)

// DefaultStepDelay is the pause between consecutive actions.
const DefaultStepDelay = 800 * time.Millisecond

var (
	// ErrEmptySequence is returned by Play for an empty action list.
	ErrEmptySequence = errors.New("sequence is empty")
	// ErrPlaybackInProgress is returned by Play while another playback runs.
	ErrPlaybackInProgress = errors.New("playback already in progress")
)

// Progress is reported after each step.
type Progress struct {
	Index  int    `json:"index"`
	Total  int    `json:"total"`
	Action Action `json:"action"`
	Err    error  `json:"-"`
}

// Result summarizes a finished playback.
type Result struct {
	Total    int  `json:"total"`
	Applied  int  `json:"applied"`
	Canceled bool `json:"canceled"`
}

// Player applies actions one at a time with a fixed pause between them.
// Only one playback runs at a time; a second Play is rejected.
type Player struct {
	store  *pose.Store
	delay  time.Duration
	logger zerolog.Logger

	mu         sync.Mutex
	playing    bool
	cancel     context.CancelFunc
	done       chan struct{}
	onProgress func(Progress)
	onDone     func(Result)
}

// NewPlayer creates a player. A non-positive delay selects DefaultStepDelay.
func NewPlayer(store *pose.Store, delay time.Duration, logger zerolog.Logger) *Player {
	if delay <= 0 {
		delay = DefaultStepDelay
	}
	return &Player{
		store:  store,
		delay:  delay,
		logger: logger.With().Str("component", "sequence-player").Logger(),
	}
}

// SetProgressHandler sets the per-step callback.
func (p *Player) SetProgressHandler(fn func(Progress)) {
	p.mu.Lock()
	p.onProgress = fn
	p.mu.Unlock()
}

// SetDoneHandler sets the completion callback.
func (p *Player) SetDoneHandler(fn func(Result)) {
	p.mu.Lock()
	p.onDone = fn
	p.mu.Unlock()
}

// Playing reports whether a playback is running.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Cancel stops the running playback before its next step. It reports
// whether there was a playback to stop.
func (p *Player) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing || p.cancel == nil {
		return false
	}
	p.cancel()
	return true
}

// Stop cancels the running playback and waits until Play has returned, so
// no step can apply afterwards. It must not be called from a progress or
// done handler.
func (p *Player) Stop() {
	p.mu.Lock()
	done := p.done
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Play applies actions in order and blocks until they are done, the
// playback is canceled, or ctx ends. The slice is copied first, so later
// edits to the caller's sequence do not affect a running playback.
// A canceled playback returns its partial Result with context.Canceled.
func (p *Player) Play(ctx context.Context, actions []Action) (Result, error) {
	if len(actions) == 0 {
		return Result{}, ErrEmptySequence
	}

	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return Result{}, ErrPlaybackInProgress
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.playing = true
	p.cancel = cancel
	p.done = done
	onProgress, onDone := p.onProgress, p.onDone
	p.mu.Unlock()

	steps := make([]Action, len(actions))
	copy(steps, actions)

	res := Result{Total: len(steps)}
	defer func() {
		cancel()
		p.mu.Lock()
		p.playing = false
		p.cancel = nil
		p.done = nil
		p.mu.Unlock()

		if onDone != nil {
			onDone(res)
		}
		close(done)
	}()

	p.logger.Info().Int("steps", len(steps)).Msg("Playback started")

	for i, a := range steps {
		if ctx.Err() != nil {
			res.Canceled = true
			break
		}

		err := p.store.RotateFrom(pose.SourceSequence, a.Joint, pose.Radians(a.Degrees))
		if err != nil {
			p.logger.Warn().Err(err).Str("joint", a.Joint).Int("step", i).Msg("Step skipped")
		} else {
			res.Applied++
		}

		if onProgress != nil {
			onProgress(Progress{Index: i, Total: len(steps), Action: a, Err: err})
		}

		if i == len(steps)-1 {
			break
		}

		if !p.wait(ctx) {
			res.Canceled = true
			break
		}
	}

	p.logger.Info().
		Int("applied", res.Applied).
		Int("total", res.Total).
		Bool("canceled", res.Canceled).
		Msg("Playback finished")

	if res.Canceled {
		return res, context.Canceled
	}
	return res, nil
}

// wait pauses for the step delay. It returns false if ctx ended first.
func (p *Player) wait(ctx context.Context) bool {
	t := time.NewTimer(p.delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
