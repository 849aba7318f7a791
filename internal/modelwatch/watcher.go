// Package modelwatch reloads the avatar's joints when its model file changes.
package modelwatch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ChinaCraig/Zy/internal/skeleton"
)

// DefaultDebounce coalesces the burst of writes editors and exporters emit.
const DefaultDebounce = 300 * time.Millisecond

// Target receives the model signals. *session.Session satisfies it.
type Target interface {
	ModelReady(rest []skeleton.RestJoint) int
	ModelUnloaded()
	ModelFailed(err error)
}

// Loader enumerates the joints of a model file.
type Loader func(path string) ([]skeleton.RestJoint, error)

// Watcher watches one model file through its parent directory, since
// exporters usually replace the file rather than write it in place.
type Watcher struct {
	path     string
	target   Target
	load     Loader
	debounce time.Duration
	logger   zerolog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// New creates a watcher for path. Call Load for the initial signal and
// Start to follow changes.
func New(path string, target Target, logger zerolog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve model path: %w", err)
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		path:     abs,
		target:   target,
		load:     skeleton.LoadModel,
		debounce: DefaultDebounce,
		logger:   logger.With().Str("component", "modelwatch").Str("path", abs).Logger(),
		watcher:  fw,
		done:     make(chan struct{}),
	}, nil
}

// SetLoader replaces the model loader.
func (w *Watcher) SetLoader(l Loader) { w.load = l }

// SetDebounce sets the quiet period after the last change before reloading.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Load reads the model now and signals the target. A load failure leaves
// control inactive.
func (w *Watcher) Load() error {
	rest, err := w.load(w.path)
	if err != nil {
		w.logger.Error().Err(err).Msg("Model load failed")
		w.target.ModelFailed(err)
		return err
	}
	n := w.target.ModelReady(rest)
	w.logger.Info().Int("joints", n).Msg("Model loaded")
	return nil
}

// Start begins following changes to the model file.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.wg.Add(1)
	go w.watchLoop()
	return nil
}

func (w *Watcher) watchLoop() {
	defer w.wg.Done()

	var timer *time.Timer
	var pending <-chan time.Time
	stop := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, pending = nil, nil
	}
	defer stop()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				stop()
				timer = time.NewTimer(w.debounce)
				pending = timer.C
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				stop()
				w.logger.Warn().Msg("Model file removed")
				w.target.ModelUnloaded()
			}
		case <-pending:
			timer, pending = nil, nil
			_ = w.Load()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Model watcher error")
		}
	}
}

// Close stops the watcher and waits for its goroutine.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
