// Package sequence builds ordered lists of joint rotations and plays them
// back against the pose store.
package sequence

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/ChinaCraig/Zy/internal/skeleton"
)

// Limits for Randomize.
const (
	MinRandomCount = 1
	MaxRandomCount = 20
)

var (
	// ErrNothingSelected is returned by AddSelected without a selection.
	ErrNothingSelected = errors.New("no joint selected")
	// ErrInvalidCount is returned by Randomize for counts outside [1,20].
	ErrInvalidCount = errors.New("random action count must be between 1 and 20")
)

// bands are the random magnitude bands in degrees: small, medium, large.
var bands = [...]float64{30, 60, 90}

// Action is one recorded joint rotation.
type Action struct {
	ID      string     `json:"id"`
	Joint   string     `json:"joint"`
	Label   string     `json:"label"`
	Degrees mgl64.Vec3 `json:"degrees"`
}

// Builder accumulates actions for playback. Insertion order is playback
// order and the same joint may appear more than once.
type Builder struct {
	registry *skeleton.Registry

	mu        sync.Mutex
	selection string
	actions   []Action
	rng       *rand.Rand
}

// NewBuilder creates an empty builder over registry.
func NewBuilder(registry *skeleton.Registry) *Builder {
	return &Builder{
		registry: registry,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand replaces the random source used by Randomize.
func (b *Builder) SetRand(r *rand.Rand) {
	b.mu.Lock()
	b.rng = r
	b.mu.Unlock()
}

// Select makes jointID the current selection, replacing any previous one.
func (b *Builder) Select(jointID string) error {
	if _, err := b.registry.Resolve(jointID); err != nil {
		return err
	}
	b.mu.Lock()
	b.selection = jointID
	b.mu.Unlock()
	return nil
}

// Selection returns the selected joint, if any.
func (b *Builder) Selection() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection, b.selection != ""
}

// ClearSelection drops the current selection.
func (b *Builder) ClearSelection() {
	b.mu.Lock()
	b.selection = ""
	b.mu.Unlock()
}

// AddSelected appends an action rotating the selected joint by deg.
func (b *Builder) AddSelected(deg mgl64.Vec3) (Action, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.selection == "" {
		return Action{}, ErrNothingSelected
	}
	j, err := b.registry.Resolve(b.selection)
	if err != nil {
		return Action{}, err
	}

	a := newAction(j, deg)
	b.actions = append(b.actions, a)
	return a, nil
}

// Remove deletes the first action with id. It reports whether one was found.
func (b *Builder) Remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, a := range b.actions {
		if a.ID == id {
			b.actions = append(b.actions[:i:i], b.actions[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the sequence.
func (b *Builder) Clear() {
	b.mu.Lock()
	b.actions = nil
	b.mu.Unlock()
}

// Randomize appends one action for each of min(count, joints) distinct
// joints drawn without replacement. Each action draws one magnitude band
// for the whole triple, then each axis uniformly within it, rounded to
// whole degrees. Nothing is appended on error.
func (b *Builder) Randomize(count int) ([]Action, error) {
	if count < MinRandomCount || count > MaxRandomCount {
		return nil, ErrInvalidCount
	}
	ids, err := b.registry.Available()
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	n := count
	if n > len(ids) {
		n = len(ids)
	}

	added := make([]Action, 0, n)
	for _, idx := range b.rng.Perm(len(ids))[:n] {
		j, err := b.registry.Resolve(ids[idx])
		if err != nil {
			continue
		}
		band := bands[b.rng.Intn(len(bands))]
		deg := mgl64.Vec3{
			b.sample(band),
			b.sample(band),
			b.sample(band),
		}
		added = append(added, newAction(j, deg))
	}

	b.actions = append(b.actions, added...)
	return added, nil
}

func (b *Builder) sample(band float64) float64 {
	return math.Round((b.rng.Float64()*2 - 1) * band)
}

// Actions returns a copy of the sequence in playback order.
func (b *Builder) Actions() []Action {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Action, len(b.actions))
	copy(out, b.actions)
	return out
}

func newAction(j *skeleton.Joint, deg mgl64.Vec3) Action {
	return Action{
		ID:      uuid.NewString(),
		Joint:   j.ID,
		Label:   j.Label,
		Degrees: deg,
	}
}
