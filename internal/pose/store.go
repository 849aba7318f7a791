// Package pose tracks joint rotations and the baseline each joint had
// before it was first changed, so any joint can be put back.
package pose

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ChinaCraig/Zy/internal/skeleton"
)

// Source identifies what caused a pose change.
type Source string

const (
	SourceCommand  Source = "command"
	SourcePanel    Source = "panel"
	SourceSequence Source = "sequence"
)

// Change describes a single applied rotation.
type Change struct {
	Joint    string     `json:"joint"`
	Rotation mgl64.Vec3 `json:"rotation"`
	Reset    bool       `json:"reset,omitempty"`
	Source   Source     `json:"source,omitempty"`
}

// Store applies rotations to registry joints. Baselines are captured lazily
// on the first rotation of each joint and never overwritten afterwards.
// Interleaved writers are not coordinated: the last write wins.
type Store struct {
	registry *skeleton.Registry

	mu        sync.Mutex
	baselines map[string]mgl64.Vec3
	onChange  func(Change)
}

// NewStore creates a pose store over registry.
func NewStore(registry *skeleton.Registry) *Store {
	return &Store{
		registry:  registry,
		baselines: make(map[string]mgl64.Vec3),
	}
}

// SetOnChange sets the callback invoked after every applied change.
func (s *Store) SetOnChange(fn func(Change)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Rotate sets the joint's current rotation to (x, y, z) radians.
func (s *Store) Rotate(jointID string, x, y, z float64) error {
	return s.RotateFrom(SourcePanel, jointID, mgl64.Vec3{x, y, z})
}

// RotateFrom is Rotate with the change attributed to src.
func (s *Store) RotateFrom(src Source, jointID string, rot mgl64.Vec3) error {
	j, err := s.registry.Resolve(jointID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := s.baselines[jointID]; !ok {
		s.baselines[jointID] = j.Rotation()
	}
	j.SetRotation(rot)
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(Change{Joint: jointID, Rotation: rot, Source: src})
	}
	return nil
}

// Reset restores the joint's baseline, or (0,0,0) when no baseline was
// captured.
func (s *Store) Reset(jointID string) error {
	return s.ResetFrom(SourcePanel, jointID)
}

// ResetFrom is Reset with the change attributed to src.
func (s *Store) ResetFrom(src Source, jointID string) error {
	j, err := s.registry.Resolve(jointID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	rot := s.baselines[jointID]
	j.SetRotation(rot)
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(Change{Joint: jointID, Rotation: rot, Reset: true, Source: src})
	}
	return nil
}

// ResetAll resets every registered joint and returns how many succeeded.
func (s *Store) ResetAll() int {
	return s.ResetAllFrom(SourcePanel)
}

// ResetAllFrom is ResetAll with the changes attributed to src.
func (s *Store) ResetAllFrom(src Source) int {
	n := 0
	for _, id := range s.registry.ListJoints() {
		if err := s.ResetFrom(src, id); err != nil {
			continue
		}
		n++
	}
	return n
}

// Current returns the joint's live rotation.
func (s *Store) Current(jointID string) (mgl64.Vec3, error) {
	j, err := s.registry.Resolve(jointID)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return j.Rotation(), nil
}

// Baseline returns the captured baseline and whether one exists.
func (s *Store) Baseline(jointID string) (mgl64.Vec3, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.baselines[jointID]
	return b, ok
}

// Clear drops all baselines. Used when a new model replaces the old one.
func (s *Store) Clear() {
	s.mu.Lock()
	s.baselines = make(map[string]mgl64.Vec3)
	s.mu.Unlock()
}
