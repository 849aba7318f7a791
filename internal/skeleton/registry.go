// Package skeleton enumerates the controllable joints of a loaded humanoid model.
package skeleton

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrNotFound is returned when a joint identifier does not resolve.
	ErrNotFound = errors.New("joint not found")
	// ErrModelNotLoaded is returned when no model has signalled ready yet.
	ErrModelNotLoaded = errors.New("model not loaded")
	// ErrNoJoints is returned when a model is loaded but exposes no joints.
	ErrNoJoints = errors.New("no joints found in model")
)

// RestJoint is a joint as reported by the model loader, with the rotation
// it has in the model's rest pose (radians, XYZ order).
type RestJoint struct {
	ID       string
	Rotation mgl64.Vec3
}

// Joint is a handle to one rotatable part of the skeleton. Its rotation is
// the live transform: there is no other copy.
type Joint struct {
	ID    string
	Label string

	mu       sync.RWMutex
	rotation mgl64.Vec3
}

// Rotation returns the joint's current rotation in radians.
func (j *Joint) Rotation() mgl64.Vec3 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.rotation
}

// SetRotation replaces the joint's current rotation.
func (j *Joint) SetRotation(r mgl64.Vec3) {
	j.mu.Lock()
	j.rotation = r
	j.mu.Unlock()
}

// Registry holds the joints of the currently loaded model in model order.
type Registry struct {
	mu     sync.RWMutex
	loaded bool
	order  []string
	joints map[string]*Joint
}

// NewRegistry creates an empty registry. Until Populate is called the
// registry reports the model as not loaded.
func NewRegistry() *Registry {
	return &Registry{
		joints: make(map[string]*Joint),
	}
}

// Populate installs the joint set announced by the model-ready signal.
// Every joint starts at zero rotation. Returns the number of joints kept.
func (r *Registry) Populate(names []string) int {
	rest := make([]RestJoint, 0, len(names))
	for _, n := range names {
		rest = append(rest, RestJoint{ID: n})
	}
	return r.PopulateRest(rest)
}

// PopulateRest installs joints carrying the model's rest rotations.
// Blank and duplicate identifiers are dropped; the first occurrence wins.
func (r *Registry) PopulateRest(rest []RestJoint) int {
	order := make([]string, 0, len(rest))
	joints := make(map[string]*Joint, len(rest))

	for _, rj := range rest {
		id := strings.TrimSpace(rj.ID)
		if id == "" {
			continue
		}
		if _, dup := joints[id]; dup {
			continue
		}
		joints[id] = &Joint{
			ID:       id,
			Label:    Label(id),
			rotation: rj.Rotation,
		}
		order = append(order, id)
	}

	r.mu.Lock()
	r.loaded = true
	r.order = order
	r.joints = joints
	r.mu.Unlock()

	return len(order)
}

// Unload forgets the current model.
func (r *Registry) Unload() {
	r.mu.Lock()
	r.loaded = false
	r.order = nil
	r.joints = make(map[string]*Joint)
	r.mu.Unlock()
}

// Loaded reports whether a model-ready signal has been received.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// ListJoints returns the joint identifiers in model order. It is empty when
// no model is loaded or the model exposes no joints.
func (r *Registry) ListJoints() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Available is ListJoints with the empty cases turned into errors, so
// callers can tell "not loaded" apart from "loaded but empty".
func (r *Registry) Available() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.loaded {
		return nil, ErrModelNotLoaded
	}
	if len(r.order) == 0 {
		return nil, ErrNoJoints
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out, nil
}

// Resolve returns the joint handle for name.
func (r *Registry) Resolve(name string) (*Joint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if j, ok := r.joints[name]; ok {
		return j, nil
	}
	return nil, ErrNotFound
}

