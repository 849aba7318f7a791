// Package bridge provides Wails bindings between Go and frontend
package bridge

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/ChinaCraig/Zy/internal/bus"
	"github.com/ChinaCraig/Zy/internal/notify"
	"github.com/ChinaCraig/Zy/internal/sequence"
	"github.com/ChinaCraig/Zy/internal/session"
	"github.com/ChinaCraig/Zy/internal/skeleton"
)

// frontendEvents maps bus events onto the names the frontend listens for,
// with the Data key carrying the payload.
var frontendEvents = []struct {
	bus  bus.EventType
	name string
	key  string
}{
	{bus.EventTypePoseChanged, "pose:changed", "change"},
	{bus.EventTypeSequenceChanged, "sequence:changed", "actions"},
	{bus.EventTypeSequenceProgress, "sequence:progress", "progress"},
	{bus.EventTypeSequenceDone, "sequence:done", "result"},
	{bus.EventTypeSelectionChanged, "selection:changed", "selection"},
	{bus.EventTypeModelReady, "model:ready", "joints"},
	{bus.EventTypeModelUnloaded, "model:unloaded", ""},
	{bus.EventTypeModelError, "model:error", "error"},
	{bus.EventTypeNotice, "notify:notice", "notice"},
}

// JointInput is one joint reported by the frontend's model loader.
type JointInput struct {
	ID       string     `json:"id"`
	Rotation [3]float64 `json:"rotation"`
}

// PoseBridge exposes pose and sequence control to the frontend
type PoseBridge struct {
	ctx    context.Context
	sess   *session.Session
	logger zerolog.Logger
}

// NewPoseBridge creates the pose bridge
func NewPoseBridge(sess *session.Session, logger zerolog.Logger) *PoseBridge {
	return &PoseBridge{
		sess:   sess,
		logger: logger.With().Str("component", "pose-bridge").Logger(),
	}
}

// Bind sets the Wails runtime context and starts forwarding session events
func (b *PoseBridge) Bind(ctx context.Context) {
	b.ctx = ctx

	for _, fe := range frontendEvents {
		fe := fe // per-iteration copy; go.mod targets go1.21 loop semantics
		b.sess.Bus().Subscribe(fe.bus, func(e bus.Event) {
			var payload any
			if fe.key != "" {
				payload = e.Data[fe.key]
			}
			emit(b.ctx, fe.name, payload)
		})
	}
}

// emit is runtime.EventsEmit that tolerates an unbound bridge.
func emit(ctx context.Context, name string, data ...any) {
	if ctx == nil {
		return
	}
	runtime.EventsEmit(ctx, name, data...)
}

// ModelReady is called by the frontend once its VRM has loaded.
func (b *PoseBridge) ModelReady(joints []JointInput) int {
	rest := make([]skeleton.RestJoint, len(joints))
	for i, j := range joints {
		rest[i] = skeleton.RestJoint{ID: j.ID, Rotation: mgl64.Vec3(j.Rotation)}
	}
	n := b.sess.ModelReady(rest)
	b.logger.Info().Int("joints", n).Msg("Frontend model ready")
	return n
}

// ModelUnloaded is called by the frontend when it drops its model.
func (b *PoseBridge) ModelUnloaded() {
	b.sess.ModelUnloaded()
}

// GetState returns the full session state
func (b *PoseBridge) GetState() session.State {
	return b.sess.State()
}

// GetJoints returns the controllable joints
func (b *PoseBridge) GetJoints() []session.JointState {
	return b.sess.Joints()
}

// SelectJoint makes id the panel's selected joint
func (b *PoseBridge) SelectJoint(id string) notify.Notice {
	return b.sess.SelectJoint(id)
}

// RotateSelected sets the selected joint, in degrees.
func (b *PoseBridge) RotateSelected(x, y, z float64) notify.Notice {
	return b.sess.RotateSelected(mgl64.Vec3{x, y, z})
}

// ResetJoint resets id, or the selection when id is empty.
func (b *PoseBridge) ResetJoint(id string) notify.Notice {
	return b.sess.ResetJoint(id)
}

// ResetAll resets every joint
func (b *PoseBridge) ResetAll() notify.Notice {
	return b.sess.ResetAll()
}

// AddSelected appends the selected joint at (x, y, z) degrees.
func (b *PoseBridge) AddSelected(x, y, z float64) notify.Notice {
	_, n := b.sess.AddSelected(mgl64.Vec3{x, y, z})
	return n
}

// RemoveAction deletes an action by id
func (b *PoseBridge) RemoveAction(id string) notify.Notice {
	return b.sess.RemoveAction(id)
}

// ClearSequence empties the sequence
func (b *PoseBridge) ClearSequence() notify.Notice {
	return b.sess.ClearSequence()
}

// Randomize appends count random actions
func (b *PoseBridge) Randomize(count int) notify.Notice {
	_, n := b.sess.Randomize(count)
	return n
}

// GetActions returns the sequence in playback order
func (b *PoseBridge) GetActions() []sequence.Action {
	return b.sess.Builder().Actions()
}

// Play runs the sequence. The frontend promise resolves when playback ends.
func (b *PoseBridge) Play() notify.Notice {
	ctx := b.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return b.sess.Play(ctx)
}

// CancelPlayback stops a running playback before its next step
func (b *PoseBridge) CancelPlayback() notify.Notice {
	return b.sess.CancelPlayback()
}
