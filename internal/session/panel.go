package session

import (
	"context"
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ChinaCraig/Zy/internal/bus"
	"github.com/ChinaCraig/Zy/internal/metrics"
	"github.com/ChinaCraig/Zy/internal/notify"
	"github.com/ChinaCraig/Zy/internal/pose"
	"github.com/ChinaCraig/Zy/internal/sequence"
	"github.com/ChinaCraig/Zy/internal/skeleton"
)

// JointState is a joint as shown in the control panel.
type JointState struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Rotation mgl64.Vec3 `json:"rotation"`
	Degrees  mgl64.Vec3 `json:"degrees"`
}

// State is everything a newly attached renderer needs.
type State struct {
	Loaded    bool              `json:"loaded"`
	Joints    []JointState      `json:"joints"`
	Selection string            `json:"selection,omitempty"`
	Actions   []sequence.Action `json:"actions"`
	Playing   bool              `json:"playing"`
}

// Joints lists the registered joints with their live rotations.
func (s *Session) Joints() []JointState {
	ids := s.registry.ListJoints()
	out := make([]JointState, 0, len(ids))
	for _, id := range ids {
		j, err := s.registry.Resolve(id)
		if err != nil {
			continue
		}
		rot := j.Rotation()
		out = append(out, JointState{ID: j.ID, Label: j.Label, Rotation: rot, Degrees: pose.Degrees(rot)})
	}
	return out
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	sel, _ := s.builder.Selection()
	return State{
		Loaded:    s.registry.Loaded(),
		Joints:    s.Joints(),
		Selection: sel,
		Actions:   s.builder.Actions(),
		Playing:   s.player.Playing(),
	}
}

// SelectJoint makes id the panel's selected joint.
func (s *Session) SelectJoint(id string) notify.Notice {
	if err := s.builder.Select(id); err != nil {
		return s.presenter.Error(err)
	}
	s.bus.Publish(bus.Event{
		Type: bus.EventTypeSelectionChanged,
		Data: map[string]any{"selection": id},
	})
	return notify.Info("已选择 " + skeleton.Label(id))
}

// RotateSelected sets the selected joint to deg (degrees). Successful
// slider moves produce an empty notice so the panel is not flooded.
func (s *Session) RotateSelected(deg mgl64.Vec3) notify.Notice {
	id, ok := s.builder.Selection()
	if !ok {
		return s.presenter.Error(sequence.ErrNothingSelected)
	}
	if err := s.store.RotateFrom(pose.SourcePanel, id, pose.Radians(deg)); err != nil {
		return s.presenter.Error(err)
	}
	return notify.Notice{}
}

// ResetJoint restores one joint. An empty id means the selection.
func (s *Session) ResetJoint(id string) notify.Notice {
	if id == "" {
		sel, ok := s.builder.Selection()
		if !ok {
			return s.presenter.Error(sequence.ErrNothingSelected)
		}
		id = sel
	}
	if err := s.store.ResetFrom(pose.SourcePanel, id); err != nil {
		return s.presenter.Error(err)
	}
	return s.presenter.Show(notify.Success("已重置 " + skeleton.Label(id)))
}

// ResetAll restores every joint.
func (s *Session) ResetAll() notify.Notice {
	if _, err := s.registry.Available(); err != nil {
		return s.presenter.Error(err)
	}
	n := s.store.ResetAllFrom(pose.SourcePanel)
	return s.presenter.Show(notify.Successf("已重置 %d 个骨骼", n))
}

// AddSelected appends the selected joint at deg to the sequence.
func (s *Session) AddSelected(deg mgl64.Vec3) (sequence.Action, notify.Notice) {
	a, err := s.builder.AddSelected(deg)
	if err != nil {
		return sequence.Action{}, s.presenter.Error(err)
	}
	s.sequenceChanged()
	return a, s.presenter.Show(notify.Successf("已添加动作：%s", a.Label))
}

// RemoveAction deletes an action by id. Unknown ids change nothing.
func (s *Session) RemoveAction(id string) notify.Notice {
	if !s.builder.Remove(id) {
		return notify.Info("动作不存在")
	}
	s.sequenceChanged()
	return s.presenter.Show(notify.Info("已删除动作"))
}

// ClearSequence empties the sequence.
func (s *Session) ClearSequence() notify.Notice {
	s.builder.Clear()
	s.sequenceChanged()
	return s.presenter.Show(notify.Info("已清空动作序列"))
}

// Randomize appends count random actions.
func (s *Session) Randomize(count int) ([]sequence.Action, notify.Notice) {
	added, err := s.builder.Randomize(count)
	if err != nil {
		return nil, s.presenter.Error(err)
	}
	s.sequenceChanged()
	return added, s.presenter.Show(notify.Successf("已生成 %d 个随机动作", len(added)))
}

// Play runs the current sequence and blocks until it ends. Callers that
// must not block run it on their own goroutine.
func (s *Session) Play(ctx context.Context) notify.Notice {
	res, err := s.player.Play(ctx, s.builder.Actions())
	switch {
	case errors.Is(err, context.Canceled):
		metrics.PlaybacksTotal.WithLabelValues(metrics.PlaybackCanceled).Inc()
		return s.presenter.Show(notify.Info("动作序列已停止"))
	case errors.Is(err, sequence.ErrPlaybackInProgress):
		metrics.PlaybacksTotal.WithLabelValues(metrics.PlaybackRejected).Inc()
		return s.presenter.Error(err)
	case err != nil:
		return s.presenter.Error(err)
	}

	metrics.PlaybacksTotal.WithLabelValues(metrics.PlaybackCompleted).Inc()
	return s.presenter.Show(notify.Successf("动作序列播放完成（%d/%d）", res.Applied, res.Total))
}

// CancelPlayback stops a running playback before its next step.
func (s *Session) CancelPlayback() notify.Notice {
	if !s.player.Cancel() {
		return notify.Info("没有正在播放的动作序列")
	}
	return notify.Info("正在停止动作序列")
}

func (s *Session) sequenceChanged() {
	s.bus.Publish(bus.Event{
		Type: bus.EventTypeSequenceChanged,
		Data: map[string]any{"actions": s.builder.Actions()},
	})
}
