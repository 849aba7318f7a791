package pose

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChinaCraig/Zy/internal/skeleton"
)

func newStore(t *testing.T, rest ...skeleton.RestJoint) (*Store, *skeleton.Registry) {
	t.Helper()
	reg := skeleton.NewRegistry()
	reg.PopulateRest(rest)
	return NewStore(reg), reg
}

func TestReset_NeverMutatedStaysAtZero(t *testing.T) {
	s, _ := newStore(t, skeleton.RestJoint{ID: "head"})

	require.NoError(t, s.Reset("head"))

	rot, err := s.Current("head")
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{}, rot)

	_, captured := s.Baseline("head")
	assert.False(t, captured, "reset must not capture a baseline")
}

func TestReset_NoBaselineZeroesRestRotation(t *testing.T) {
	s, _ := newStore(t, skeleton.RestJoint{ID: "leftUpperArm", Rotation: mgl64.Vec3{0.2, 0, -0.1}})

	require.NoError(t, s.Reset("leftUpperArm"))

	rot, err := s.Current("leftUpperArm")
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{}, rot)
}

func TestRotateReset_RoundTripRestoresPreFirstRotation(t *testing.T) {
	rest := mgl64.Vec3{0.1, -0.2, 0.3}
	s, _ := newStore(t, skeleton.RestJoint{ID: "leftUpperArm", Rotation: rest})

	require.NoError(t, s.Rotate("leftUpperArm", 1, 2, 3))
	require.NoError(t, s.Rotate("leftUpperArm", 4, 5, 6))

	cur, _ := s.Current("leftUpperArm")
	assert.Equal(t, mgl64.Vec3{4, 5, 6}, cur)

	require.NoError(t, s.Reset("leftUpperArm"))
	cur, _ = s.Current("leftUpperArm")
	assert.Equal(t, rest, cur)
}

func TestBaseline_NeverOverwritten(t *testing.T) {
	s, _ := newStore(t, skeleton.RestJoint{ID: "head"})

	require.NoError(t, s.Rotate("head", 1, 0, 0))
	require.NoError(t, s.Reset("head"))
	require.NoError(t, s.Rotate("head", 2, 0, 0))

	b, ok := s.Baseline("head")
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{}, b)
}

func TestRotate_UnknownJoint(t *testing.T) {
	s, _ := newStore(t, skeleton.RestJoint{ID: "head"})

	assert.ErrorIs(t, s.Rotate("tail", 1, 1, 1), skeleton.ErrNotFound)
	assert.ErrorIs(t, s.Reset("tail"), skeleton.ErrNotFound)
}

func TestResetAll_CountsEveryJoint(t *testing.T) {
	s, _ := newStore(t,
		skeleton.RestJoint{ID: "head"},
		skeleton.RestJoint{ID: "neck"},
		skeleton.RestJoint{ID: "spine"},
	)
	require.NoError(t, s.Rotate("head", 1, 0, 0))
	require.NoError(t, s.Rotate("spine", 0, 1, 0))

	assert.Equal(t, 3, s.ResetAll())
	for _, id := range []string{"head", "neck", "spine"} {
		rot, err := s.Current(id)
		require.NoError(t, err)
		assert.Equal(t, mgl64.Vec3{}, rot, id)
	}
}

func TestResetAll_EmptyRegistry(t *testing.T) {
	s := NewStore(skeleton.NewRegistry())
	assert.Equal(t, 0, s.ResetAll())
}

func TestOnChange_ReceivesSourceAndReset(t *testing.T) {
	s, _ := newStore(t, skeleton.RestJoint{ID: "head"})

	var got []Change
	s.SetOnChange(func(c Change) { got = append(got, c) })

	require.NoError(t, s.RotateFrom(SourceCommand, "head", mgl64.Vec3{1, 0, 0}))
	require.NoError(t, s.ResetFrom(SourceSequence, "head"))

	require.Len(t, got, 2)
	assert.Equal(t, Change{Joint: "head", Rotation: mgl64.Vec3{1, 0, 0}, Source: SourceCommand}, got[0])
	assert.True(t, got[1].Reset)
	assert.Equal(t, SourceSequence, got[1].Source)
}

func TestClear_DropsBaselines(t *testing.T) {
	s, _ := newStore(t, skeleton.RestJoint{ID: "head"})
	require.NoError(t, s.Rotate("head", 1, 0, 0))

	s.Clear()
	_, ok := s.Baseline("head")
	assert.False(t, ok)
}
