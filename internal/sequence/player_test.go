package sequence

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ChinaCraig/Zy/internal/pose"
	"github.com/ChinaCraig/Zy/internal/skeleton"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu      sync.Mutex
	changes []pose.Change
}

func (r *recorder) record(c pose.Change) {
	r.mu.Lock()
	r.changes = append(r.changes, c)
	r.mu.Unlock()
}

func (r *recorder) joints() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.changes))
	for i, c := range r.changes {
		out[i] = c.Joint
	}
	return out
}

func newPlayer(t *testing.T, delay time.Duration) (*Player, *pose.Store, *recorder) {
	t.Helper()
	reg := skeleton.NewRegistry()
	reg.Populate([]string{"head", "neck", "spine"})
	store := pose.NewStore(reg)
	rec := &recorder{}
	store.SetOnChange(rec.record)
	return NewPlayer(store, delay, zerolog.Nop()), store, rec
}

func act(id, joint string, deg mgl64.Vec3) Action {
	return Action{ID: id, Joint: joint, Degrees: deg}
}

func TestPlay_EmptyRejectedWithoutMutation(t *testing.T) {
	p, _, rec := newPlayer(t, time.Millisecond)

	_, err := p.Play(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptySequence)
	assert.Empty(t, rec.joints())
	assert.False(t, p.Playing())
}

func TestPlay_AppliesInOrderExactlyOnce(t *testing.T) {
	p, store, rec := newPlayer(t, time.Millisecond)

	var progress []int
	p.SetProgressHandler(func(pr Progress) {
		// the step's own mutation is visible before its progress report
		assert.Len(t, rec.joints(), pr.Index+1)
		progress = append(progress, pr.Index)
	})
	var done Result
	p.SetDoneHandler(func(r Result) { done = r })

	res, err := p.Play(context.Background(), []Action{
		act("a1", "spine", mgl64.Vec3{30, 0, 0}),
		act("a2", "head", mgl64.Vec3{0, 45, 0}),
		act("a3", "neck", mgl64.Vec3{0, 0, -60}),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"spine", "head", "neck"}, rec.joints())
	assert.Equal(t, []int{0, 1, 2}, progress)
	assert.Equal(t, Result{Total: 3, Applied: 3}, res)
	assert.Equal(t, res, done)

	rot, err := store.Current("head")
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/4, rot[1], 1e-12)
}

func TestPlay_PausesBetweenStepsOnly(t *testing.T) {
	delay := 20 * time.Millisecond
	p, _, _ := newPlayer(t, delay)

	start := time.Now()
	_, err := p.Play(context.Background(), []Action{
		act("a1", "head", mgl64.Vec3{}),
		act("a2", "head", mgl64.Vec3{}),
		act("a3", "head", mgl64.Vec3{}),
	})
	require.NoError(t, err)

	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 2*delay)
	assert.Less(t, elapsed, 3*delay+200*time.Millisecond)
}

func TestPlay_MissingJointSkipped(t *testing.T) {
	p, _, rec := newPlayer(t, time.Millisecond)

	res, err := p.Play(context.Background(), []Action{
		act("a1", "tail", mgl64.Vec3{10, 0, 0}),
		act("a2", "head", mgl64.Vec3{10, 0, 0}),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, []string{"head"}, rec.joints())
}

func TestPlay_ConcurrentPlayRejected(t *testing.T) {
	p, _, _ := newPlayer(t, 50*time.Millisecond)

	started := make(chan struct{})
	p.SetProgressHandler(func(pr Progress) {
		if pr.Index == 0 {
			close(started)
		}
	})

	errc := make(chan error, 1)
	go func() {
		_, err := p.Play(context.Background(), []Action{
			act("a1", "head", mgl64.Vec3{}),
			act("a2", "neck", mgl64.Vec3{}),
		})
		errc <- err
	}()

	<-started
	assert.True(t, p.Playing())
	_, err := p.Play(context.Background(), []Action{act("b1", "spine", mgl64.Vec3{})})
	assert.ErrorIs(t, err, ErrPlaybackInProgress)

	require.NoError(t, <-errc)
	assert.False(t, p.Playing())
}

func TestCancel_StopsBeforeNextStep(t *testing.T) {
	p, _, rec := newPlayer(t, time.Second)

	p.SetProgressHandler(func(pr Progress) {
		if pr.Index == 0 {
			go p.Cancel()
		}
	})

	res, err := p.Play(context.Background(), []Action{
		act("a1", "head", mgl64.Vec3{}),
		act("a2", "neck", mgl64.Vec3{}),
		act("a3", "spine", mgl64.Vec3{}),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, res.Canceled)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, []string{"head"}, rec.joints())
	assert.False(t, p.Cancel(), "nothing left to cancel")
}

func TestPlay_ParentContextCanceled(t *testing.T) {
	p, _, rec := newPlayer(t, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.Play(ctx, []Action{act("a1", "head", mgl64.Vec3{})})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Applied)
	assert.Empty(t, rec.joints())
}

func TestPlay_SnapshotIgnoresLaterEdits(t *testing.T) {
	p, _, rec := newPlayer(t, time.Millisecond)

	actions := []Action{
		act("a1", "head", mgl64.Vec3{}),
		act("a2", "neck", mgl64.Vec3{}),
	}
	p.SetProgressHandler(func(pr Progress) {
		if pr.Index == 0 {
			actions[1].Joint = "spine"
		}
	})

	_, err := p.Play(context.Background(), actions)
	require.NoError(t, err)
	assert.Equal(t, []string{"head", "neck"}, rec.joints())
}

func TestStop_WaitsForRunningStep(t *testing.T) {
	p, _, rec := newPlayer(t, time.Hour)

	inStep := make(chan struct{})
	release := make(chan struct{})
	var doneSeen bool
	p.SetProgressHandler(func(pr Progress) {
		if pr.Index == 0 {
			close(inStep)
			<-release
		}
	})
	p.SetDoneHandler(func(Result) { doneSeen = true })

	errc := make(chan error, 1)
	go func() {
		_, err := p.Play(context.Background(), []Action{
			act("a1", "head", mgl64.Vec3{}),
			act("a2", "neck", mgl64.Vec3{}),
		})
		errc <- err
	}()
	<-inStep

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		require.FailNow(t, "Stop returned while a step was running")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		require.FailNow(t, "Stop did not return")
	}
	assert.True(t, doneSeen, "done handler runs before Stop returns")
	assert.False(t, p.Playing())
	assert.Equal(t, []string{"head"}, rec.joints())
	assert.ErrorIs(t, <-errc, context.Canceled)
}

func TestStop_Idle(t *testing.T) {
	p, _, _ := newPlayer(t, time.Millisecond)
	p.Stop()
	assert.False(t, p.Playing())
}
