package posesync

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChinaCraig/Zy/internal/notify"
	"github.com/ChinaCraig/Zy/internal/pose"
	"github.com/ChinaCraig/Zy/internal/session"
	"github.com/ChinaCraig/Zy/internal/skeleton"
)

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type resultMsg struct {
	Command string          `json:"command"`
	Notice  notify.Notice   `json:"notice"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T) (*session.Session, *Hub, string) {
	t.Helper()
	sess := session.New(nil, session.Options{StepDelay: time.Millisecond}, zerolog.Nop())
	sess.ModelReady([]skeleton.RestJoint{{ID: "head"}, {ID: "neck"}})

	hub := NewHub(sess, 16, zerolog.Nop())
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return sess, hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) inbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var m inbound
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func readUntil(t *testing.T, conn *websocket.Conn, msgType string) inbound {
	t.Helper()
	for {
		if m := read(t, conn); m.Type == msgType {
			return m
		}
	}
}

func readResult(t *testing.T, conn *websocket.Conn, command string) resultMsg {
	t.Helper()
	for {
		m := readUntil(t, conn, TypeResult)
		var r resultMsg
		require.NoError(t, json.Unmarshal(m.Data, &r))
		if r.Command == command {
			return r
		}
	}
}

func TestConnect_SendsSnapshotFirst(t *testing.T) {
	_, hub, url := setup(t)
	conn := dial(t, url)

	m := read(t, conn)
	require.Equal(t, TypeSnapshot, m.Type)

	var st session.State
	require.NoError(t, json.Unmarshal(m.Data, &st))
	assert.True(t, st.Loaded)
	require.Len(t, st.Joints, 2)
	assert.Equal(t, "颈部", st.Joints[1].Label)

	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRotate_BroadcastsPoseToAllClients(t *testing.T) {
	_, _, url := setup(t)
	a := dial(t, url)
	b := dial(t, url)
	read(t, a)
	read(t, b)

	require.NoError(t, a.WriteJSON(Command{Type: CmdSelect, Joint: "head"}))
	assert.True(t, readResult(t, a, CmdSelect).Notice.OK())

	require.NoError(t, a.WriteJSON(Command{Type: CmdRotate, Degrees: mgl64.Vec3{0, 90, 0}}))

	m := readUntil(t, b, TypePose)
	var c pose.Change
	require.NoError(t, json.Unmarshal(m.Data, &c))
	assert.Equal(t, "head", c.Joint)
	assert.Equal(t, pose.SourcePanel, c.Source)
	assert.InDelta(t, 1.5707963, c.Rotation[1], 1e-6)
}

func TestModelFailed_RelaysErrorThenNotice(t *testing.T) {
	sess, hub, url := setup(t)
	conn := dial(t, url)
	read(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	sess.ModelFailed(errors.New("bad header"))

	assert.Equal(t, TypeUnloaded, read(t, conn).Type)
	m := read(t, conn)
	require.Equal(t, TypeModelError, m.Type)
	var reason string
	require.NoError(t, json.Unmarshal(m.Data, &reason))
	assert.Equal(t, "bad header", reason)
	assert.Equal(t, TypeNotice, read(t, conn).Type)
}

func TestInput_CommandHandledLocally(t *testing.T) {
	sess, _, url := setup(t)
	conn := dial(t, url)
	read(t, conn)

	require.NoError(t, conn.WriteJSON(Command{Type: CmdInput, Text: "头向下"}))
	r := readResult(t, conn, CmdInput)
	assert.Empty(t, r.Notice.Message)

	rot, err := sess.Store().Current("head")
	require.NoError(t, err)
	assert.InDelta(t, 0.5235987, rot[0], 1e-6)
}

func TestInput_NoBackendReportsError(t *testing.T) {
	_, _, url := setup(t)
	conn := dial(t, url)
	read(t, conn)

	require.NoError(t, conn.WriteJSON(Command{Type: CmdInput, Text: "你好"}))
	r := readResult(t, conn, CmdInput)
	assert.Equal(t, notify.LevelError, r.Notice.Level)
}

func TestPlay_StreamsProgressAndDone(t *testing.T) {
	_, _, url := setup(t)
	conn := dial(t, url)
	read(t, conn)

	require.NoError(t, conn.WriteJSON(Command{Type: CmdAdd, Joint: "head", Degrees: mgl64.Vec3{10, 0, 0}}))
	require.True(t, readResult(t, conn, CmdAdd).Notice.OK())
	require.NoError(t, conn.WriteJSON(Command{Type: CmdAdd, Joint: "neck", Degrees: mgl64.Vec3{0, 10, 0}}))
	require.True(t, readResult(t, conn, CmdAdd).Notice.OK())

	require.NoError(t, conn.WriteJSON(Command{Type: CmdPlay}))
	readUntil(t, conn, TypeProgress)
	readUntil(t, conn, TypeDone)
	r := readResult(t, conn, CmdPlay)
	assert.Equal(t, notify.LevelSuccess, r.Notice.Level)
}

func TestRandomizeInvalidCount(t *testing.T) {
	_, _, url := setup(t)
	conn := dial(t, url)
	read(t, conn)

	require.NoError(t, conn.WriteJSON(Command{Type: CmdRandomize, Count: 21}))
	r := readResult(t, conn, CmdRandomize)
	assert.Equal(t, notify.LevelWarning, r.Notice.Level)
}

func TestUnknownAndMalformed(t *testing.T) {
	_, _, url := setup(t)
	conn := dial(t, url)
	read(t, conn)

	require.NoError(t, conn.WriteJSON(Command{Type: "dance"}))
	assert.Equal(t, TypeError, read(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, TypeError, read(t, conn).Type)
}

func TestDisconnect_Unregisters(t *testing.T) {
	_, hub, url := setup(t)
	conn := dial(t, url)
	read(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcast_DropsSlowClient(t *testing.T) {
	sess := session.New(nil, session.Options{}, zerolog.Nop())
	hub := NewHub(sess, 1, zerolog.Nop())
	defer hub.Close()

	c := &client{hub: hub, send: make(chan []byte, 1), remote: "test"}
	hub.mu.Lock()
	hub.clients[c] = struct{}{}
	hub.mu.Unlock()

	hub.Broadcast(Message{Type: TypeNotice})
	assert.Equal(t, 1, hub.ClientCount())
	hub.Broadcast(Message{Type: TypeNotice})
	assert.Equal(t, 0, hub.ClientCount())
}
