// Package posesync mirrors pose state to browser renderers over websocket
// and lets them drive the session.
package posesync

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ChinaCraig/Zy/internal/bus"
	"github.com/ChinaCraig/Zy/internal/metrics"
	"github.com/ChinaCraig/Zy/internal/notify"
	"github.com/ChinaCraig/Zy/internal/session"
)

// DefaultSendBuffer is how many messages a client may have queued.
const DefaultSendBuffer = 64

// Hub fans session events out to connected clients.
type Hub struct {
	sess       *session.Session
	upgrader   websocket.Upgrader
	sendBuffer int
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a hub for sess and subscribes it to the session's bus.
func NewHub(sess *session.Session, sendBuffer int, logger zerolog.Logger) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		sess: sess,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sendBuffer: sendBuffer,
		logger:     logger.With().Str("component", "posesync").Logger(),
		ctx:        ctx,
		cancel:     cancel,
		clients:    make(map[*client]struct{}),
	}
	h.subscribe(sess.Bus())
	return h
}

func (h *Hub) subscribe(b *bus.EventBus) {
	relay := func(msgType, key string) bus.Handler {
		return func(e bus.Event) {
			var data any
			if key != "" {
				data = e.Data[key]
			}
			h.Broadcast(Message{Type: msgType, Data: data})
		}
	}

	b.Subscribe(bus.EventTypePoseChanged, relay(TypePose, "change"))
	b.Subscribe(bus.EventTypeSequenceProgress, relay(TypeProgress, "progress"))
	b.Subscribe(bus.EventTypeSequenceDone, relay(TypeDone, "result"))
	b.Subscribe(bus.EventTypeSequenceChanged, relay(TypeSequence, "actions"))
	b.Subscribe(bus.EventTypeSelectionChanged, relay(TypeSelection, "selection"))
	b.Subscribe(bus.EventTypeNotice, relay(TypeNotice, "notice"))
	b.Subscribe(bus.EventTypeModelReady, relay(TypeModelReady, "joints"))
	b.Subscribe(bus.EventTypeModelUnloaded, relay(TypeUnloaded, ""))
	b.Subscribe(bus.EventTypeModelError, relay(TypeModelError, "error"))
	b.Subscribe(bus.EventTypeChatMessage, relay(TypeChat, "message"))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues msg for every client. Clients whose queue is full are
// dropped.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to encode broadcast")
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn().Str("remote", c.remote).Msg("Dropping slow client")
		h.unregister(c)
	}
}

// ServeHTTP upgrades the request and serves one client until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, h.sendBuffer),
		remote: r.RemoteAddr,
	}
	if !h.register(c) {
		conn.Close()
		return
	}
	defer h.wg.Done()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump()
	}()
	c.readPump()
	h.unregister(c)
	<-done
}

// register adds c with the snapshot as its first queued message. A
// registered client counts toward Close's wait until ServeHTTP returns.
func (h *Hub) register(c *client) bool {
	snapshot, err := json.Marshal(Message{Type: TypeSnapshot, Data: h.sess.State()})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode snapshot")
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.wg.Add(1)
	c.send <- snapshot
	h.clients[c] = struct{}{}
	metrics.SyncClients.Inc()
	h.logger.Info().Str("remote", c.remote).Int("clients", len(h.clients)).Msg("Client connected")
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.SyncClients.Dec()
	h.logger.Info().Str("remote", c.remote).Int("clients", len(h.clients)).Msg("Client disconnected")
}

// dispatch routes one control message to the session.
func (h *Hub) dispatch(c *client, cmd Command) {
	switch cmd.Type {
	case CmdInput:
		h.background(func() {
			msg, err := h.sess.Submit(h.ctx, cmd.Text)
			if err != nil {
				c.reply(Result{Command: cmd.Type, Notice: notify.FromError(err)})
				return
			}
			c.reply(Result{Command: cmd.Type, Notice: notify.Notice{Level: notify.LevelInfo}, Data: msg})
		})
	case CmdSelect:
		c.reply(Result{Command: cmd.Type, Notice: h.sess.SelectJoint(cmd.Joint)})
	case CmdRotate:
		c.reply(Result{Command: cmd.Type, Notice: h.sess.RotateSelected(cmd.Degrees)})
	case CmdReset:
		c.reply(Result{Command: cmd.Type, Notice: h.sess.ResetJoint(cmd.Joint)})
	case CmdResetAll:
		c.reply(Result{Command: cmd.Type, Notice: h.sess.ResetAll()})
	case CmdAdd:
		if cmd.Joint != "" {
			if n := h.sess.SelectJoint(cmd.Joint); !n.OK() {
				c.reply(Result{Command: cmd.Type, Notice: n})
				return
			}
		}
		a, n := h.sess.AddSelected(cmd.Degrees)
		c.reply(Result{Command: cmd.Type, Notice: n, Data: a})
	case CmdRemove:
		c.reply(Result{Command: cmd.Type, Notice: h.sess.RemoveAction(cmd.ID)})
	case CmdClear:
		c.reply(Result{Command: cmd.Type, Notice: h.sess.ClearSequence()})
	case CmdRandomize:
		added, n := h.sess.Randomize(cmd.Count)
		c.reply(Result{Command: cmd.Type, Notice: n, Data: added})
	case CmdPlay:
		h.background(func() {
			c.reply(Result{Command: cmd.Type, Notice: h.sess.Play(h.ctx)})
		})
	case CmdCancel:
		c.reply(Result{Command: cmd.Type, Notice: h.sess.CancelPlayback()})
	default:
		c.queue(Message{Type: TypeError, Data: "unknown command: " + cmd.Type})
	}
}

func (h *Hub) background(fn func()) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.wg.Done()
		fn()
	}()
}

// Close disconnects every client, stops background work and waits for it.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	h.cancel()
	for _, c := range clients {
		c.conn.Close()
	}
	h.wg.Wait()
}
