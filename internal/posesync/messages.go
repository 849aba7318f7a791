package posesync

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ChinaCraig/Zy/internal/notify"
)

// Outbound message types.
const (
	TypeSnapshot   = "snapshot"
	TypePose       = "pose"
	TypeProgress   = "sequence.progress"
	TypeDone       = "sequence.done"
	TypeSequence   = "sequence"
	TypeSelection  = "selection"
	TypeNotice     = "notice"
	TypeModelReady = "model.ready"
	TypeUnloaded   = "model.unloaded"
	TypeModelError = "model.error"
	TypeChat       = "chat"
	TypeResult     = "result"
	TypeError      = "error"
)

// Control message types accepted from clients.
const (
	CmdInput     = "input"
	CmdSelect    = "select"
	CmdRotate    = "rotate"
	CmdReset     = "reset"
	CmdResetAll  = "reset_all"
	CmdAdd       = "add"
	CmdRemove    = "remove"
	CmdClear     = "clear"
	CmdRandomize = "randomize"
	CmdPlay      = "play"
	CmdCancel    = "cancel"
)

// Message is sent to clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Command is a control message from a client. Fields are used according
// to Type.
type Command struct {
	Type    string     `json:"type"`
	Text    string     `json:"text,omitempty"`
	Joint   string     `json:"joint,omitempty"`
	Degrees mgl64.Vec3 `json:"degrees,omitempty"`
	ID      string     `json:"id,omitempty"`
	Count   int        `json:"count,omitempty"`
}

// Result answers one Command to the client that sent it.
type Result struct {
	Command string        `json:"command"`
	Notice  notify.Notice `json:"notice"`
	Data    any           `json:"data,omitempty"`
}
