// Package live is the interactive transport: every websocket connection
// drives one controller session, and connections viewing the same share
// are grouped into rooms for presence and state sync.
package live

import (
	"encoding/json"

	"github.com/catoptric/catoptric/client-go/internal/binding"
	"github.com/catoptric/catoptric/client-go/internal/render"
)

type Message struct {
	Type     string          `json:"type"`
	ShareID  string          `json:"shareId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeError   = "error"

	// Input events (frontend → session)
	TypePointerDown = "input.pointer.down"
	TypePointerMove = "input.pointer.move"
	TypePointerUp   = "input.pointer.up"
	TypeWheel       = "input.wheel"
	TypeDoubleClick = "input.doubleclick"
	TypeEquationSet = "input.equation"
	TypeBindingSet  = "input.binding"
	TypeMethodSet   = "input.method"
	TypeThreshold   = "input.threshold"
	TypeStateLoad   = "session.load"

	// Session output (session → frontend)
	TypeFrame   = "frame"
	TypeSliders = "sliders"

	// Room traffic
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeStateSync      = "state.sync"
)

type WelcomePayload struct {
	ClientID    string `json:"clientId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	ShareID     string `json:"shareId,omitempty"`
}

type PointerPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type WheelPayload struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Delta float64 `json:"delta"`
}

type EquationPayload struct {
	Slot      string `json:"slot"` // "mirror", "figure", "sigma_tau"
	Component int    `json:"component"`
	Text      string `json:"text"`
}

type BindingPayload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type MethodPayload struct {
	Method string `json:"method"`
}

type ThresholdPayload struct {
	Threshold int `json:"threshold"`
}

type FramePayload struct {
	Commands []render.DrawCommand `json:"commands"`
}

type SlidersPayload struct {
	Patches []binding.SliderPatch `json:"patches"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

// CursorPos is a cursor position in logical plane coordinates; each
// viewer projects it through their own view before drawing.
type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

type ErrorPayload struct {
	Reason string `json:"reason"`
}
