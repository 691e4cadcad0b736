package live

import (
	"encoding/json"
	"log/slog"
	"math"
	"sync"
)

// PresenceBoard tracks co-viewer cursors in a room. Cursor positions are
// logical plane coordinates, not surface pixels, so every viewer can
// project the same cursor through their own pan and zoom.
type PresenceBoard struct {
	mu      sync.RWMutex
	viewers map[string]*PresencePayload // userID -> last report
}

func NewPresenceBoard() *PresenceBoard {
	return &PresenceBoard{
		viewers: make(map[string]*PresencePayload),
	}
}

// Update records a viewer's latest report. Reports with a non-finite
// cursor are rejected: such a position cannot be projected onto any
// viewer's surface.
func (b *PresenceBoard) Update(userID string, p *PresencePayload) bool {
	if p.Cursor != nil && !finiteCursor(p.Cursor) {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewers[userID] = p
	return true
}

func (b *PresenceBoard) Remove(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.viewers, userID)
}

// Snapshot returns a copy of the board for broadcasting.
func (b *PresenceBoard) Snapshot() map[string]*PresencePayload {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make(map[string]*PresencePayload, len(b.viewers))
	for k, v := range b.viewers {
		result[k] = v
	}
	return result
}

// StateMessage packs the whole board into one message for clients that
// just joined the room.
func (b *PresenceBoard) StateMessage() *Message {
	payload, err := json.Marshal(PresenceStatePayload{Presences: b.Snapshot()})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}

func finiteCursor(c *CursorPos) bool {
	return !math.IsNaN(c.X) && !math.IsInf(c.X, 0) &&
		!math.IsNaN(c.Y) && !math.IsInf(c.Y, 0)
}
