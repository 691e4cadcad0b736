package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/catoptric/catoptric/client-go/internal/backend"
	"github.com/catoptric/catoptric/client-go/internal/session"
)

// StateLoader resolves a share id to its saved session state.
type StateLoader func(shareID string) (session.State, error)

type Room struct {
	key      string
	clients  map[string]*Client // clientID -> client
	presence *PresenceBoard
}

func NewRoom(key string) *Room {
	return &Room{
		key:      key,
		clients:  make(map[string]*Client),
		presence: NewPresenceBoard(),
	}
}

// Hub groups clients viewing the same share into rooms, and owns the
// lifecycle of each client's controller session.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room
	sampler    backend.Sampler
	loadState  StateLoader
	register   chan *Client
	unregister chan *Client
}

func NewHub(sampler backend.Sampler, loadState StateLoader) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		sampler:    sampler,
		loadState:  loadState,
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// roomKey groups viewers of the same share; scratch sessions (no share)
// each get a private room.
func roomKey(client *Client) string {
	if client.ShareID != "" {
		return client.ShareID
	}
	return "scratch:" + client.ClientID
}

func (h *Hub) addClient(client *Client) {
	initial := session.DefaultState()
	if client.ShareID != "" && h.loadState != nil {
		st, err := h.loadState(client.ShareID)
		if err != nil {
			slog.Warn("load share state, using defaults", "share", client.ShareID, "error", err)
		} else {
			initial = st
		}
	}

	client.session = NewSession(client, h.sampler, initial)
	go client.session.Run(context.Background())

	key := roomKey(client)
	h.mu.Lock()
	room, ok := h.rooms[key]
	if !ok {
		room = NewRoom(key)
		h.rooms[key] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	welcomePayload, _ := json.Marshal(WelcomePayload{
		ClientID:    client.ClientID,
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
		ShareID:     client.ShareID,
	})
	client.Send(&Message{Type: TypeWelcome, Payload: welcomePayload})

	// Send current presence state to new client
	stateMsg := room.presence.StateMessage()
	if stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}
	h.broadcastToRoom(key, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "room", key)
}

func (h *Hub) removeClient(client *Client) {
	key := roomKey(client)

	h.mu.Lock()
	room, ok := h.rooms[key]
	if !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	// The send channel is never closed: a concurrent broadcast may still
	// be holding this client. Closing done releases the write pump, and
	// later Sends fall through to the drop path.
	client.shutdown()
	room.presence.Remove(client.UserID)

	if len(room.clients) == 0 {
		delete(h.rooms, key)
	}
	h.mu.Unlock()

	if client.session != nil {
		client.session.Stop()
	}

	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		UserID: client.UserID,
	})
	leaveMsg := &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}
	h.broadcastToRoom(key, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "room", key)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypePointerDown, TypePointerMove, TypePointerUp,
		TypeWheel, TypeDoubleClick:
		sender.session.Dispatch(msg)
	case TypeEquationSet, TypeBindingSet, TypeMethodSet, TypeThreshold, TypeStateLoad:
		sender.session.Dispatch(msg)
		// Co-viewers follow edits so shared sessions stay in step.
		syncMsg := &Message{
			Type:    TypeStateSync,
			UserID:  sender.UserID,
			Payload: msg.Payload,
		}
		h.broadcastToRoom(roomKey(sender), syncMsg, sender.ClientID)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	key := roomKey(sender)
	h.mu.RLock()
	room, ok := h.rooms[key]
	h.mu.RUnlock()
	if !ok {
		return
	}

	if !room.presence.Update(sender.UserID, &presence) {
		slog.Warn("presence update rejected", "user", sender.UserID)
		return
	}

	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}
	h.broadcastToRoom(key, outMsg, sender.ClientID)
}

func (h *Hub) broadcastToRoom(key string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[key]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
