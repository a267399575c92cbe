package socket

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"mininotion/pkg/logger"
	"mininotion/store"
)

const (
	UpdateType         = "UPDATE"          // Document saved through the API
	DeleteType         = "DELETE"          // Document deleted; the room is closed
	AccessType         = "ACCESS"          // The receiving user's grant changed
	CursorType         = "CURSOR"          // User moved their cursor
	PresenceUpdateType = "PRESENCE_UPDATE" // A user joined or left

	broadcastBuffer = 256
)

type WSMessage struct {
	Type    string          `json:"type"`
	DocID   string          `json:"document_id"`
	UserID  string          `json:"user_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type UserStatus struct {
	UserID   string    `json:"user_id"`
	CanEdit  bool      `json:"can_edit"`
	JoinedAt time.Time `json:"joined_at"`
}

type AccessPayload struct {
	CanEdit bool `json:"can_edit"`
	Revoked bool `json:"revoked,omitempty"`
}

// Hub fans document events out to the clients that have the document open.
// Rooms are only mutated by Run.
type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan WSMessage, broadcastBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.DocID] == nil {
				h.Rooms[client.DocID] = make(map[*Client]bool)
			}
			h.Rooms[client.DocID][client] = true
			h.mu.Unlock()
			logger.Sugar.Debugf("User %s joined doc %s", client.UserID, client.DocID)
			h.broadcastPresenceUpdate(client.DocID)

		case client := <-h.Unregister:
			if h.drop(client) {
				h.broadcastPresenceUpdate(client.DocID)
			}

		case msg := <-h.Broadcast:
			h.dispatch(msg)
		}
	}
}

func (h *Hub) dispatch(msg WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
		return
	}

	switch msg.Type {
	case DeleteType:
		for _, client := range h.clients(msg.DocID, nil) {
			h.send(client, payload)
			h.drop(client)
		}

	case AccessType:
		var access AccessPayload
		if err := json.Unmarshal(msg.Payload, &access); err != nil {
			logger.Sugar.Errorf("Bad access payload for doc %s: %v", msg.DocID, err)
			return
		}
		targets := h.clients(msg.DocID, func(c *Client) bool { return c.UserID == msg.UserID })
		if len(targets) == 0 {
			return
		}
		for _, client := range targets {
			h.send(client, payload)
			if access.Revoked {
				h.drop(client)
			} else {
				h.mu.Lock()
				client.CanEdit = access.CanEdit
				h.mu.Unlock()
			}
		}
		h.broadcastPresenceUpdate(msg.DocID)

	default:
		// Everyone in the room except the author.
		for _, client := range h.clients(msg.DocID, func(c *Client) bool { return c.UserID != msg.UserID }) {
			if !h.send(client, payload) {
				logger.Sugar.Warnf("Client %s's send buffer is full. Unregistering.", client.UserID)
				h.drop(client)
			}
		}
	}
}

// clients snapshots a room, optionally filtered.
func (h *Hub) clients(docID string, keep func(*Client) bool) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Client, 0, len(h.Rooms[docID]))
	for client := range h.Rooms[docID] {
		if keep == nil || keep(client) {
			out = append(out, client)
		}
	}
	return out
}

func (h *Hub) send(client *Client, payload []byte) bool {
	select {
	case client.Send <- payload:
		return true
	default:
		return false
	}
}

// drop removes client from its room and closes its send channel, which makes
// the write pump close the connection. It reports whether client was present.
func (h *Hub) drop(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.Rooms[client.DocID]
	if !ok || !room[client] {
		return false
	}
	delete(room, client)
	close(client.Send)
	if len(room) == 0 {
		delete(h.Rooms, client.DocID)
		logger.Sugar.Debugf("Closed empty room: %s", client.DocID)
	}
	return true
}

// RoomSize returns the number of open connections on a document.
func (h *Hub) RoomSize(docID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Rooms[docID])
}

func (h *Hub) broadcastPresenceUpdate(docID string) {
	h.mu.Lock()
	seen := make(map[string]UserStatus, len(h.Rooms[docID]))
	for client := range h.Rooms[docID] {
		if prev, ok := seen[client.UserID]; !ok || client.JoinedAt.Before(prev.JoinedAt) {
			seen[client.UserID] = UserStatus{UserID: client.UserID, CanEdit: client.CanEdit, JoinedAt: client.JoinedAt}
		}
	}
	h.mu.Unlock()

	if len(seen) == 0 {
		return
	}
	statuses := make([]UserStatus, 0, len(seen))
	for _, status := range seen {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].JoinedAt.Before(statuses[j].JoinedAt) })

	payload, err := json.Marshal(statuses)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling presence broadcast: %v", err)
		return
	}
	broadcastPayload, _ := json.Marshal(WSMessage{Type: PresenceUpdateType, DocID: docID, Payload: payload})

	for _, client := range h.clients(docID, nil) {
		if !h.send(client, broadcastPayload) {
			logger.Sugar.Warnf("Client %s's send buffer was full during presence update.", client.UserID)
		}
	}
}

// publish queues msg for Run without ever blocking the caller. When the queue
// is full the event is dropped.
func (h *Hub) publish(msg WSMessage) {
	select {
	case h.Broadcast <- msg:
	default:
		logger.Sugar.Warnf("Hub queue full, dropping %s event for doc %s", msg.Type, msg.DocID)
	}
}

func (h *Hub) DocumentUpdated(doc store.Document, byUserID string) {
	payload, err := json.Marshal(doc)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling document %s: %v", doc.ID, err)
		return
	}
	h.publish(WSMessage{Type: UpdateType, DocID: doc.ID, UserID: byUserID, Payload: payload})
}

func (h *Hub) DocumentDeleted(documentID string) {
	h.publish(WSMessage{Type: DeleteType, DocID: documentID})
}

func (h *Hub) AccessChanged(documentID, userID string, canEdit bool) {
	payload, _ := json.Marshal(AccessPayload{CanEdit: canEdit})
	h.publish(WSMessage{Type: AccessType, DocID: documentID, UserID: userID, Payload: payload})
}

func (h *Hub) AccessRevoked(documentID, userID string) {
	payload, _ := json.Marshal(AccessPayload{Revoked: true})
	h.publish(WSMessage{Type: AccessType, DocID: documentID, UserID: userID, Payload: payload})
}
