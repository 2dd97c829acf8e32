package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgTyping      MessageType = "typing"
	MsgChatMessage MessageType = "chat_message"
	MsgStateUpdate MessageType = "state_update"
	MsgCompleted   MessageType = "conversation_completed"
	MsgError       MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections for conversations
type Hub struct {
	// Conversation -> connections (a caregiver may have several tabs open)
	conns map[string]map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents one caregiver WebSocket connection
type Connection struct {
	ConversationID string
	CaregiverID    string
	Send           chan []byte
	Hub            *Hub
}

// BroadcastMessage is a message to broadcast to a conversation
type BroadcastMessage struct {
	ConversationID string
	Message        *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.ConversationID] == nil {
				h.conns[conn.ConversationID] = make(map[*Connection]bool)
			}
			h.conns[conn.ConversationID][conn] = true
			log.Printf("Caregiver %s connected to conversation %s", conn.CaregiverID, conn.ConversationID)
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.conns[conn.ConversationID]; ok {
				if conns[conn] {
					delete(conns, conn)
					close(conn.Send)
					log.Printf("Caregiver %s disconnected from conversation %s", conn.CaregiverID, conn.ConversationID)
				}
				if len(conns) == 0 {
					delete(h.conns, conn.ConversationID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for conn := range h.conns[msg.ConversationID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToCaregiver sends a message to every connection of a
// conversation (implements service.Broadcaster)
func (h *Hub) BroadcastToCaregiver(conversationID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		ConversationID: conversationID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}
