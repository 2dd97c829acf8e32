package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToCaregiver(conversationID string, msgType string, payload interface{})
}
