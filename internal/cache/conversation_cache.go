package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"journeybot/internal/model"
)

// ConversationCache handles Redis operations for hot conversation state
type ConversationCache interface {
	// Snapshot of the engine position, for resume/re-render
	SetSnapshot(ctx context.Context, conversationID string, snap *model.ConversationSnapshot) error
	GetSnapshot(ctx context.Context, conversationID string) (*model.ConversationSnapshot, error)

	// Transcript (append-only chat log)
	AppendMessage(ctx context.Context, conversationID string, msg *model.ChatMessage) error
	GetTranscript(ctx context.Context, conversationID string) ([]model.ChatMessage, error)

	// Advisory active-conversation marker per child/caregiver pair
	MarkActive(ctx context.Context, conversationID string) (bool, error)
	ClearActive(ctx context.Context, conversationID string) error

	// Drops the snapshot and transcript once a run completes, so the
	// next run for the same pair starts from a clean chat
	ClearConversation(ctx context.Context, conversationID string) error
}

type conversationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewConversationCache creates a new conversation cache
func NewConversationCache(client *redis.Client, ttl time.Duration) ConversationCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &conversationCache{
		client: client,
		ttl:    ttl,
	}
}

// Key helpers
func (c *conversationCache) snapshotKey(conversationID string) string {
	return fmt.Sprintf("conv:%s:snapshot", conversationID)
}

func (c *conversationCache) transcriptKey(conversationID string) string {
	return fmt.Sprintf("conv:%s:transcript", conversationID)
}

func (c *conversationCache) activeKey(conversationID string) string {
	return fmt.Sprintf("conv:%s:active", conversationID)
}

func (c *conversationCache) SetSnapshot(ctx context.Context, conversationID string, snap *model.ConversationSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.snapshotKey(conversationID), data, c.ttl).Err()
}

func (c *conversationCache) GetSnapshot(ctx context.Context, conversationID string) (*model.ConversationSnapshot, error) {
	data, err := c.client.Get(ctx, c.snapshotKey(conversationID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap model.ConversationSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *conversationCache) AppendMessage(ctx context.Context, conversationID string, msg *model.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := c.transcriptKey(conversationID)
	if err := c.client.RPush(ctx, key, data).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, c.ttl).Err()
}

func (c *conversationCache) GetTranscript(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	entries, err := c.client.LRange(ctx, c.transcriptKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	messages := make([]model.ChatMessage, 0, len(entries))
	for _, entry := range entries {
		var msg model.ChatMessage
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// MarkActive claims the conversation. Returns false if another engine
// instance already holds the marker. Advisory only, not transactional.
func (c *conversationCache) MarkActive(ctx context.Context, conversationID string) (bool, error) {
	return c.client.SetNX(ctx, c.activeKey(conversationID), time.Now().Format(time.RFC3339), c.ttl).Result()
}

func (c *conversationCache) ClearActive(ctx context.Context, conversationID string) error {
	return c.client.Del(ctx, c.activeKey(conversationID)).Err()
}

func (c *conversationCache) ClearConversation(ctx context.Context, conversationID string) error {
	return c.client.Del(ctx, c.snapshotKey(conversationID), c.transcriptKey(conversationID)).Err()
}
