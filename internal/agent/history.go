package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/redis/go-redis/v9"
)

// History stores per-chat conversation context between turns. Only plain
// text turns are kept; tool traffic is transient within a turn.
type History interface {
	Load(ctx context.Context, chatID string) ([]*genai.Content, error)
	Append(ctx context.Context, chatID, userText, assistantText string) error
}

type storedMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// RedisHistory keeps a capped, expiring message list per chat.
type RedisHistory struct {
	rdb   *redis.Client
	ttl   time.Duration
	limit int
}

func NewRedisHistory(rdb *redis.Client, ttl time.Duration, limit int) *RedisHistory {
	if limit <= 0 {
		limit = 20
	}

	return &RedisHistory{rdb: rdb, ttl: ttl, limit: limit}
}

func historyKey(chatID string) string {
	return "chat:history:" + chatID
}

func (h *RedisHistory) Load(ctx context.Context, chatID string) ([]*genai.Content, error) {
	raw, err := h.rdb.LRange(ctx, historyKey(chatID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}

	history := make([]*genai.Content, 0, len(raw))
	for _, item := range raw {
		var msg storedMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue // skip corrupt entries rather than failing the turn
		}

		history = append(history, &genai.Content{
			Role:  msg.Role,
			Parts: []genai.Part{genai.Text(msg.Text)},
		})
	}

	return history, nil
}

func (h *RedisHistory) Append(ctx context.Context, chatID, userText, assistantText string) error {
	key := historyKey(chatID)

	userMsg, err := json.Marshal(storedMessage{Role: "user", Text: userText})
	if err != nil {
		return fmt.Errorf("marshal user message: %w", err)
	}

	modelMsg, err := json.Marshal(storedMessage{Role: "model", Text: assistantText})
	if err != nil {
		return fmt.Errorf("marshal model message: %w", err)
	}

	pipe := h.rdb.TxPipeline()
	pipe.RPush(ctx, key, userMsg, modelMsg)
	pipe.LTrim(ctx, key, int64(-h.limit), -1)
	pipe.Expire(ctx, key, h.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append chat history: %w", err)
	}

	return nil
}
