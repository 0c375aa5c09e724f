package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sendit/messenger/internal/model"
)

const conversationViewTTL = 10 * time.Minute

// ConversationCacheRepository caches assembled conversation views keyed by
// the thread version they were built from.
type ConversationCacheRepository interface {
	// Get returns found=false on a miss.
	Get(ctx context.Context, conversationID string, version int64) (*model.ConversationView, bool, error)
	Set(ctx context.Context, view *model.ConversationView) error
}

type conversationCacheRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewConversationCacheRepository(rdb *redis.Client) ConversationCacheRepository {
	return &conversationCacheRepository{rdb: rdb, ttl: conversationViewTTL}
}

func (r *conversationCacheRepository) viewKey(conversationID string, version int64) string {
	return fmt.Sprintf("conversation:%s:v%d", conversationID, version)
}

func (r *conversationCacheRepository) Get(ctx context.Context, conversationID string, version int64) (*model.ConversationView, bool, error) {
	if conversationID == "" {
		return nil, false, fmt.Errorf("conversationID cannot be empty")
	}

	value, err := r.rdb.Get(ctx, r.viewKey(conversationID, version)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get conversation from redis: %w", err)
	}

	var view model.ConversationView
	if err := json.Unmarshal(value, &view); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}

	return &view, true, nil
}

func (r *conversationCacheRepository) Set(ctx context.Context, view *model.ConversationView) error {
	if view == nil || view.ID == "" {
		return fmt.Errorf("conversationID cannot be empty")
	}

	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	key := r.viewKey(view.ID, view.Thread.Version)
	if err := r.rdb.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save conversation to redis: %w", err)
	}

	return nil
}
