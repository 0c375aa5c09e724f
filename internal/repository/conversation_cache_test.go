package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sendit/messenger/internal/model"
	"sendit/messenger/internal/repository"
	"sendit/messenger/internal/testutil"
)

func TestConversationCache_VersionedKeys(t *testing.T) {
	ctx := context.Background()
	mr, rdb := testutil.NewRedis(t)
	cache := repository.NewConversationCacheRepository(rdb)

	view := &model.ConversationView{
		ID:           "conv-1",
		Participants: []model.ParticipantView{{ID: "u1", Username: "alice", Phone: "9876543210"}},
		Thread:       model.ThreadView{ID: "t1", Version: 3, MessageCount: 1},
	}
	require.NoError(t, cache.Set(ctx, view))
	assert.Equal(t, 10*time.Minute, mr.TTL("conversation:conv-1:v3"))

	got, found, err := cache.Get(ctx, "conv-1", 3)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "alice", got.Participants[0].Username)

	_, found, err = cache.Get(ctx, "conv-1", 4)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestConversationCache_Errors(t *testing.T) {
	ctx := context.Background()
	mr, rdb := testutil.NewRedis(t)
	cache := repository.NewConversationCacheRepository(rdb)

	assert.Error(t, cache.Set(ctx, &model.ConversationView{}))
	_, _, err := cache.Get(ctx, "", 1)
	assert.Error(t, err)

	require.NoError(t, mr.Set("conversation:conv-1:v1", "not json"))
	_, _, err = cache.Get(ctx, "conv-1", 1)
	assert.Error(t, err)
}
