package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"Forum_Hub/internal/model"
	"Forum_Hub/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainOnce_SentAndFailed(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	ok := &model.ForumOutbox{EventType: model.EventPostCreated, ActorID: "u", PostID: "p1", Payload: "{}"}
	bad := &model.ForumOutbox{EventType: model.EventCommentAdded, ActorID: "u", PostID: "p2", Payload: "{}"}
	require.NoError(t, store.Outbox().Insert(ctx, ok))
	require.NoError(t, store.Outbox().Insert(ctx, bad))

	var sent []string
	sender := func(_ context.Context, ob *model.ForumOutbox) error {
		if ob.PostID == "p2" {
			return errors.New("broker down")
		}
		sent = append(sent, ob.PostID)
		return nil
	}

	r := NewOutboxRelayer(store.Outbox(), sender, slog.Default())
	r.drainOnce(ctx)

	assert.Equal(t, []string{"p1"}, sent)

	// 成功的和失败的都不再是 pending
	pending, err := store.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestForumService_EmitsOutboxEvents(t *testing.T) {
	forum, store := newForumService(t)
	ctx := context.Background()
	author := seedUser(t, store, "alice", false)
	other := seedUser(t, store, "bob", false)

	post, err := forum.CreatePost(ctx, author.ID, "title", "body", nil, false, false)
	require.NoError(t, err)
	comment, _, err := forum.AddComment(ctx, post.ID, other.ID, "hi")
	require.NoError(t, err)
	_, err = forum.AddReply(ctx, post.ID, comment.ID, author.ID, "hello", "")
	require.NoError(t, err)
	require.NoError(t, forum.DeletePost(ctx, post.ID, author.ID, false))

	pending, err := store.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 4)

	types := make([]string, 0, len(pending))
	for _, ob := range pending {
		types = append(types, ob.EventType)
		assert.Equal(t, post.ID, ob.PostID)
	}
	assert.Equal(t, []string{
		model.EventPostCreated,
		model.EventCommentAdded,
		model.EventReplyAdded,
		model.EventPostDeleted,
	}, types)
}
