package service

import (
	"context"
	"log/slog"
	"testing"

	"Forum_Hub/internal/model"
	"Forum_Hub/internal/pkg"
	"Forum_Hub/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPusher struct {
	calls []pushedCount
}

type pushedCount struct {
	UserID string
	Count  int64
}

func (p *recordingPusher) PushCount(userID string, count int64) {
	p.calls = append(p.calls, pushedCount{UserID: userID, Count: count})
}

func newNotificationFixture(t *testing.T) (*NotificationService, *ForumService, *memory.Store, *recordingPusher) {
	t.Helper()
	store := memory.New()
	pusher := &recordingPusher{}
	forum := NewForumService(store.Posts(), store.Comments(), store.Replies(), store.Users(), store.Outbox(), slog.Default())
	svc := NewNotificationService(store.Notifications(), store.Users(), store.Comments(), store.Replies(), pusher, slog.Default())
	return svc, forum, store, pusher
}

func TestNotifyOnComment_CreatesNotificationAndPushes(t *testing.T) {
	svc, forum, store, pusher := newNotificationFixture(t)
	ctx := context.Background()
	author := seedUser(t, store, "alice", false)
	commenter := seedUser(t, store, "bob", false)

	post, err := forum.CreatePost(ctx, author.ID, "title", "body", nil, false, false)
	require.NoError(t, err)
	comment, post, err := forum.AddComment(ctx, post.ID, commenter.ID, "nice post")
	require.NoError(t, err)

	require.NoError(t, svc.NotifyOnComment(ctx, post, comment))

	views, err := svc.List(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, model.NotificationCommentOnPost, views[0].Type)
	assert.Equal(t, "bob", views[0].Sender.Username)
	assert.Equal(t, "nice post", views[0].BodyText)
	assert.False(t, views[0].Read)

	require.Len(t, pusher.calls, 1)
	assert.Equal(t, author.ID, pusher.calls[0].UserID)
	assert.Equal(t, int64(1), pusher.calls[0].Count)
}

func TestNotifyOnComment_SelfCommentSuppressed(t *testing.T) {
	svc, forum, store, pusher := newNotificationFixture(t)
	ctx := context.Background()
	author := seedUser(t, store, "alice", false)

	post, err := forum.CreatePost(ctx, author.ID, "title", "body", nil, false, false)
	require.NoError(t, err)
	comment, post, err := forum.AddComment(ctx, post.ID, author.ID, "note to self")
	require.NoError(t, err)

	require.NoError(t, svc.NotifyOnComment(ctx, post, comment))

	count, err := svc.UnreadCount(ctx, author.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, pusher.calls)
}

func TestNotifyOnReply_TypeAndRecipient(t *testing.T) {
	svc, forum, store, _ := newNotificationFixture(t)
	ctx := context.Background()
	author := seedUser(t, store, "alice", false)
	commenter := seedUser(t, store, "bob", false)
	replier := seedUser(t, store, "carol", false)

	post, err := forum.CreatePost(ctx, author.ID, "title", "body", nil, false, false)
	require.NoError(t, err)
	comment, _, err := forum.AddComment(ctx, post.ID, commenter.ID, "hi")
	require.NoError(t, err)

	// 回复评论
	direct, err := forum.AddReply(ctx, post.ID, comment.ID, replier.ID, "reply to comment", "")
	require.NoError(t, err)
	require.NoError(t, svc.NotifyOnReply(ctx, direct.RecipientID, direct.Reply, nil))

	views, err := svc.List(ctx, commenter.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, model.NotificationReplyToComment, views[0].Type)
	assert.Nil(t, views[0].ParentReplyID)
	assert.Equal(t, "reply to comment", views[0].BodyText)

	// 回复回复
	nested, err := forum.AddReply(ctx, post.ID, comment.ID, author.ID, "reply to reply", direct.Reply.ID)
	require.NoError(t, err)
	require.NoError(t, svc.NotifyOnReply(ctx, nested.RecipientID, nested.Reply, &nested.ParentReply.ID))

	views, err = svc.List(ctx, replier.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, model.NotificationReplyToReply, views[0].Type)
	require.NotNil(t, views[0].ParentReplyID)
	assert.Equal(t, direct.Reply.ID, *views[0].ParentReplyID)
}

func TestNotifyOnReply_SelfReplySuppressed(t *testing.T) {
	svc, forum, store, pusher := newNotificationFixture(t)
	ctx := context.Background()
	author := seedUser(t, store, "alice", false)

	post, err := forum.CreatePost(ctx, author.ID, "title", "body", nil, false, false)
	require.NoError(t, err)
	comment, _, err := forum.AddComment(ctx, post.ID, author.ID, "hi")
	require.NoError(t, err)
	created, err := forum.AddReply(ctx, post.ID, comment.ID, author.ID, "me again", "")
	require.NoError(t, err)

	require.NoError(t, svc.NotifyOnReply(ctx, created.RecipientID, created.Reply, nil))

	count, err := svc.UnreadCount(ctx, author.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, pusher.calls)
}

func TestMarkRead_IdempotentAndScoped(t *testing.T) {
	svc, forum, store, pusher := newNotificationFixture(t)
	ctx := context.Background()
	author := seedUser(t, store, "alice", false)
	commenter := seedUser(t, store, "bob", false)

	post, err := forum.CreatePost(ctx, author.ID, "title", "body", nil, false, false)
	require.NoError(t, err)
	c1, post, err := forum.AddComment(ctx, post.ID, commenter.ID, "one")
	require.NoError(t, err)
	require.NoError(t, svc.NotifyOnComment(ctx, post, c1))
	c2, post, err := forum.AddComment(ctx, post.ID, commenter.ID, "two")
	require.NoError(t, err)
	require.NoError(t, svc.NotifyOnComment(ctx, post, c2))

	views, err := svc.List(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)

	count, err := svc.MarkRead(ctx, views[0].ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// 重复标记不报错，计数不变
	count, err = svc.MarkRead(ctx, views[0].ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// 别人的通知按不存在处理
	_, err = svc.MarkRead(ctx, views[1].ID, commenter.ID)
	assert.True(t, pkg.IsKind(err, pkg.KindNotFound))

	// 畸形 id 同样按不存在处理
	_, err = svc.MarkRead(ctx, "garbage", author.ID)
	assert.True(t, pkg.IsKind(err, pkg.KindNotFound))

	// 每次标记都推送最新未读数
	assert.NotEmpty(t, pusher.calls)
	assert.Equal(t, author.ID, pusher.calls[len(pusher.calls)-1].UserID)
}

func TestList_DeletedContentFallsBackToSentinel(t *testing.T) {
	svc, forum, store, _ := newNotificationFixture(t)
	ctx := context.Background()
	author := seedUser(t, store, "alice", false)
	commenter := seedUser(t, store, "bob", false)

	post, err := forum.CreatePost(ctx, author.ID, "title", "body", nil, false, false)
	require.NoError(t, err)
	comment, post, err := forum.AddComment(ctx, post.ID, commenter.ID, "soon gone")
	require.NoError(t, err)
	require.NoError(t, svc.NotifyOnComment(ctx, post, comment))

	// 通知还在，评论已删
	require.NoError(t, forum.DeleteComment(ctx, post.ID, comment.ID, commenter.ID, false))

	views, err := svc.List(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Unknown content", views[0].BodyText)
}
