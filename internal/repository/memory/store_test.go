package memory

import (
	"context"
	"testing"
	"time"

	"Forum_Hub/internal/model"
	"Forum_Hub/internal/pkg"
	"Forum_Hub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPost(t *testing.T, s *Store, title string, createdAt time.Time) *model.Post {
	t.Helper()
	p := &model.Post{
		ID:        pkg.NewID(),
		AuthorID:  "author",
		Title:     title,
		Text:      "body",
		CreatedAt: createdAt,
	}
	require.NoError(t, s.Posts().Create(context.Background(), p))
	return p
}

func TestPostList_TieBreakOnInsertionOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	// 同一时间戳，按插入序稳定排序
	at := time.Now()
	p1 := seedPost(t, s, "first", at)
	p2 := seedPost(t, s, "second", at)

	list, total, err := s.Posts().List(ctx, repository.PostFilter{IncludePinned: true, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, p2.ID, list[0].ID)
	assert.Equal(t, p1.ID, list[1].ID)
}

func TestPostList_FiltersAndOffset(t *testing.T) {
	s := New()
	ctx := context.Background()

	base := time.Now()
	seedPost(t, s, "go generics deep dive", base)
	seedPost(t, s, "cooking with gas", base.Add(time.Second))
	pinned := &model.Post{ID: pkg.NewID(), AuthorID: "mod", Title: "rules", Text: "be nice", Pinned: true, CreatedAt: base}
	require.NoError(t, s.Posts().Create(ctx, pinned))

	// 大小写不敏感搜索
	list, total, err := s.Posts().List(ctx, repository.PostFilter{Search: "GENERICS", IncludePinned: true, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "go generics deep dive", list[0].Title)

	// 默认排除置顶
	_, total, err = s.Posts().List(ctx, repository.PostFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// 偏移越界返回空页但保留总数
	list, total, err = s.Posts().List(ctx, repository.PostFilter{IncludePinned: true, Offset: 10, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Empty(t, list)
}

func TestFindInPost_ScopesByParent(t *testing.T) {
	s := New()
	ctx := context.Background()

	c := &model.Comment{ID: pkg.NewID(), PostID: "post-1", AuthorID: "u", Text: "hi", CreatedAt: time.Now()}
	require.NoError(t, s.Comments().Create(ctx, c))

	got, err := s.Comments().FindInPost(ctx, c.ID, "post-1")
	require.NoError(t, err)
	assert.Equal(t, c.Text, got.Text)

	_, err = s.Comments().FindInPost(ctx, c.ID, "post-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindOwned_RequiresAuthorMatch(t *testing.T) {
	s := New()
	ctx := context.Background()

	rep := &model.Reply{ID: pkg.NewID(), PostID: "p", CommentID: "c", AuthorID: "owner", Text: "mine", CreatedAt: time.Now()}
	require.NoError(t, s.Replies().Create(ctx, rep))

	_, err := s.Replies().FindOwned(ctx, rep.ID, "c", "p", "owner")
	require.NoError(t, err)

	_, err = s.Replies().FindOwned(ctx, rep.ID, "c", "p", "someone-else")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteByCommentIDs(t *testing.T) {
	s := New()
	ctx := context.Background()

	keep := &model.Reply{ID: pkg.NewID(), PostID: "p", CommentID: "c-keep", AuthorID: "u", Text: "stays", CreatedAt: time.Now()}
	gone := &model.Reply{ID: pkg.NewID(), PostID: "p", CommentID: "c-gone", AuthorID: "u", Text: "goes", CreatedAt: time.Now()}
	require.NoError(t, s.Replies().Create(ctx, keep))
	require.NoError(t, s.Replies().Create(ctx, gone))

	require.NoError(t, s.Replies().DeleteByCommentIDs(ctx, []string{"c-gone"}))

	_, err := s.Replies().FindByID(ctx, keep.ID)
	require.NoError(t, err)
	_, err = s.Replies().FindByID(ctx, gone.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestNotifications_MarkReadAndCount(t *testing.T) {
	s := New()
	ctx := context.Background()

	n := &model.Notification{ID: pkg.NewID(), RecipientID: "r", SenderID: "s", Type: model.NotificationCommentOnPost, PostID: "p", CreatedAt: time.Now()}
	require.NoError(t, s.Notifications().Create(ctx, n))

	count, err := s.Notifications().CountUnread(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, s.Notifications().MarkRead(ctx, n.ID))
	require.NoError(t, s.Notifications().MarkRead(ctx, n.ID)) // 幂等

	count, err = s.Notifications().CountUnread(ctx, "r")
	require.NoError(t, err)
	assert.Zero(t, count)

	// 收件人不匹配按不存在处理
	_, err = s.Notifications().FindForRecipient(ctx, n.ID, "other")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOutbox_StatusTransitions(t *testing.T) {
	s := New()
	ctx := context.Background()

	ob := &model.ForumOutbox{EventType: model.EventPostCreated, ActorID: "u", PostID: "p", Payload: "{}"}
	require.NoError(t, s.Outbox().Insert(ctx, ob))
	assert.NotZero(t, ob.ID)

	pending, err := s.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, s.Outbox().MarkSent(ctx, ob.ID))
	pending, err = s.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	ob2 := &model.ForumOutbox{EventType: model.EventPostDeleted, ActorID: "u", PostID: "p", Payload: "{}"}
	require.NoError(t, s.Outbox().Insert(ctx, ob2))
	require.NoError(t, s.Outbox().MarkFailed(ctx, ob2.ID))

	pending, err = s.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
