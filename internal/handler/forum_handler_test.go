package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"Forum_Hub/internal/handler"
	"Forum_Hub/internal/middleware"
	"Forum_Hub/internal/model"
	"Forum_Hub/internal/pkg"
	"Forum_Hub/internal/repository/memory"
	"Forum_Hub/internal/router"
	"Forum_Hub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	engine *gin.Engine
	store  *memory.Store
	forum  *service.ForumService
	user   *model.User
	admin  *model.User
	pushed []string
}

type testPusher struct{ env *testEnv }

func (p *testPusher) PushCount(userID string, count int64) {
	p.env.pushed = append(p.env.pushed, fmt.Sprintf("%s=%d", userID, count))
}

// stubAuth 绕过 jwt+redis，直接注入当前用户
func stubAuth(env *testEnv) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, env.user.ID)
		c.Set(middleware.ContextAdminKey, env.user.Admin)
		c.Next()
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{store: memory.New()}
	ctx := context.Background()

	env.user = &model.User{ID: pkg.NewID(), Username: "alice", Email: "alice@example.com"}
	env.admin = &model.User{ID: pkg.NewID(), Username: "root", Email: "root@example.com", Admin: true}
	require.NoError(t, env.store.Users().Create(ctx, env.user))
	require.NoError(t, env.store.Users().Create(ctx, env.admin))

	logger := slog.Default()
	env.forum = service.NewForumService(env.store.Posts(), env.store.Comments(), env.store.Replies(), env.store.Users(), env.store.Outbox(), logger)
	notificationSvc := service.NewNotificationService(env.store.Notifications(), env.store.Users(), env.store.Comments(), env.store.Replies(), &testPusher{env: env}, logger)

	env.engine = router.InitRouter(router.Deps{
		Forum:         handler.NewForumHandler(env.forum, notificationSvc, nil, logger),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		User:          handler.NewUserHandler(nil),
		Email:         handler.NewEmailHandler(nil),
		Auth:          stubAuth(env),
		WS:            func(c *gin.Context) { c.Status(http.StatusOK) },
	})
	return env
}

func (env *testEnv) doJSON(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func (env *testEnv) seedPost(t *testing.T, authorID string) *model.Post {
	t.Helper()
	post, err := env.forum.CreatePost(context.Background(), authorID, "seeded", "body", nil, false, false)
	require.NoError(t, err)
	return post
}

func (env *testEnv) seedPinnedPost(t *testing.T) *model.Post {
	t.Helper()
	post, err := env.forum.CreatePost(context.Background(), env.admin.ID, "pinned rules", "body", nil, true, true)
	require.NoError(t, err)
	return post
}

type listResp struct {
	Posts        []struct {
		ID     string `json:"id"`
		Pinned bool   `json:"pinned"`
	} `json:"posts"`
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalPosts   int64 `json:"totalPosts"`
	PostsPerPage int   `json:"postsPerPage"`
}

func TestListPostsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedPost(t, env.user.ID)
	env.seedPost(t, env.user.ID)

	w := env.doJSON(t, http.MethodGet, "/api/forum?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp listResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Posts, 1)
	assert.Equal(t, 1, resp.CurrentPage)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, int64(2), resp.TotalPosts)
	assert.Equal(t, 1, resp.PostsPerPage)
}

func TestListPostsEndpoint_ExcludesPinnedByDefault(t *testing.T) {
	env := newTestEnv(t)
	regular := env.seedPost(t, env.user.ID)
	pinned := env.seedPinnedPost(t)

	// 不带参数：普通信息流不含置顶帖
	w := env.doJSON(t, http.MethodGet, "/api/forum", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp listResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.TotalPosts)
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, regular.ID, resp.Posts[0].ID)
	assert.False(t, resp.Posts[0].Pinned)

	// 显式 includePinned=true 才带上
	w = env.doJSON(t, http.MethodGet, "/api/forum?includePinned=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.TotalPosts)

	// 其它取值等同缺省
	w = env.doJSON(t, http.MethodGet, "/api/forum?includePinned=yes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.TotalPosts)

	// 置顶帖详情页不受影响
	w = env.doJSON(t, http.MethodGet, "/api/forum/"+pinned.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetPostEndpoint_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodGet, "/api/forum/"+pkg.NewID(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.doJSON(t, http.MethodGet, "/api/forum/garbage-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddCommentEndpoint_NotifiesPostAuthor(t *testing.T) {
	env := newTestEnv(t)
	post := env.seedPost(t, env.admin.ID) // 帖子作者不是发评论的人

	w := env.doJSON(t, http.MethodPost, "/api/forum/"+post.ID+"/comment", gin.H{"text": "hello"})
	require.Equal(t, http.StatusCreated, w.Code)

	var comment model.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comment))
	assert.Equal(t, env.user.ID, comment.AuthorID)

	// 应答后触发了未读数推送
	require.Len(t, env.pushed, 1)
	assert.Equal(t, env.admin.ID+"=1", env.pushed[0])
}

func TestAddCommentEndpoint_Validation(t *testing.T) {
	env := newTestEnv(t)
	post := env.seedPost(t, env.user.ID)

	w := env.doJSON(t, http.MethodPost, "/api/forum/"+post.ID+"/comment", gin.H{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkReadEndpoint_ReturnsUnreadCount(t *testing.T) {
	env := newTestEnv(t)
	post := env.seedPost(t, env.user.ID)

	// 管理员评论，alice 收通知
	ctx := context.Background()
	comment := &model.Comment{ID: pkg.NewID(), PostID: post.ID, AuthorID: env.admin.ID, Text: "hi", CreatedAt: post.CreatedAt}
	require.NoError(t, env.store.Comments().Create(ctx, comment))
	n := &model.Notification{
		ID:          pkg.NewID(),
		RecipientID: env.user.ID,
		SenderID:    env.admin.ID,
		Type:        model.NotificationCommentOnPost,
		PostID:      post.ID,
		CommentID:   &comment.ID,
	}
	require.NoError(t, env.store.Notifications().Create(ctx, n))

	w := env.doJSON(t, http.MethodPut, "/api/notifications/"+n.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.UnreadCount)

	// 再标记一次仍是 200
	w = env.doJSON(t, http.MethodPut, "/api/notifications/"+n.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNotificationListEndpoint(t *testing.T) {
	env := newTestEnv(t)
	post := env.seedPost(t, env.user.ID)

	w := env.doJSON(t, http.MethodPost, "/api/forum/"+post.ID+"/comment", gin.H{"text": "self comment"})
	require.Equal(t, http.StatusCreated, w.Code)

	// 自己评论自己的帖子不产生通知
	w = env.doJSON(t, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Notifications []json.RawMessage `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Notifications)

	w = env.doJSON(t, http.MethodGet, "/api/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestDeletePostEndpoint_ForbiddenForOthers(t *testing.T) {
	env := newTestEnv(t)
	post := env.seedPost(t, env.admin.ID)

	// stub 认证的是 alice，不是作者也不是管理员身份
	w := env.doJSON(t, http.MethodDelete, "/api/forum/"+post.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
