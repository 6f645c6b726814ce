package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"Forum_Hub/internal/model"
	"Forum_Hub/internal/pkg"
	"Forum_Hub/internal/repository"
)

type ForumService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	replies  repository.ReplyRepository
	users    repository.UserRepository
	outbox   repository.OutboxRepository
	logger   *slog.Logger
}

func NewForumService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	replies repository.ReplyRepository,
	users repository.UserRepository,
	outbox repository.OutboxRepository,
	logger *slog.Logger,
) *ForumService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForumService{
		posts:    posts,
		comments: comments,
		replies:  replies,
		users:    users,
		outbox:   outbox,
		logger:   logger,
	}
}

type ListPostsQuery struct {
	Page          int
	Limit         int
	Oldest        bool
	IncludePinned bool
	AuthorID      string
	Search        string
}

// CreatedReply 新建回复及通知推导所需的上下文
type CreatedReply struct {
	Reply       *model.Reply
	View        ReplyView
	RecipientID string
	ParentReply *model.Reply // 回复回复时为父回复
}

func (s *ForumService) CreatePost(ctx context.Context, authorID, title, text string, attachments []string, pinned, isAdmin bool) (*model.Post, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(text) == "" {
		return nil, pkg.Validationf("title and text are required")
	}
	if len(attachments) > model.MaxAttachments {
		return nil, pkg.Validationf("too many attachments, maximum %d allowed", model.MaxAttachments)
	}
	if pinned && !isAdmin {
		return nil, pkg.Authorizationf("only admins can pin posts")
	}

	now := time.Now()
	post := &model.Post{
		ID:          pkg.NewID(),
		AuthorID:    authorID,
		Title:       title,
		Text:        text,
		Attachments: attachments,
		Pinned:      pinned,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, pkg.Internalf("create post failed")
	}

	s.emitEvent(ctx, model.EventPostCreated, authorID, post.ID, map[string]any{"title": post.Title})
	return post, nil
}

// UpdatePost 整体替换可编辑字段（非合并），附件列表以本次提交为准
func (s *ForumService) UpdatePost(ctx context.Context, postID, actorID, title, text string, attachments []string, pinned, isAdmin bool) (*model.Post, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, notFoundOrInternal(err, "forum post not found")
	}
	if post.AuthorID != actorID && !isAdmin {
		return nil, pkg.Authorizationf("you can only edit your own posts")
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(text) == "" {
		return nil, pkg.Validationf("title and text are required")
	}
	if len(attachments) > model.MaxAttachments {
		return nil, pkg.Validationf("too many attachments, maximum %d allowed", model.MaxAttachments)
	}
	if pinned && !isAdmin {
		return nil, pkg.Authorizationf("only admins can pin posts")
	}

	post.Title = title
	post.Text = text
	post.Attachments = attachments
	post.Pinned = pinned
	post.UpdatedAt = time.Now()
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, pkg.Internalf("update post failed")
	}
	return post, nil
}

// DeletePost 级联删除：回复 → 评论 → 帖子。逐条删除而非单个事务，
// 中途失败可能留下孤儿记录，孤儿从帖子侧不可达，按不可见处理
func (s *ForumService) DeletePost(ctx context.Context, postID, actorID string, isAdmin bool) error {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return notFoundOrInternal(err, "forum post not found")
	}
	if post.AuthorID != actorID && !isAdmin {
		return pkg.Authorizationf("you don't have permission to delete this post")
	}

	comments, err := s.comments.ListByPostIDs(ctx, []string{postID})
	if err != nil {
		return pkg.Internalf("delete post failed")
	}
	commentIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		commentIDs = append(commentIDs, c.ID)
	}

	if err := s.replies.DeleteByCommentIDs(ctx, commentIDs); err != nil {
		return pkg.Internalf("delete post failed")
	}
	if err := s.comments.DeleteByPostID(ctx, postID); err != nil {
		return pkg.Internalf("delete post failed")
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return pkg.Internalf("delete post failed")
	}

	s.emitEvent(ctx, model.EventPostDeleted, actorID, postID, map[string]any{"comments": len(commentIDs)})
	return nil
}

func (s *ForumService) ListPosts(ctx context.Context, q ListPostsQuery) ([]PostView, PageMeta, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 || q.Limit > 50 {
		q.Limit = 10
	}
	if q.AuthorID != "" && !pkg.ValidID(q.AuthorID) {
		return nil, PageMeta{}, pkg.Validationf("invalid authorId format")
	}

	posts, total, err := s.posts.List(ctx, repository.PostFilter{
		AuthorID:      q.AuthorID,
		Search:        q.Search,
		IncludePinned: q.IncludePinned,
		Oldest:        q.Oldest,
		Offset:        (q.Page - 1) * q.Limit,
		Limit:         q.Limit,
	})
	if err != nil {
		return nil, PageMeta{}, pkg.Internalf("list posts failed")
	}

	views, err := s.buildPostViews(ctx, posts, true)
	if err != nil {
		return nil, PageMeta{}, pkg.Internalf("list posts failed")
	}

	meta := PageMeta{
		CurrentPage:  q.Page,
		TotalPages:   int(math.Ceil(float64(total) / float64(q.Limit))),
		TotalPosts:   total,
		PostsPerPage: q.Limit,
	}
	return views, meta, nil
}

func (s *ForumService) GetPost(ctx context.Context, id string) (*PostView, error) {
	// 格式非法的 id 与不存在不作区分
	if !pkg.ValidID(id) {
		return nil, pkg.NotFoundf("post not found")
	}
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "post not found")
	}
	views, err := s.buildPostViews(ctx, []model.Post{*post}, false)
	if err != nil {
		return nil, pkg.Internalf("get post failed")
	}
	return &views[0], nil
}

// AddComment 返回新评论和所属帖子（通知侧需要帖子作者）
func (s *ForumService) AddComment(ctx context.Context, postID, authorID, text string) (*model.Comment, *model.Post, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, nil, notFoundOrInternal(err, "post not found")
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil, pkg.Validationf("comment text is required")
	}

	comment := &model.Comment{
		ID:        pkg.NewID(),
		PostID:    post.ID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, nil, pkg.Internalf("create comment failed")
	}

	s.emitEvent(ctx, model.EventCommentAdded, authorID, post.ID, map[string]any{"commentId": comment.ID})
	return comment, post, nil
}

func (s *ForumService) EditComment(ctx context.Context, postID, commentID, actorID, text string) (*model.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, pkg.Validationf("comment text is required")
	}
	comment, err := s.comments.FindInPost(ctx, commentID, postID)
	if err != nil {
		return nil, notFoundOrInternal(err, "comment not found")
	}
	// 评论只允许作者本人编辑，管理员也不行
	if comment.AuthorID != actorID {
		return nil, pkg.Authorizationf("you can only edit your own comments")
	}

	comment.Text = text
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, pkg.Internalf("update comment failed")
	}
	return comment, nil
}

// DeleteComment 级联删除评论下全部回复
func (s *ForumService) DeleteComment(ctx context.Context, postID, commentID, actorID string, isAdmin bool) error {
	comment, err := s.comments.FindInPost(ctx, commentID, postID)
	if err != nil {
		return notFoundOrInternal(err, "comment not found")
	}
	if comment.AuthorID != actorID && !isAdmin {
		return pkg.Authorizationf("you can only delete your own comments")
	}

	if err := s.replies.DeleteByCommentIDs(ctx, []string{commentID}); err != nil {
		return pkg.Internalf("delete comment failed")
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return pkg.Internalf("delete comment failed")
	}
	return nil
}

func (s *ForumService) AddReply(ctx context.Context, postID, commentID, authorID, text, parentReplyID string) (*CreatedReply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, pkg.Validationf("reply text is required")
	}
	if !pkg.ValidID(postID) || !pkg.ValidID(commentID) || (parentReplyID != "" && !pkg.ValidID(parentReplyID)) {
		return nil, pkg.Validationf("invalid id format")
	}

	comment, err := s.comments.FindInPost(ctx, commentID, postID)
	if err != nil {
		return nil, notFoundOrInternal(err, "comment not found or does not belong to this post")
	}

	// 回复回复时父回复必须在同一评论/帖子下
	var parent *model.Reply
	if parentReplyID != "" {
		parent, err = s.replies.FindInComment(ctx, parentReplyID, commentID, postID)
		if err != nil {
			return nil, notFoundOrInternal(err, "parent reply not found or does not belong to this comment")
		}
	}

	now := time.Now()
	reply := &model.Reply{
		ID:        pkg.NewID(),
		PostID:    postID,
		CommentID: commentID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if parent != nil {
		reply.ParentID = &parent.ID
	}
	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, pkg.Internalf("create reply failed")
	}

	recipientID := comment.AuthorID
	if parent != nil {
		recipientID = parent.AuthorID
	}

	view, err := s.populateReply(ctx, reply, parent)
	if err != nil {
		return nil, pkg.Internalf("create reply failed")
	}

	s.emitEvent(ctx, model.EventReplyAdded, authorID, postID, map[string]any{"commentId": commentID, "replyId": reply.ID})
	return &CreatedReply{Reply: reply, View: view, RecipientID: recipientID, ParentReply: parent}, nil
}

func (s *ForumService) EditReply(ctx context.Context, postID, commentID, replyID, actorID, text string) (*ReplyView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, pkg.Validationf("reply text is required")
	}
	if !pkg.ValidID(postID) || !pkg.ValidID(commentID) || !pkg.ValidID(replyID) {
		return nil, pkg.Validationf("invalid id format")
	}

	// 按作者过滤查询：非作者与不存在统一回 404，不暴露回复是否存在
	reply, err := s.replies.FindOwned(ctx, replyID, commentID, postID, actorID)
	if err != nil {
		return nil, notFoundOrInternal(err, "reply not found or you are not authorized to edit it")
	}

	reply.Text = text
	reply.UpdatedAt = time.Now()
	if err := s.replies.Update(ctx, reply); err != nil {
		return nil, pkg.Internalf("update reply failed")
	}

	var parent *model.Reply
	if reply.ParentID != nil {
		if p, ferr := s.replies.FindByID(ctx, *reply.ParentID); ferr == nil {
			parent = p
		}
	}
	view, err := s.populateReply(ctx, reply, parent)
	if err != nil {
		return nil, pkg.Internalf("update reply failed")
	}
	return &view, nil
}

// DeleteReply 不级联孙级回复；指向被删回复的引用读侧按缺失处理
func (s *ForumService) DeleteReply(ctx context.Context, postID, commentID, replyID, actorID string, isAdmin bool) error {
	if !pkg.ValidID(postID) || !pkg.ValidID(commentID) || !pkg.ValidID(replyID) {
		return pkg.Validationf("invalid id format")
	}

	var err error
	if isAdmin {
		_, err = s.replies.FindInComment(ctx, replyID, commentID, postID)
	} else {
		_, err = s.replies.FindOwned(ctx, replyID, commentID, postID, actorID)
	}
	if err != nil {
		return notFoundOrInternal(err, "reply not found or you are not authorized to delete it")
	}

	if err := s.replies.Delete(ctx, replyID); err != nil {
		return pkg.Internalf("delete reply failed")
	}
	return nil
}

func (s *ForumService) populateReply(ctx context.Context, reply *model.Reply, parent *model.Reply) (ReplyView, error) {
	ids := []string{reply.AuthorID}
	if parent != nil && parent.AuthorID != reply.AuthorID {
		ids = append(ids, parent.AuthorID)
	}
	list, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return ReplyView{}, err
	}
	users := make(map[string]model.User, len(list))
	for _, u := range list {
		users[u.ID] = u
	}
	return replyView(*reply, parent, users), nil
}

// emitEvent 写活动事件到 outbox，由 relayer 异步投递。失败只打日志
func (s *ForumService) emitEvent(ctx context.Context, eventType, actorID, postID string, extra map[string]any) {
	if s.outbox == nil {
		return
	}
	body := map[string]any{
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"actor":      actorID,
		"post":       postID,
	}
	for k, v := range extra {
		body[k] = v
	}
	payload, _ := json.Marshal(body)
	ob := &model.ForumOutbox{
		EventType: eventType,
		ActorID:   actorID,
		PostID:    postID,
		Payload:   string(payload),
	}
	if err := s.outbox.Insert(ctx, ob); err != nil {
		s.logger.Error("outbox insert failed", "event", eventType, "err", err)
	}
}

func notFoundOrInternal(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return pkg.NotFoundf("%s", msg)
	}
	return pkg.Internalf("storage error")
}
