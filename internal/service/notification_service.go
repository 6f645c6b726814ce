package service

import (
	"context"
	"log/slog"
	"time"

	"Forum_Hub/internal/model"
	"Forum_Hub/internal/pkg"
	"Forum_Hub/internal/repository"
)

// unknownBody 关联内容已不可达时的占位文案
const unknownBody = "Unknown content"

// CountPusher 未读数推送端（realtime hub 实现）。推送为尽力而为，
// 失败由实现方自行记录，不向调用方传播
type CountPusher interface {
	PushCount(userID string, count int64)
}

type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	comments      repository.CommentRepository
	replies       repository.ReplyRepository
	pusher        CountPusher
	logger        *slog.Logger
}

func NewNotificationService(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	comments repository.CommentRepository,
	replies repository.ReplyRepository,
	pusher CountPusher,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		notifications: notifications,
		users:         users,
		comments:      comments,
		replies:       replies,
		pusher:        pusher,
		logger:        logger,
	}
}

type NotificationView struct {
	ID            string        `json:"id"`
	Type          string        `json:"type"`
	PostID        string        `json:"postId"`
	CommentID     *string       `json:"commentId,omitempty"`
	ReplyID       *string       `json:"replyId,omitempty"`
	ParentReplyID *string       `json:"parentReplyId,omitempty"`
	Read          bool          `json:"read"`
	Sender        AuthorSummary `json:"sender"`
	BodyText      string        `json:"bodyText"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// NotifyOnComment 评论人不是帖子作者时给作者发通知并推送新未读数。
// 自己评论自己的帖子不产生通知
func (s *NotificationService) NotifyOnComment(ctx context.Context, post *model.Post, comment *model.Comment) error {
	if comment.AuthorID == post.AuthorID {
		return nil
	}

	now := time.Now()
	n := &model.Notification{
		ID:          pkg.NewID(),
		RecipientID: post.AuthorID,
		SenderID:    comment.AuthorID,
		Type:        model.NotificationCommentOnPost,
		PostID:      post.ID,
		CommentID:   &comment.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return pkg.Internalf("create notification failed")
	}

	s.pushCount(ctx, post.AuthorID)
	return nil
}

// NotifyOnReply recipientID 为被回复内容的作者：回复评论时是评论作者，
// 回复回复时是父回复作者。parentReplyID 仅回复回复时传入
func (s *NotificationService) NotifyOnReply(ctx context.Context, recipientID string, reply *model.Reply, parentReplyID *string) error {
	if reply.AuthorID == recipientID {
		return nil
	}

	typ := model.NotificationReplyToComment
	if parentReplyID != nil {
		typ = model.NotificationReplyToReply
	}

	now := time.Now()
	n := &model.Notification{
		ID:            pkg.NewID(),
		RecipientID:   recipientID,
		SenderID:      reply.AuthorID,
		Type:          typ,
		PostID:        reply.PostID,
		CommentID:     &reply.CommentID,
		ReplyID:       &reply.ID,
		ParentReplyID: parentReplyID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return pkg.Internalf("create notification failed")
	}

	s.pushCount(ctx, recipientID)
	return nil
}

// List 按创建时间倒序，连带发送者摘要和触发内容正文
func (s *NotificationService) List(ctx context.Context, recipientID string) ([]NotificationView, error) {
	list, err := s.notifications.ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, pkg.Internalf("list notifications failed")
	}

	senderIDs := make([]string, 0, len(list))
	seen := make(map[string]bool)
	for _, n := range list {
		if !seen[n.SenderID] {
			seen[n.SenderID] = true
			senderIDs = append(senderIDs, n.SenderID)
		}
	}
	senderList, err := s.users.FindByIDs(ctx, senderIDs)
	if err != nil {
		return nil, pkg.Internalf("list notifications failed")
	}
	senders := make(map[string]model.User, len(senderList))
	for _, u := range senderList {
		senders[u.ID] = u
	}

	views := make([]NotificationView, 0, len(list))
	for _, n := range list {
		views = append(views, NotificationView{
			ID:            n.ID,
			Type:          n.Type,
			PostID:        n.PostID,
			CommentID:     n.CommentID,
			ReplyID:       n.ReplyID,
			ParentReplyID: n.ParentReplyID,
			Read:          n.Read,
			Sender:        authorSummary(senders, n.SenderID),
			BodyText:      s.resolveBody(ctx, n),
			CreatedAt:     n.CreatedAt,
			UpdatedAt:     n.UpdatedAt,
		})
	}
	return views, nil
}

// MarkRead 重复调用幂等，返回标记后的未读数
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID string) (int64, error) {
	if !pkg.ValidID(id) {
		return 0, pkg.NotFoundf("notification not found")
	}
	if _, err := s.notifications.FindForRecipient(ctx, id, recipientID); err != nil {
		return 0, notFoundOrInternal(err, "notification not found")
	}
	if err := s.notifications.MarkRead(ctx, id); err != nil {
		return 0, pkg.Internalf("mark notification read failed")
	}

	count, err := s.notifications.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, pkg.Internalf("count notifications failed")
	}
	if s.pusher != nil {
		s.pusher.PushCount(recipientID, count)
	}
	return count, nil
}

// UnreadCount 每次现算，不维护增量计数，避免漂移
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	count, err := s.notifications.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, pkg.Internalf("count notifications failed")
	}
	return count, nil
}

func (s *NotificationService) resolveBody(ctx context.Context, n model.Notification) string {
	switch n.Type {
	case model.NotificationCommentOnPost:
		if n.CommentID != nil {
			if c, err := s.comments.FindInPost(ctx, *n.CommentID, n.PostID); err == nil {
				return c.Text
			}
		}
	case model.NotificationReplyToComment, model.NotificationReplyToReply:
		if n.ReplyID != nil {
			if r, err := s.replies.FindByID(ctx, *n.ReplyID); err == nil {
				return r.Text
			}
		}
	}
	return unknownBody
}

// pushCount 推送失败不影响触发它的请求
func (s *NotificationService) pushCount(ctx context.Context, recipientID string) {
	if s.pusher == nil {
		return
	}
	count, err := s.notifications.CountUnread(ctx, recipientID)
	if err != nil {
		s.logger.Error("unread count failed", "recipient", recipientID, "err", err)
		return
	}
	s.pusher.PushCount(recipientID, count)
}
