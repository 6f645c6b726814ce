// Package repository 定义各实体的仓储接口，mysql 与 memory 两套实现
package repository

import (
	"context"
	"errors"

	"Forum_Hub/internal/model"
)

// ErrNotFound 底层统一的未命中错误，service 层翻译为对外错误
var ErrNotFound = errors.New("record not found")

// PostFilter 帖子列表的过滤/排序/分页参数
type PostFilter struct {
	AuthorID      string
	Search        string // 标题/正文大小写不敏感子串匹配
	IncludePinned bool   // 默认列表排除置顶帖
	Oldest        bool   // true 按创建时间升序
	Offset        int
	Limit         int
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id string) (*model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) error
	// List 返回一页帖子和过滤后的总数
	List(ctx context.Context, f PostFilter) ([]model.Post, int64, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	// FindInPost 按 (id, postID) 查找，不属于该帖视为未命中
	FindInPost(ctx context.Context, id, postID string) (*model.Comment, error)
	Update(ctx context.Context, comment *model.Comment) error
	Delete(ctx context.Context, id string) error
	ListByPostIDs(ctx context.Context, postIDs []string) ([]model.Comment, error)
	DeleteByPostID(ctx context.Context, postID string) error
}

type ReplyRepository interface {
	Create(ctx context.Context, reply *model.Reply) error
	FindByID(ctx context.Context, id string) (*model.Reply, error)
	// FindInComment 按 (id, commentID, postID) 查找
	FindInComment(ctx context.Context, id, commentID, postID string) (*model.Reply, error)
	// FindOwned 额外按作者过滤；非作者查询按未命中处理（信息隐藏）
	FindOwned(ctx context.Context, id, commentID, postID, authorID string) (*model.Reply, error)
	Update(ctx context.Context, reply *model.Reply) error
	Delete(ctx context.Context, id string) error
	ListByCommentIDs(ctx context.Context, commentIDs []string) ([]model.Reply, error)
	DeleteByCommentIDs(ctx context.Context, commentIDs []string) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// FindForRecipient 按 (id, recipientID) 查找
	FindForRecipient(ctx context.Context, id, recipientID string) (*model.Notification, error)
	MarkRead(ctx context.Context, id string) error
	// ListByRecipient 按创建时间倒序
	ListByRecipient(ctx context.Context, recipientID string) ([]model.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
}

type OutboxRepository interface {
	Insert(ctx context.Context, ob *model.ForumOutbox) error
	ListPending(ctx context.Context, batchSize int) ([]model.ForumOutbox, error)
	MarkSent(ctx context.Context, id uint64) error
	MarkFailed(ctx context.Context, id uint64) error
}
