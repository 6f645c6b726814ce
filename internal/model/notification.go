package model

import "time"

// 通知类型：评论帖子 / 回复评论 / 回复回复
const (
	NotificationCommentOnPost  = "commentOnPost"
	NotificationReplyToComment = "replyToComment"
	NotificationReplyToReply   = "replyToReply"
)

type Notification struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	RecipientID string    `gorm:"size:36;not null;index:idx_notifications_recipient" json:"recipientId"`
	SenderID    string    `gorm:"size:36;not null" json:"senderId"`
	Type        string    `gorm:"size:20;not null" json:"type"`
	PostID      string    `gorm:"size:36;not null" json:"postId"`
	CommentID   *string   `gorm:"size:36" json:"commentId,omitempty"`
	ReplyID     *string   `gorm:"size:36" json:"replyId,omitempty"`
	// ParentReplyID 仅回复回复时填写
	ParentReplyID *string   `gorm:"size:36" json:"parentReplyId,omitempty"`
	Read          bool      `gorm:"not null;default:false;index:idx_notifications_recipient" json:"read"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
