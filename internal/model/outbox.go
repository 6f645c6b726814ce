package model

import "time"

// 讨论区活动事件类型（投递给外部 staff 消费方）
const (
	EventPostCreated  = "post_created"
	EventPostDeleted  = "post_deleted"
	EventCommentAdded = "comment_added"
	EventReplyAdded   = "reply_added"
)

// ForumOutbox 讨论区活动事件监控表
type ForumOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:16;not null"`
	ActorID   string `gorm:"size:36;not null"`
	PostID    string `gorm:"size:36;not null"`
	Payload   string `gorm:"type:json;not null"`
	Status    int8   `gorm:"not null;default:0;comment:'0=pending,1=sent,2=failed'"`
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ForumOutbox) TableName() string { return "forum_outbox" }
