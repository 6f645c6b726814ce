package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MaxAttachments 单帖附件上限
const MaxAttachments = 10

// StringList JSON 列存储的字符串数组（附件路径列表）
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = StringList{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported attachments column type %T", src)
	}
}

type Post struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	AuthorID    string     `gorm:"size:36;not null;index:idx_posts_author" json:"authorId"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Text        string     `gorm:"type:text;not null" json:"text"`
	Attachments StringList `gorm:"type:json" json:"attachments"`
	Pinned      bool       `gorm:"not null;default:false;index" json:"pinned"`
	CreatedAt   time.Time  `gorm:"index:idx_posts_created" json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;not null;index:idx_comments_post" json:"postId"`
	AuthorID  string    `gorm:"size:36;not null;index" json:"authorId"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Reply struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;not null;index" json:"postId"`
	CommentID string    `gorm:"size:36;not null;index:idx_replies_comment" json:"commentId"`
	AuthorID  string    `gorm:"size:36;not null;index" json:"authorId"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	// ParentID 指向同一评论下的父回复；被回复的回复删除后成为悬挂引用，读侧按缺失处理
	ParentID  *string   `gorm:"size:36;index" json:"replyId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
