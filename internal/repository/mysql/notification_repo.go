package mysql

import (
	"context"
	"errors"
	"time"

	"Forum_Hub/internal/model"
	"Forum_Hub/internal/repository"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{DB: DB}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.DB.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) FindForRecipient(ctx context.Context, id, recipientID string) (*model.Notification, error) {
	var n model.Notification
	err := r.DB.WithContext(ctx).First(&n, "id = ? AND recipient_id = ?", id, recipientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	return &n, err
}

// MarkRead 重复标记不报错（幂等）
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{"read": true, "updated_at": time.Now()}).Error
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string) ([]model.Notification, error) {
	var list []model.Notification
	err := r.DB.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND `read` = ?", recipientID, false).
		Count(&n).Error
	return n, err
}
