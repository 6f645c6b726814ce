package mysql

import (
	"context"

	"Forum_Hub/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{DB: DB}
}

func (r *OutboxRepository) Insert(ctx context.Context, ob *model.ForumOutbox) error {
	return r.DB.WithContext(ctx).Create(ob).Error
}

func (r *OutboxRepository) ListPending(ctx context.Context, batchSize int) ([]model.ForumOutbox, error) {
	var list []model.ForumOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = 0").
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.ForumOutbox{}).Where("id = ?", id).
		Update("status", 1).Error
}

// MarkFailed 标记失败并累加重试次数
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.ForumOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": 2, "retry": gorm.Expr("retry + 1")}).Error
}
