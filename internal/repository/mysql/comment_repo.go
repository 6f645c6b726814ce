package mysql

import (
	"context"
	"errors"

	"Forum_Hub/internal/model"
	"Forum_Hub/internal/repository"

	"gorm.io/gorm"
)

type CommentRepository struct {
	DB *gorm.DB
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{DB: DB}
}

func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return r.DB.WithContext(ctx).Create(comment).Error
}

func (r *CommentRepository) FindInPost(ctx context.Context, id, postID string) (*model.Comment, error) {
	var comment model.Comment
	err := r.DB.WithContext(ctx).First(&comment, "id = ? AND post_id = ?", id, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	return &comment, err
}

func (r *CommentRepository) Update(ctx context.Context, comment *model.Comment) error {
	return r.DB.WithContext(ctx).Save(comment).Error
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Delete(&model.Comment{}, "id = ?", id).Error
}

func (r *CommentRepository) ListByPostIDs(ctx context.Context, postIDs []string) ([]model.Comment, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var list []model.Comment
	err := r.DB.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *CommentRepository) DeleteByPostID(ctx context.Context, postID string) error {
	return r.DB.WithContext(ctx).Delete(&model.Comment{}, "post_id = ?", postID).Error
}
