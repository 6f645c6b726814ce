package mysql

import (
	"context"
	"errors"

	"Forum_Hub/internal/model"
	"Forum_Hub/internal/repository"

	"gorm.io/gorm"
)

type ReplyRepository struct {
	DB *gorm.DB
}

func NewReplyRepository() *ReplyRepository {
	return &ReplyRepository{DB: DB}
}

func (r *ReplyRepository) Create(ctx context.Context, reply *model.Reply) error {
	return r.DB.WithContext(ctx).Create(reply).Error
}

func (r *ReplyRepository) FindByID(ctx context.Context, id string) (*model.Reply, error) {
	var reply model.Reply
	err := r.DB.WithContext(ctx).First(&reply, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	return &reply, err
}

func (r *ReplyRepository) FindInComment(ctx context.Context, id, commentID, postID string) (*model.Reply, error) {
	var reply model.Reply
	err := r.DB.WithContext(ctx).
		First(&reply, "id = ? AND comment_id = ? AND post_id = ?", id, commentID, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	return &reply, err
}

// FindOwned 查询条件里带上作者，非作者访问与不存在不可区分
func (r *ReplyRepository) FindOwned(ctx context.Context, id, commentID, postID, authorID string) (*model.Reply, error) {
	var reply model.Reply
	err := r.DB.WithContext(ctx).
		First(&reply, "id = ? AND comment_id = ? AND post_id = ? AND author_id = ?", id, commentID, postID, authorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	return &reply, err
}

func (r *ReplyRepository) Update(ctx context.Context, reply *model.Reply) error {
	return r.DB.WithContext(ctx).Save(reply).Error
}

func (r *ReplyRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Delete(&model.Reply{}, "id = ?", id).Error
}

func (r *ReplyRepository) ListByCommentIDs(ctx context.Context, commentIDs []string) ([]model.Reply, error) {
	if len(commentIDs) == 0 {
		return nil, nil
	}
	var list []model.Reply
	err := r.DB.WithContext(ctx).
		Where("comment_id IN ?", commentIDs).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *ReplyRepository) DeleteByCommentIDs(ctx context.Context, commentIDs []string) error {
	if len(commentIDs) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Delete(&model.Reply{}, "comment_id IN ?", commentIDs).Error
}
