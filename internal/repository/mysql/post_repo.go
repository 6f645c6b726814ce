package mysql

import (
	"context"
	"errors"
	"strings"

	"Forum_Hub/internal/model"
	"Forum_Hub/internal/repository"

	"gorm.io/gorm"
)

type PostRepository struct {
	DB *gorm.DB
}

func NewPostRepository() *PostRepository {
	return &PostRepository{DB: DB}
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Create(post).Error
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := r.DB.WithContext(ctx).First(&post, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	return &post, err
}

func (r *PostRepository) Update(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Save(post).Error
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Delete(&model.Post{}, "id = ?", id).Error
}

// List 过滤+计数+分页。同一创建时间用 id 作次序键
func (r *PostRepository) List(ctx context.Context, f repository.PostFilter) ([]model.Post, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Post{})

	if !f.IncludePinned {
		q = q.Where("pinned = ?", false)
	}
	if f.AuthorID != "" {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(text) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at DESC, id DESC"
	if f.Oldest {
		order = "created_at ASC, id ASC"
	}

	var list []model.Post
	err := q.Order(order).Offset(f.Offset).Limit(f.Limit).Find(&list).Error
	return list, total, err
}
