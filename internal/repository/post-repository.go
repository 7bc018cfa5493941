package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/trailpost/trailpost/internal/apperr"
	"github.com/trailpost/trailpost/internal/domain"
)

type PostRepository interface {
	Create(post *domain.Post) (*domain.Post, error)
	Save(post *domain.Post) error
	FindByPublicID(publicID string) (*domain.Post, error)
	List(offset, limit int) ([]domain.Post, int64, error)
	ListByAuthor(authorID uint, offset, limit int) ([]domain.Post, int64, error)
	Delete(id uint) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(post *domain.Post) (*domain.Post, error) {
	if post == nil {
		return nil, errors.New("nil post")
	}

	if err := r.db.Create(post).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create post", err)
	}
	return post, nil
}

func (r *postRepository) Save(post *domain.Post) error {
	if post == nil {
		return errors.New("nil post")
	}

	if err := r.db.Save(post).Error; err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to save post", err)
	}
	return nil
}

func (r *postRepository) FindByPublicID(publicID string) (*domain.Post, error) {
	post := &domain.Post{}
	if err := r.db.First(post, "public_id = ?", publicID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("post not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to find post", err)
	}
	return post, nil
}

func (r *postRepository) List(offset, limit int) ([]domain.Post, int64, error) {
	var total int64
	if err := r.db.Model(&domain.Post{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to count posts", err)
	}

	var posts []domain.Post
	err := r.db.Order("id DESC").Offset(offset).Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to list posts", err)
	}
	return posts, total, nil
}

func (r *postRepository) ListByAuthor(authorID uint, offset, limit int) ([]domain.Post, int64, error) {
	var total int64
	if err := r.db.Model(&domain.Post{}).Where("author_id = ?", authorID).Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to count posts", err)
	}

	var posts []domain.Post
	err := r.db.Where("author_id = ?", authorID).
		Order("id DESC").Offset(offset).Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to list posts", err)
	}
	return posts, total, nil
}

func (r *postRepository) Delete(id uint) error {
	if err := r.db.Delete(&domain.Post{}, id).Error; err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete post", err)
	}
	return nil
}
