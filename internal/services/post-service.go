package services

import (
	"strings"

	"github.com/google/uuid"

	"github.com/trailpost/trailpost/internal/apperr"
	"github.com/trailpost/trailpost/internal/domain"
	"github.com/trailpost/trailpost/internal/dto"
	"github.com/trailpost/trailpost/internal/repository"
)

type PostService interface {
	Create(authorID uint, input dto.CreatePostRequest) (*domain.Post, error)
	Get(publicID string) (*domain.Post, error)
	List(page, limit int) ([]domain.Post, int64, error)
	ListByAuthor(authorID uint, page, limit int) ([]domain.Post, int64, error)
	Update(actorID uint, publicID string, input dto.UpdatePostRequest) (*domain.Post, error)
	Delete(actorID uint, actorRole, publicID string) error
}

type postService struct {
	repo  repository.PostRepository
	audit *AuditRecorder
}

func NewPostService(repo repository.PostRepository, audit *AuditRecorder) PostService {
	return &postService{repo: repo, audit: audit}
}

func (s *postService) Create(authorID uint, input dto.CreatePostRequest) (*domain.Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}

	post := &domain.Post{
		PublicID: uuid.NewString(),
		AuthorID: authorID,
		Title:    title,
		Body:     input.Body,
	}
	post, err := s.repo.Create(post)
	if err != nil {
		return nil, err
	}

	s.audit.Record("post.create", entityPost, post.ID, "")
	return post, nil
}

func (s *postService) Get(publicID string) (*domain.Post, error) {
	return s.repo.FindByPublicID(publicID)
}

func (s *postService) List(page, limit int) ([]domain.Post, int64, error) {
	offset, limit := pageToOffset(page, limit)
	return s.repo.List(offset, limit)
}

func (s *postService) ListByAuthor(authorID uint, page, limit int) ([]domain.Post, int64, error) {
	offset, limit := pageToOffset(page, limit)
	return s.repo.ListByAuthor(authorID, offset, limit)
}

func (s *postService) Update(actorID uint, publicID string, input dto.UpdatePostRequest) (*domain.Post, error) {
	post, err := s.repo.FindByPublicID(publicID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actorID {
		return nil, apperr.Forbidden("not the author of this post")
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperr.Validation("title cannot be empty")
		}
		post.Title = title
	}
	if input.Body != nil {
		post.Body = *input.Body
	}

	if err := s.repo.Save(post); err != nil {
		return nil, err
	}

	s.audit.Record("post.update", entityPost, post.ID, "")
	return post, nil
}

// Delete removes the actor's own post; admins may delete any post.
func (s *postService) Delete(actorID uint, actorRole, publicID string) error {
	post, err := s.repo.FindByPublicID(publicID)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID && actorRole != domain.RoleAdmin {
		return apperr.Forbidden("not the author of this post")
	}

	if err := s.repo.Delete(post.ID); err != nil {
		return err
	}

	s.audit.Record("post.delete", entityPost, post.ID, "")
	return nil
}

func pageToOffset(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return (page - 1) * limit, limit
}
