package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/author"
	"library-backend/internal/shared/validation"
	"library-backend/pkg/logger"
)

type authorService struct {
	repo author.Repository
	now  func() time.Time
}

func NewAuthorService(repo author.Repository) author.Service {
	return &authorService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *authorService) Create(ctx context.Context, req *author.CreateAuthorRequest) (*author.Author, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, req.ToEntity(s.now().UTC()))
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("author_id", created.ID.String()).
		Str("name", created.Name).
		Msg("author created")
	return created, nil
}

func (s *authorService) GetByID(ctx context.Context, id uuid.UUID) (*author.Author, error) {
	if id == uuid.Nil {
		return nil, author.ErrAuthorNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *authorService) GetWithBookCount(ctx context.Context, id uuid.UUID) (*author.Author, int, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.repo.GetBookCount(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	return a, count, nil
}

func (s *authorService) List(ctx context.Context, filter author.AuthorFilter) ([]author.Author, int64, error) {
	if err := filter.Normalize(); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter)
}

func (s *authorService) Update(ctx context.Context, id uuid.UUID, req *author.UpdateAuthorRequest) (*author.Author, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Version != req.Version {
		return nil, author.ErrVersionMismatch
	}

	changed := *current
	req.ApplyToEntity(&changed)

	updated, err := s.repo.Update(ctx, &changed, req.Version)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("author_id", id.String()).
		Int("version", updated.Version).
		Msg("author updated")
	return updated, nil
}

// Delete is refused while any book links to the author, borrowed or not.
func (s *authorService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.GetBookCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return author.ErrAuthorHasBooks
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.FromContext(ctx).Info().Str("author_id", id.String()).Msg("author deleted")
	return nil
}
