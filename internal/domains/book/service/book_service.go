package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/book"
	"library-backend/internal/shared/validation"
	"library-backend/pkg/logger"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
)

type bookService struct {
	repo book.Repository
	now  func() time.Time
}

func NewBookService(repo book.Repository) book.Service {
	return &bookService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *bookService) Create(ctx context.Context, req *book.CreateBookRequest) (*book.Book, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	entity := req.ToEntity(s.now().UTC())
	exists, err := s.repo.ExistsByISBN(ctx, entity.ISBN, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, book.ErrISBNAlreadyExists
	}

	created, err := s.repo.Create(ctx, entity)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("book_id", created.ID.String()).
		Str("isbn", created.ISBN).
		Int("authors", len(created.AuthorIDs)).
		Msg("book created")
	return created, nil
}

func (s *bookService) GetByID(ctx context.Context, id uuid.UUID) (*book.Book, error) {
	if id == uuid.Nil {
		return nil, book.ErrBookNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *bookService) List(ctx context.Context, filter book.BookFilter) ([]book.Book, int64, error) {
	if err := filter.Normalize(); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter)
}

func (s *bookService) TopBorrowed(ctx context.Context, limit int) ([]book.Book, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}
	return s.repo.TopBorrowed(ctx, limit)
}

func (s *bookService) Update(ctx context.Context, id uuid.UUID, req *book.UpdateBookRequest) (*book.Book, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Version != req.Version {
		return nil, book.ErrVersionConflict
	}

	changed := current.Clone()
	req.ApplyTo(changed)

	if changed.ISBN != current.ISBN {
		exists, err := s.repo.ExistsByISBN(ctx, changed.ISBN, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, book.ErrISBNAlreadyExists
		}
	}

	updated, err := s.repo.Update(ctx, changed, req.Version)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("book_id", id.String()).
		Int("version", updated.Version).
		Msg("book updated")
	return updated, nil
}

func (s *bookService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	active, err := s.repo.HasActiveBorrowings(ctx, id)
	if err != nil {
		return err
	}
	if active {
		return book.ErrBookHasActiveBorrowings
	}

	// The repository refuses any book with borrowing history, closed loans
	// included, and re-checks inside the DELETE.
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.FromContext(ctx).Info().Str("book_id", id.String()).Msg("book deleted")
	return nil
}
