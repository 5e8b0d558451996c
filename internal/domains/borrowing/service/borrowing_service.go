package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"library-backend/internal/domains/book"
	"library-backend/internal/domains/borrowing"
	"library-backend/internal/domains/member"
	"library-backend/internal/shared/retry"
	"library-backend/internal/shared/validation"
	"library-backend/pkg/cache"
	"library-backend/pkg/logger"
)

const (
	defaultSweepBatch   = 500
	defaultOverdueLimit = 1000
)

type borrowingService struct {
	engine *Engine
	repo   borrowing.Repository
	cache  cache.Cache

	sweepBatch   int
	retryOptions []retry.Option
}

type Option func(*borrowingService)

// WithSweepBatch bounds how many borrowings one sweep flags.
func WithSweepBatch(n int) Option {
	return func(s *borrowingService) {
		if n > 0 {
			s.sweepBatch = n
		}
	}
}

// WithRetry replaces the conflict retry schedule.
func WithRetry(opts ...retry.Option) Option {
	return func(s *borrowingService) {
		s.retryOptions = opts
	}
}

// NewBorrowingService wires the engine with the read side and the cache.
// c may be nil when no cache is configured.
func NewBorrowingService(engine *Engine, repo borrowing.Repository, c cache.Cache, opts ...Option) borrowing.Service {
	s := &borrowingService{
		engine:     engine,
		repo:       repo,
		cache:      c,
		sweepBatch: defaultSweepBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *borrowingService) Borrow(ctx context.Context, req *borrowing.BorrowRequest) ([]*borrowing.Borrowing, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	due, err := req.DueDateOr(s.engine.Today())
	if err != nil {
		return nil, err
	}

	var created []*borrowing.Borrowing
	err = s.withRetry(ctx, "borrow", func(ctx context.Context) error {
		var txErr error
		created, txErr = s.engine.BorrowBooks(ctx, req.MemberID, req.BookIDs, due)
		return txErr
	})
	if err != nil {
		s.logRejected(ctx, "borrow", err).
			Str("member_id", req.MemberID.String()).
			Int("books", len(req.BookIDs)).
			Msg("borrow rejected")
		return nil, err
	}

	s.invalidate(ctx, created)
	logger.FromContext(ctx).Info().
		Str("member_id", req.MemberID.String()).
		Int("books", len(created)).
		Str("due_date", due.Format(borrowing.DateLayout)).
		Msg("books borrowed")
	return created, nil
}

func (s *borrowingService) Return(ctx context.Context, req *borrowing.ReturnRequest) ([]*borrowing.Borrowing, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	var returned []*borrowing.Borrowing
	err := s.withRetry(ctx, "return", func(ctx context.Context) error {
		var err error
		returned, err = s.engine.ReturnBooks(ctx, req.BorrowingIDs)
		return err
	})
	if err != nil {
		s.logRejected(ctx, "return", err).
			Int("borrowings", len(req.BorrowingIDs)).
			Msg("return rejected")
		return nil, err
	}

	s.invalidate(ctx, returned)
	for _, br := range returned {
		if br.FineAmount.IsPositive() {
			logger.FromContext(ctx).Info().
				Str("borrowing_id", br.ID.String()).
				Str("fine", br.FineAmount.String()).
				Msg("overdue return fined")
		}
	}
	logger.FromContext(ctx).Info().Int("borrowings", len(returned)).Msg("books returned")
	return returned, nil
}

func (s *borrowingService) Extend(ctx context.Context, id uuid.UUID, req *borrowing.ExtendRequest) (*borrowing.Borrowing, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	var extended *borrowing.Borrowing
	err := s.withRetry(ctx, "extend", func(ctx context.Context) error {
		var err error
		extended, err = s.engine.ExtendDueDate(ctx, id, req.Days)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info().
		Str("borrowing_id", id.String()).
		Str("due_date", extended.DueDate.Format(borrowing.DateLayout)).
		Msg("due date extended")
	return extended, nil
}

func (s *borrowingService) MarkLost(ctx context.Context, id uuid.UUID, req *borrowing.NotesRequest) (*borrowing.Borrowing, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	var lost *borrowing.Borrowing
	err := s.withRetry(ctx, "mark_lost", func(ctx context.Context) error {
		var err error
		lost, err = s.engine.MarkLost(ctx, id, req.Notes)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, []*borrowing.Borrowing{lost})
	logger.FromContext(ctx).Warn().
		Str("borrowing_id", id.String()).
		Str("book_id", lost.BookID.String()).
		Str("fine", lost.FineAmount.String()).
		Msg("book marked lost")
	return lost, nil
}

func (s *borrowingService) UpdateNotes(ctx context.Context, id uuid.UUID, req *borrowing.NotesRequest) (*borrowing.Borrowing, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	var updated *borrowing.Borrowing
	err := s.withRetry(ctx, "notes", func(ctx context.Context) error {
		var err error
		updated, err = s.engine.UpdateNotes(ctx, id, req.Notes)
		return err
	})
	return updated, err
}

func (s *borrowingService) SweepOverdue(ctx context.Context) (int, error) {
	started := time.Now()
	asOf := s.engine.Today()

	var flagged int
	err := s.withRetry(ctx, "sweep", func(ctx context.Context) error {
		var err error
		flagged, err = s.engine.SweepOverdue(ctx, asOf, s.sweepBatch)
		return err
	})
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("overdue sweep failed")
		return 0, err
	}

	logger.FromContext(ctx).Info().
		Int("flagged", flagged).
		Str("as_of", asOf.Format(borrowing.DateLayout)).
		Dur("took", time.Since(started)).
		Msg("overdue sweep finished")
	return flagged, nil
}

func (s *borrowingService) GetByID(ctx context.Context, id uuid.UUID) (*borrowing.Borrowing, error) {
	if id == uuid.Nil {
		return nil, borrowing.ErrBorrowingNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *borrowingService) List(ctx context.Context, filter borrowing.BorrowingFilter) ([]borrowing.Borrowing, int64, error) {
	if err := filter.Normalize(); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter)
}

func (s *borrowingService) ListOverdue(ctx context.Context, limit int) ([]borrowing.OverdueItem, error) {
	if limit <= 0 || limit > defaultOverdueLimit {
		limit = defaultOverdueLimit
	}
	today := s.engine.Today()
	items, err := s.repo.ListOverdue(ctx, today, limit)
	if err != nil {
		return nil, err
	}
	for i := range items {
		loan := borrowing.Borrowing{DueDate: items[i].DueDate, Status: items[i].Status}
		items[i].DaysOverdue = loan.DaysOverdue(today)
		items[i].AccruedFine = loan.CalculateFine(today, s.engine.FineRate())
	}
	return items, nil
}

func (s *borrowingService) Stats(ctx context.Context) (*borrowing.Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range []borrowing.Status{borrowing.StatusBorrowed, borrowing.StatusOverdue, borrowing.StatusReturned, borrowing.StatusLost} {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
	fines, err := s.repo.TotalFines(ctx)
	if err != nil {
		return nil, err
	}
	return &borrowing.Stats{ByStatus: counts, TotalFines: fines}, nil
}

func (s *borrowingService) withRetry(ctx context.Context, op string, fn retry.Func) error {
	opts := append([]retry.Option{
		retry.WithOnRetry(func(attempt int, err error) {
			logger.FromContext(ctx).Warn().
				Err(err).
				Str("op", op).
				Int("attempt", attempt).
				Msg("retrying after concurrent modification")
		}),
	}, s.retryOptions...)
	return retry.OnConflict(ctx, fn, opts...)
}

// logRejected logs business rule rejections at info and everything else at error.
func (s *borrowingService) logRejected(ctx context.Context, op string, err error) *zerolog.Event {
	l := logger.FromContext(ctx)
	if errors.Is(err, borrowing.ErrStorage) || errors.Is(err, borrowing.ErrConcurrentModification) {
		return l.Error().Err(err).Str("op", op)
	}
	return l.Info().Err(err).Str("op", op).Str("code", borrowing.ToErrorCode(err))
}

// invalidate drops cached books and members touched by items.
func (s *borrowingService) invalidate(ctx context.Context, items []*borrowing.Borrowing) {
	if s.cache == nil || len(items) == 0 {
		return
	}
	keys := make([]string, 0, len(items)*2)
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, br := range items {
		keys = append(keys, book.CacheKey(br.BookID))
		if _, ok := seen[br.MemberID]; !ok {
			seen[br.MemberID] = struct{}{}
			keys = append(keys, member.CacheKey(br.MemberID))
		}
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Int("keys", len(keys)).Msg("cache invalidation failed")
	}
	if err := s.cache.DeletePattern(ctx, book.ListCachePattern); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("book list cache invalidation failed")
	}
}
