package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/member"
	"library-backend/internal/shared/validation"
	"library-backend/pkg/logger"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type memberService struct {
	repo    member.Repository
	ceiling int
	now     func() time.Time
}

// NewMemberService builds the service. ceiling is the borrowing limit used
// to decide eligibility and must match the borrowing engine's.
func NewMemberService(repo member.Repository, ceiling int) member.Service {
	return &memberService{
		repo:    repo,
		ceiling: ceiling,
		now:     time.Now,
	}
}

func (s *memberService) Create(ctx context.Context, req *member.CreateMemberRequest) (*member.Member, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	entity := req.ToEntity(s.now().UTC())
	exists, err := s.repo.ExistsByEmail(ctx, entity.Email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, member.ErrEmailAlreadyExists
	}

	created, err := s.repo.Create(ctx, entity)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("member_id", created.ID.String()).
		Msg("member registered")
	return created, nil
}

func (s *memberService) GetByID(ctx context.Context, id uuid.UUID) (*member.Member, error) {
	if id == uuid.Nil {
		return nil, member.ErrMemberNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *memberService) List(ctx context.Context, filter member.MemberFilter) ([]member.Member, int64, error) {
	if err := filter.Normalize(); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter)
}

func (s *memberService) Eligible(ctx context.Context, limit int) ([]member.Member, error) {
	return s.repo.Eligible(ctx, s.ceiling, clampLimit(limit))
}

func (s *memberService) MostActive(ctx context.Context, limit int) ([]member.Member, error) {
	return s.repo.MostActive(ctx, clampLimit(limit))
}

func (s *memberService) Update(ctx context.Context, id uuid.UUID, req *member.UpdateMemberRequest) (*member.Member, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	current, err := s.current(ctx, id, req.Version)
	if err != nil {
		return nil, err
	}

	changed := current.Clone()
	req.ApplyTo(changed)

	if changed.Email != current.Email {
		exists, err := s.repo.ExistsByEmail(ctx, changed.Email, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, member.ErrEmailAlreadyExists
		}
	}

	updated, err := s.repo.Update(ctx, changed, req.Version)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("member_id", id.String()).
		Int("version", updated.Version).
		Msg("member updated")
	return updated, nil
}

// ChangeStatus does not touch open borrowings. A suspended member keeps the
// books already out but cannot borrow more.
func (s *memberService) ChangeStatus(ctx context.Context, id uuid.UUID, req *member.ChangeStatusRequest) (*member.Member, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	current, err := s.current(ctx, id, req.Version)
	if err != nil {
		return nil, err
	}
	if current.Status == req.Status {
		return current, nil
	}

	changed := current.Clone()
	changed.Status = req.Status
	updated, err := s.repo.Update(ctx, changed, req.Version)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("member_id", id.String()).
		Str("from", string(current.Status)).
		Str("to", string(updated.Status)).
		Msg("member status changed")
	return updated, nil
}

func (s *memberService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	n, err := s.repo.CountActiveBorrowings(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return member.ErrMemberHasActiveBorrowings
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.FromContext(ctx).Info().Str("member_id", id.String()).Msg("member deleted")
	return nil
}

func (s *memberService) current(ctx context.Context, id uuid.UUID, version int) (*member.Member, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Version != version {
		return nil, member.ErrVersionConflict
	}
	return current, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
