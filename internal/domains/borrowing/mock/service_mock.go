// Package mock provides testify mocks of the borrowing interfaces.
package mock

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/xuri/excelize/v2"

	"library-backend/internal/domains/borrowing"
)

type Service struct {
	mock.Mock
}

var _ borrowing.Service = (*Service)(nil)

func (m *Service) Borrow(ctx context.Context, req *borrowing.BorrowRequest) ([]*borrowing.Borrowing, error) {
	args := m.Called(ctx, req)
	items, _ := args.Get(0).([]*borrowing.Borrowing)
	return items, args.Error(1)
}

func (m *Service) Return(ctx context.Context, req *borrowing.ReturnRequest) ([]*borrowing.Borrowing, error) {
	args := m.Called(ctx, req)
	items, _ := args.Get(0).([]*borrowing.Borrowing)
	return items, args.Error(1)
}

func (m *Service) Extend(ctx context.Context, id uuid.UUID, req *borrowing.ExtendRequest) (*borrowing.Borrowing, error) {
	args := m.Called(ctx, id, req)
	b, _ := args.Get(0).(*borrowing.Borrowing)
	return b, args.Error(1)
}

func (m *Service) MarkLost(ctx context.Context, id uuid.UUID, req *borrowing.NotesRequest) (*borrowing.Borrowing, error) {
	args := m.Called(ctx, id, req)
	b, _ := args.Get(0).(*borrowing.Borrowing)
	return b, args.Error(1)
}

func (m *Service) UpdateNotes(ctx context.Context, id uuid.UUID, req *borrowing.NotesRequest) (*borrowing.Borrowing, error) {
	args := m.Called(ctx, id, req)
	b, _ := args.Get(0).(*borrowing.Borrowing)
	return b, args.Error(1)
}

func (m *Service) SweepOverdue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *Service) GetByID(ctx context.Context, id uuid.UUID) (*borrowing.Borrowing, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*borrowing.Borrowing)
	return b, args.Error(1)
}

func (m *Service) List(ctx context.Context, filter borrowing.BorrowingFilter) ([]borrowing.Borrowing, int64, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]borrowing.Borrowing)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *Service) ListOverdue(ctx context.Context, limit int) ([]borrowing.OverdueItem, error) {
	args := m.Called(ctx, limit)
	items, _ := args.Get(0).([]borrowing.OverdueItem)
	return items, args.Error(1)
}

func (m *Service) Stats(ctx context.Context) (*borrowing.Stats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*borrowing.Stats)
	return s, args.Error(1)
}

func (m *Service) OverdueReport(ctx context.Context) (*excelize.File, error) {
	args := m.Called(ctx)
	f, _ := args.Get(0).(*excelize.File)
	return f, args.Error(1)
}
