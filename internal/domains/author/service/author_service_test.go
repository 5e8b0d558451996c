package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/author"
	"library-backend/internal/shared/errs"
	"library-backend/internal/shared/validation"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, a *author.Author) (*author.Author, error) {
	args := m.Called(ctx, a)
	out, _ := args.Get(0).(*author.Author)
	return out, args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*author.Author, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*author.Author)
	return out, args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter author.AuthorFilter) ([]author.Author, int64, error) {
	args := m.Called(ctx, filter)
	out, _ := args.Get(0).([]author.Author)
	return out, args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) Update(ctx context.Context, a *author.Author, currentVersion int) (*author.Author, error) {
	args := m.Called(ctx, a, currentVersion)
	out, _ := args.Get(0).(*author.Author)
	return out, args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) GetBookCount(ctx context.Context, authorID uuid.UUID) (int, error) {
	args := m.Called(ctx, authorID)
	return args.Int(0), args.Error(1)
}

func newService(repo *MockRepository) *authorService {
	svc := NewAuthorService(repo).(*authorService)
	svc.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func existing() *author.Author {
	return &author.Author{ID: uuid.New(), Name: "Ursula K. Le Guin", Nationality: "American", Version: 2}
}

func TestCreate_TrimsAndStores(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(a *author.Author) bool {
		return a.Name == "Toni Morrison" && a.ID != uuid.Nil && !a.CreatedAt.IsZero()
	})).Return(&author.Author{Name: "Toni Morrison", Version: 1}, nil).Once()

	got, err := newService(repo).Create(context.Background(), &author.CreateAuthorRequest{Name: "  Toni Morrison "})

	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	repo.AssertExpectations(t)
}

func TestCreate_Validation(t *testing.T) {
	repo := new(MockRepository)
	year := 3000

	_, err := newService(repo).Create(context.Background(), &author.CreateAuthorRequest{Name: "X", BirthYear: &year})

	require.ErrorIs(t, err, errs.ErrInvalidRequest)
	fields := validation.FieldsOf(err)
	require.Len(t, fields, 2)
	assert.Equal(t, "birth_year", fields[0].Field)
	assert.Equal(t, "name", fields[1].Field)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetByID_NilID(t *testing.T) {
	_, err := newService(new(MockRepository)).GetByID(context.Background(), uuid.Nil)

	assert.ErrorIs(t, err, author.ErrAuthorNotFound)
}

func TestGetWithBookCount(t *testing.T) {
	repo := new(MockRepository)
	a := existing()
	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("GetBookCount", mock.Anything, a.ID).Return(3, nil)

	got, count, err := newService(repo).GetWithBookCount(context.Background(), a.ID)

	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, 3, count)
}

func TestList_RejectsUnknownSort(t *testing.T) {
	repo := new(MockRepository)

	_, _, err := newService(repo).List(context.Background(), author.AuthorFilter{SortBy: "password"})

	assert.ErrorIs(t, err, errs.ErrInvalidRequest)
}

func TestUpdate_VersionMismatch(t *testing.T) {
	repo := new(MockRepository)
	a := existing()
	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	name := "Ursula Le Guin"

	_, err := newService(repo).Update(context.Background(), a.ID, &author.UpdateAuthorRequest{Name: &name, Version: 1})

	assert.ErrorIs(t, err, errs.ErrConcurrentModification)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_AppliesChanges(t *testing.T) {
	repo := new(MockRepository)
	a := existing()
	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	nationality := "US"
	repo.On("Update", mock.Anything, mock.MatchedBy(func(changed *author.Author) bool {
		return changed.Nationality == "US" && changed.Name == a.Name
	}), 2).Return(&author.Author{ID: a.ID, Nationality: "US", Version: 3}, nil).Once()

	got, err := newService(repo).Update(context.Background(), a.ID, &author.UpdateAuthorRequest{Nationality: &nationality, Version: 2})

	require.NoError(t, err)
	assert.Equal(t, 3, got.Version)
	assert.Equal(t, "American", a.Nationality, "cached entity is not mutated")
}

func TestDelete_BlockedByLinkedBooks(t *testing.T) {
	repo := new(MockRepository)
	a := existing()
	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("GetBookCount", mock.Anything, a.ID).Return(1, nil)

	err := newService(repo).Delete(context.Background(), a.ID)

	assert.ErrorIs(t, err, errs.ErrHasActiveDependents)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_Unlinked(t *testing.T) {
	repo := new(MockRepository)
	a := existing()
	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("GetBookCount", mock.Anything, a.ID).Return(0, nil)
	repo.On("Delete", mock.Anything, a.ID).Return(nil).Once()

	require.NoError(t, newService(repo).Delete(context.Background(), a.ID))
	repo.AssertExpectations(t)
}

func TestDelete_NotFound(t *testing.T) {
	repo := new(MockRepository)
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, author.ErrAuthorNotFound)

	assert.ErrorIs(t, newService(repo).Delete(context.Background(), id), errs.ErrAuthorNotFound)
}
