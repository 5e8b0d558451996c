package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/member"
	"library-backend/internal/shared/errs"
	"library-backend/internal/shared/validation"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, mem *member.Member) (*member.Member, error) {
	args := m.Called(ctx, mem)
	out, _ := args.Get(0).(*member.Member)
	return out, args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*member.Member, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*member.Member)
	return out, args.Error(1)
}

func (m *MockRepository) ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter member.MemberFilter) ([]member.Member, int64, error) {
	args := m.Called(ctx, filter)
	out, _ := args.Get(0).([]member.Member)
	return out, args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) Eligible(ctx context.Context, ceiling, limit int) ([]member.Member, error) {
	args := m.Called(ctx, ceiling, limit)
	out, _ := args.Get(0).([]member.Member)
	return out, args.Error(1)
}

func (m *MockRepository) MostActive(ctx context.Context, limit int) ([]member.Member, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).([]member.Member)
	return out, args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, mem *member.Member, currentVersion int) (*member.Member, error) {
	args := m.Called(ctx, mem, currentVersion)
	out, _ := args.Get(0).(*member.Member)
	return out, args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) CountActiveBorrowings(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

var joined = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func newService(repo *MockRepository) *memberService {
	svc := NewMemberService(repo, 5).(*memberService)
	svc.now = func() time.Time { return joined }
	return svc
}

func existing() *member.Member {
	return &member.Member{
		ID:       uuid.New(),
		Name:     "Ada Lovelace",
		Email:    "ada@example.com",
		JoinDate: joined,
		Status:   member.StatusActive,
		Version:  2,
	}
}

func TestCreate_NormalizesEmail(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ExistsByEmail", mock.Anything, "ada@example.com", uuid.Nil).Return(false, nil).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(m *member.Member) bool {
		return m.Email == "ada@example.com" && m.Status == member.StatusActive &&
			m.JoinDate.Equal(joined) && m.ActiveBorrowings == 0
	})).Return(&member.Member{ID: uuid.New(), Version: 1}, nil).Once()

	got, err := newService(repo).Create(context.Background(), &member.CreateMemberRequest{
		Name:  "Ada Lovelace",
		Email: " ADA@Example.com ",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	repo.AssertExpectations(t)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ExistsByEmail", mock.Anything, "ada@example.com", uuid.Nil).Return(true, nil).Once()

	_, err := newService(repo).Create(context.Background(), &member.CreateMemberRequest{Name: "Ada", Email: "ada@example.com"})

	assert.ErrorIs(t, err, errs.ErrDuplicateKey)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_Validation(t *testing.T) {
	_, err := newService(new(MockRepository)).Create(context.Background(), &member.CreateMemberRequest{
		Name:  "A",
		Email: "not-an-email",
		Phone: "abc",
	})

	require.ErrorIs(t, err, errs.ErrInvalidRequest)
	fields := validation.FieldsOf(err)
	require.Len(t, fields, 3)
	assert.Equal(t, "email", fields[0].Field)
	assert.Equal(t, "name", fields[1].Field)
	assert.Equal(t, "phone", fields[2].Field)
}

func TestEligible_PassesCeiling(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Eligible", mock.Anything, 5, defaultListLimit).Return([]member.Member{*existing()}, nil).Once()

	got, err := newService(repo).Eligible(context.Background(), 0)

	require.NoError(t, err)
	assert.Len(t, got, 1)
	repo.AssertExpectations(t)
}

func TestMostActive_ClampsLimit(t *testing.T) {
	repo := new(MockRepository)
	repo.On("MostActive", mock.Anything, maxListLimit).Return([]member.Member{}, nil).Once()

	_, err := newService(repo).MostActive(context.Background(), 1000)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdate_EmailTakenByOther(t *testing.T) {
	repo := new(MockRepository)
	current := existing()
	email := "grace@example.com"
	repo.On("GetByID", mock.Anything, current.ID).Return(current, nil).Once()
	repo.On("ExistsByEmail", mock.Anything, email, current.ID).Return(true, nil).Once()

	_, err := newService(repo).Update(context.Background(), current.ID, &member.UpdateMemberRequest{Email: &email, Version: 2})

	assert.ErrorIs(t, err, member.ErrEmailAlreadyExists)
}

func TestUpdate_SameEmailSkipsCheck(t *testing.T) {
	repo := new(MockRepository)
	current := existing()
	name := "Augusta Ada King"
	repo.On("GetByID", mock.Anything, current.ID).Return(current, nil).Once()
	repo.On("Update", mock.Anything, mock.MatchedBy(func(m *member.Member) bool {
		return m.Name == name && m.Email == current.Email
	}), 2).Return(&member.Member{ID: current.ID, Name: name, Version: 3}, nil).Once()

	got, err := newService(repo).Update(context.Background(), current.ID, &member.UpdateMemberRequest{Name: &name, Version: 2})

	require.NoError(t, err)
	assert.Equal(t, 3, got.Version)
	repo.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_StaleVersion(t *testing.T) {
	repo := new(MockRepository)
	current := existing()
	repo.On("GetByID", mock.Anything, current.ID).Return(current, nil).Once()

	_, err := newService(repo).Update(context.Background(), current.ID, &member.UpdateMemberRequest{Version: 1})

	assert.ErrorIs(t, err, errs.ErrConcurrentModification)
}

func TestChangeStatus(t *testing.T) {
	repo := new(MockRepository)
	current := existing()
	repo.On("GetByID", mock.Anything, current.ID).Return(current, nil).Once()
	repo.On("Update", mock.Anything, mock.MatchedBy(func(m *member.Member) bool {
		return m.Status == member.StatusSuspended
	}), 2).Return(&member.Member{ID: current.ID, Status: member.StatusSuspended, Version: 3}, nil).Once()

	got, err := newService(repo).ChangeStatus(context.Background(), current.ID, &member.ChangeStatusRequest{
		Status: member.StatusSuspended, Version: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, member.StatusSuspended, got.Status)
	assert.Equal(t, member.StatusActive, current.Status)
}

func TestChangeStatus_UnknownStatus(t *testing.T) {
	_, err := newService(new(MockRepository)).ChangeStatus(context.Background(), uuid.New(), &member.ChangeStatusRequest{Status: "BANNED"})

	assert.ErrorIs(t, err, errs.ErrInvalidRequest)
}

func TestChangeStatus_NoopWhenUnchanged(t *testing.T) {
	repo := new(MockRepository)
	current := existing()
	repo.On("GetByID", mock.Anything, current.ID).Return(current, nil).Once()

	got, err := newService(repo).ChangeStatus(context.Background(), current.ID, &member.ChangeStatusRequest{
		Status: member.StatusActive, Version: 2,
	})

	require.NoError(t, err)
	assert.Same(t, current, got)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_RefusedWithActiveBorrowings(t *testing.T) {
	repo := new(MockRepository)
	current := existing()
	repo.On("GetByID", mock.Anything, current.ID).Return(current, nil).Once()
	repo.On("CountActiveBorrowings", mock.Anything, current.ID).Return(2, nil).Once()

	err := newService(repo).Delete(context.Background(), current.ID)

	assert.ErrorIs(t, err, member.ErrMemberHasActiveBorrowings)
	assert.ErrorIs(t, err, errs.ErrHasActiveDependents)
}

func TestDelete_NotFound(t *testing.T) {
	err := newService(new(MockRepository)).Delete(context.Background(), uuid.Nil)

	assert.ErrorIs(t, err, errs.ErrMemberNotFound)
}

func TestDelete_RefusedWithHistory(t *testing.T) {
	repo := new(MockRepository)
	current := existing()
	repo.On("GetByID", mock.Anything, current.ID).Return(current, nil).Once()
	repo.On("CountActiveBorrowings", mock.Anything, current.ID).Return(0, nil).Once()
	repo.On("Delete", mock.Anything, current.ID).Return(member.ErrMemberHasHistory).Once()

	err := newService(repo).Delete(context.Background(), current.ID)

	assert.ErrorIs(t, err, member.ErrMemberHasHistory)
	assert.ErrorIs(t, err, errs.ErrHasActiveDependents)
	repo.AssertExpectations(t)
}
