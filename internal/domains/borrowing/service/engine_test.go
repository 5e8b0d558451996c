package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/book"
	"library-backend/internal/domains/borrowing"
	"library-backend/internal/domains/member"
	"library-backend/internal/infrastructure/memstore"
	"library-backend/internal/shared/errs"
	"library-backend/internal/shared/validation"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advanceDays(n int) { c.now = c.now.AddDate(0, 0, n) }

type engineFixture struct {
	store  *memstore.Store
	clock  *fakeClock
	engine *Engine
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)}
	store := memstore.New()
	return &engineFixture{
		store:  store,
		clock:  clock,
		engine: NewEngine(store, WithClock(clock.Now)),
	}
}

func (f *engineFixture) today() time.Time {
	return f.engine.Today()
}

func (f *engineFixture) addMember(t *testing.T, status member.Status) *member.Member {
	t.Helper()
	m := &member.Member{
		ID:       uuid.New(),
		Name:     "Ada Lovelace",
		Email:    uuid.NewString() + "@example.com",
		JoinDate: f.today(),
		Status:   status,
		Version:  1,
	}
	f.store.PutMember(m)
	return m
}

func (f *engineFixture) addBook(t *testing.T, available bool) *book.Book {
	t.Helper()
	b := &book.Book{
		ID:        uuid.New(),
		Title:     "The Art of Computer Programming",
		ISBN:      uuid.NewString()[:13],
		Available: available,
		Version:   1,
	}
	f.store.PutBook(b)
	return b
}

func (f *engineFixture) addBooks(t *testing.T, n int) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = f.addBook(t, true).ID
	}
	return ids
}

func (f *engineFixture) book(t *testing.T, id uuid.UUID) *book.Book {
	t.Helper()
	b, ok := f.store.Book(id)
	require.True(t, ok)
	return b
}

func (f *engineFixture) member(t *testing.T, id uuid.UUID) *member.Member {
	t.Helper()
	m, ok := f.store.Member(id)
	require.True(t, ok)
	return m
}

func ids(items []*borrowing.Borrowing) []uuid.UUID {
	out := make([]uuid.UUID, len(items))
	for i, b := range items {
		out[i] = b.ID
	}
	return out
}

func TestBorrowBooks_PreservesInputOrder(t *testing.T) {
	f := newEngineFixture(t)
	m := f.addMember(t, member.StatusActive)
	bookIDs := f.addBooks(t, 4)

	got, err := f.engine.BorrowBooks(context.Background(), m.ID, bookIDs, f.today().AddDate(0, 0, 7))

	require.NoError(t, err)
	require.Len(t, got, len(bookIDs))
	for i, br := range got {
		assert.Equal(t, bookIDs[i], br.BookID)
		assert.Equal(t, m.ID, br.MemberID)
		assert.Equal(t, borrowing.StatusBorrowed, br.Status)
		assert.Equal(t, f.today(), br.BorrowDate)
		assert.True(t, br.FineAmount.IsZero())
	}
	assert.Equal(t, len(bookIDs), f.store.BorrowingCount())
}

func TestBorrowAndReturn_RoundTripsAvailability(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	m := f.addMember(t, member.StatusActive)
	bookIDs := f.addBooks(t, 3)

	borrowed, err := f.engine.BorrowBooks(ctx, m.ID, bookIDs, f.today())
	require.NoError(t, err)
	for _, id := range bookIDs {
		b := f.book(t, id)
		assert.False(t, b.Available)
		assert.Equal(t, 1, b.BorrowCount)
	}
	stored := f.member(t, m.ID)
	assert.Equal(t, 3, stored.ActiveBorrowings)
	assert.Equal(t, 3, stored.TotalBorrowed)

	returned, err := f.engine.ReturnBooks(ctx, ids(borrowed))
	require.NoError(t, err)
	require.Len(t, returned, 3)
	for _, id := range bookIDs {
		assert.True(t, f.book(t, id).Available)
	}
	stored = f.member(t, m.ID)
	assert.Equal(t, 0, stored.ActiveBorrowings)
	assert.Equal(t, 3, stored.TotalBorrowed)
}

func TestBorrowBooks_CeilingBoundary(t *testing.T) {
	ctx := context.Background()

	t.Run("at ceiling fails", func(t *testing.T) {
		f := newEngineFixture(t)
		m := f.addMember(t, member.StatusActive)
		_, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 5), f.today())
		require.NoError(t, err)

		extra := f.addBook(t, true)
		_, err = f.engine.BorrowBooks(ctx, m.ID, []uuid.UUID{extra.ID}, f.today())

		assert.ErrorIs(t, err, borrowing.ErrBorrowLimitExceeded)
		assert.True(t, f.book(t, extra.ID).Available)
	})

	t.Run("one below ceiling succeeds", func(t *testing.T) {
		f := newEngineFixture(t)
		m := f.addMember(t, member.StatusActive)
		_, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 4), f.today())
		require.NoError(t, err)

		got, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 1), f.today())

		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, 5, f.member(t, m.ID).ActiveBorrowings)
	})

	t.Run("batch crossing ceiling fails", func(t *testing.T) {
		f := newEngineFixture(t)
		m := f.addMember(t, member.StatusActive)
		_, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 6), f.today())
		assert.ErrorIs(t, err, borrowing.ErrBorrowLimitExceeded)
		assert.Zero(t, f.store.BorrowingCount())
	})

	t.Run("custom ceiling", func(t *testing.T) {
		f := newEngineFixture(t)
		f.engine = NewEngine(f.store, WithClock(f.clock.Now), WithCeiling(2))
		m := f.addMember(t, member.StatusActive)
		_, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 3), f.today())
		assert.ErrorIs(t, err, borrowing.ErrBorrowLimitExceeded)
	})
}

func TestReturnBooks_Fine(t *testing.T) {
	tests := []struct {
		name     string
		dueShift int
		wantFine decimal.Decimal
	}{
		{name: "due yesterday", dueShift: -1, wantFine: decimal.NewFromInt(5000)},
		{name: "due today", dueShift: 0, wantFine: decimal.Zero},
		{name: "due next week", dueShift: 7, wantFine: decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t)
			ctx := context.Background()
			m := f.addMember(t, member.StatusActive)

			// Borrow with a due date far enough out, then move the clock so
			// that the due date lands on the wanted offset from today.
			borrowed, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 1), f.today().AddDate(0, 0, 10))
			require.NoError(t, err)
			f.clock.advanceDays(10 - tt.dueShift)

			returned, err := f.engine.ReturnBooks(ctx, ids(borrowed))

			require.NoError(t, err)
			assert.True(t, tt.wantFine.Equal(returned[0].FineAmount), "fine %s", returned[0].FineAmount)
			assert.Equal(t, borrowing.StatusReturned, returned[0].Status)
			require.NotNil(t, returned[0].ReturnDate)
			assert.Equal(t, f.today(), *returned[0].ReturnDate)
		})
	}
}

func TestReturnBooks_Twice(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	m := f.addMember(t, member.StatusActive)
	borrowed, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 1), f.today())
	require.NoError(t, err)

	_, err = f.engine.ReturnBooks(ctx, ids(borrowed))
	require.NoError(t, err)

	_, err = f.engine.ReturnBooks(ctx, ids(borrowed))
	assert.ErrorIs(t, err, borrowing.ErrAlreadyReturned)
	assert.Equal(t, ids(borrowed), errs.IDsOf(err))
	assert.Equal(t, 0, f.member(t, m.ID).ActiveBorrowings)
}

func TestReturnBooks_NamesFirstReturnedInInputOrder(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	m := f.addMember(t, member.StatusActive)
	borrowed, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 3), f.today())
	require.NoError(t, err)

	_, err = f.engine.ReturnBooks(ctx, []uuid.UUID{borrowed[2].ID, borrowed[1].ID})
	require.NoError(t, err)

	_, err = f.engine.ReturnBooks(ctx, []uuid.UUID{borrowed[0].ID, borrowed[1].ID, borrowed[2].ID})

	assert.ErrorIs(t, err, borrowing.ErrAlreadyReturned)
	assert.Equal(t, []uuid.UUID{borrowed[1].ID}, errs.IDsOf(err))
	open, _ := f.store.Borrowing(borrowed[0].ID)
	assert.Equal(t, borrowing.StatusBorrowed, open.Status)
}

func TestReturnBooks_UnknownIDs(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	m := f.addMember(t, member.StatusActive)
	borrowed, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 1), f.today())
	require.NoError(t, err)
	ghost := uuid.New()

	_, err = f.engine.ReturnBooks(ctx, []uuid.UUID{borrowed[0].ID, ghost})

	assert.ErrorIs(t, err, borrowing.ErrBorrowingNotFound)
	assert.Equal(t, []uuid.UUID{ghost}, errs.IDsOf(err))
	assert.False(t, f.book(t, borrowed[0].BookID).Available)
}

func TestBorrowBooks_PartialResolutionIsAllOrNothing(t *testing.T) {
	f := newEngineFixture(t)
	m := f.addMember(t, member.StatusActive)
	valid := f.addBook(t, true)
	ghost := uuid.New()

	_, err := f.engine.BorrowBooks(context.Background(), m.ID, []uuid.UUID{valid.ID, ghost}, f.today())

	assert.ErrorIs(t, err, borrowing.ErrBookNotFound)
	assert.Equal(t, []uuid.UUID{ghost}, errs.IDsOf(err))
	assert.True(t, f.book(t, valid.ID).Available)
	assert.Zero(t, f.book(t, valid.ID).BorrowCount)
	assert.Zero(t, f.member(t, m.ID).ActiveBorrowings)
	assert.Zero(t, f.store.BorrowingCount())
}

func TestBorrowBooks_UnavailableSubsetNamed(t *testing.T) {
	f := newEngineFixture(t)
	m := f.addMember(t, member.StatusActive)
	free := f.addBook(t, true)
	out1 := f.addBook(t, false)
	out2 := f.addBook(t, false)

	_, err := f.engine.BorrowBooks(context.Background(), m.ID, []uuid.UUID{out2.ID, free.ID, out1.ID}, f.today())

	assert.ErrorIs(t, err, borrowing.ErrBookUnavailable)
	assert.Equal(t, []uuid.UUID{out2.ID, out1.ID}, errs.IDsOf(err))
	assert.True(t, f.book(t, free.ID).Available)
}

func TestBorrowBooks_CheckOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("empty request", func(t *testing.T) {
		f := newEngineFixture(t)
		m := f.addMember(t, member.StatusActive)
		_, err := f.engine.BorrowBooks(ctx, m.ID, nil, f.today())
		assert.ErrorIs(t, err, borrowing.ErrInvalidRequest)
		require.NotEmpty(t, validation.FieldsOf(err))
		assert.Equal(t, "book_ids", validation.FieldsOf(err)[0].Field)
	})

	t.Run("duplicate ids", func(t *testing.T) {
		f := newEngineFixture(t)
		m := f.addMember(t, member.StatusActive)
		b := f.addBook(t, true)
		_, err := f.engine.BorrowBooks(ctx, m.ID, []uuid.UUID{b.ID, b.ID}, f.today())
		assert.ErrorIs(t, err, borrowing.ErrInvalidRequest)
	})

	t.Run("nil member id", func(t *testing.T) {
		f := newEngineFixture(t)
		_, err := f.engine.BorrowBooks(ctx, uuid.Nil, f.addBooks(t, 1), f.today())
		assert.ErrorIs(t, err, borrowing.ErrInvalidRequest)
	})

	t.Run("due date before today wins over missing member", func(t *testing.T) {
		f := newEngineFixture(t)
		_, err := f.engine.BorrowBooks(ctx, uuid.New(), f.addBooks(t, 1), f.today().AddDate(0, 0, -1))
		assert.ErrorIs(t, err, borrowing.ErrInvalidDueDate)
	})

	t.Run("due date later today is accepted", func(t *testing.T) {
		f := newEngineFixture(t)
		m := f.addMember(t, member.StatusActive)
		_, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 1), f.today().Add(time.Hour))
		assert.NoError(t, err)
	})

	t.Run("unknown member", func(t *testing.T) {
		f := newEngineFixture(t)
		_, err := f.engine.BorrowBooks(ctx, uuid.New(), f.addBooks(t, 1), f.today())
		assert.ErrorIs(t, err, borrowing.ErrMemberNotFound)
	})

	t.Run("limit checked before status", func(t *testing.T) {
		f := newEngineFixture(t)
		m := f.addMember(t, member.StatusSuspended)
		_, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 6), f.today())
		assert.ErrorIs(t, err, borrowing.ErrBorrowLimitExceeded)
	})

	t.Run("suspended member", func(t *testing.T) {
		f := newEngineFixture(t)
		m := f.addMember(t, member.StatusSuspended)
		_, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 1), f.today())
		assert.ErrorIs(t, err, borrowing.ErrMemberNotEligible)
	})

	t.Run("missing books before unavailable books", func(t *testing.T) {
		f := newEngineFixture(t)
		m := f.addMember(t, member.StatusActive)
		taken := f.addBook(t, false)
		_, err := f.engine.BorrowBooks(ctx, m.ID, []uuid.UUID{taken.ID, uuid.New()}, f.today())
		assert.ErrorIs(t, err, borrowing.ErrBookNotFound)
	})
}

func TestScenario_BorrowTwoReturnOneThreeDaysLate(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	m := f.addMember(t, member.StatusActive)
	b1 := f.addBook(t, true)
	b2 := f.addBook(t, true)
	due := f.today().AddDate(0, 0, 7)

	borrowed, err := f.engine.BorrowBooks(ctx, m.ID, []uuid.UUID{b1.ID, b2.ID}, due)
	require.NoError(t, err)
	require.Len(t, borrowed, 2)
	for _, br := range borrowed {
		assert.Equal(t, borrowing.StatusBorrowed, br.Status)
	}
	assert.False(t, f.book(t, b1.ID).Available)
	assert.False(t, f.book(t, b2.ID).Available)

	f.clock.advanceDays(7 + 3)
	returned, err := f.engine.ReturnBooks(ctx, []uuid.UUID{borrowed[0].ID})

	require.NoError(t, err)
	require.Len(t, returned, 1)
	assert.Equal(t, "15000", returned[0].FineAmount.String())
	assert.Equal(t, borrowing.StatusReturned, returned[0].Status)
	assert.True(t, f.book(t, b1.ID).Available)
	assert.False(t, f.book(t, b2.ID).Available)
	assert.Equal(t, 1, f.member(t, m.ID).ActiveBorrowings)
}

func TestBorrowBooks_StorageFailureRollsBack(t *testing.T) {
	f := newEngineFixture(t)
	m := f.addMember(t, member.StatusActive)
	bookIDs := f.addBooks(t, 2)
	f.store.FailOn(memstore.OpUpdateMembers, errors.New("disk full"))

	_, err := f.engine.BorrowBooks(context.Background(), m.ID, bookIDs, f.today())

	assert.ErrorIs(t, err, borrowing.ErrStorage)
	assert.Zero(t, f.store.BorrowingCount())
	for _, id := range bookIDs {
		assert.True(t, f.book(t, id).Available)
	}
	assert.Zero(t, f.store.Commits())
}

func TestBorrowBooks_ConcurrentModificationDetected(t *testing.T) {
	f := newEngineFixture(t)
	m := f.addMember(t, member.StatusActive)
	b := f.addBook(t, true)

	racing := &racingGateway{Store: f.store, race: func() {
		// Another writer changes the book between read and commit.
		changed, _ := f.store.Book(b.ID)
		changed.Title = "Renamed"
		changed.Version++
		f.store.PutBook(changed)
	}}
	engine := NewEngine(racing, WithClock(f.clock.Now))

	_, err := engine.BorrowBooks(context.Background(), m.ID, []uuid.UUID{b.ID}, f.today())

	assert.ErrorIs(t, err, borrowing.ErrConcurrentModification)
	assert.True(t, errs.IsRetryable(err))
	assert.True(t, f.book(t, b.ID).Available)
}

// racingGateway runs race after fn and before the commit.
type racingGateway struct {
	*memstore.Store
	race func()
}

func (g *racingGateway) WithinTx(ctx context.Context, fn borrowing.TxFunc) error {
	return g.Store.WithinTx(ctx, func(ctx context.Context, tx borrowing.Tx) error {
		if err := fn(ctx, tx); err != nil {
			return err
		}
		g.race()
		return nil
	})
}

func TestExtendDueDate(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	m := f.addMember(t, member.StatusActive)
	borrowed, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 1), f.today().AddDate(0, 0, 7))
	require.NoError(t, err)

	extended, err := f.engine.ExtendDueDate(ctx, borrowed[0].ID, 5)
	require.NoError(t, err)
	assert.Equal(t, f.today().AddDate(0, 0, 12), extended.DueDate)

	_, err = f.engine.ExtendDueDate(ctx, borrowed[0].ID, 0)
	assert.ErrorIs(t, err, borrowing.ErrInvalidRequest)

	_, err = f.engine.ExtendDueDate(ctx, uuid.New(), 3)
	assert.ErrorIs(t, err, borrowing.ErrBorrowingNotFound)

	_, err = f.engine.ReturnBooks(ctx, ids(borrowed))
	require.NoError(t, err)
	_, err = f.engine.ExtendDueDate(ctx, borrowed[0].ID, 3)
	assert.ErrorIs(t, err, borrowing.ErrBorrowingClosed)
}

func TestMarkLost(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	m := f.addMember(t, member.StatusActive)
	borrowed, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 1), f.today().AddDate(0, 0, 2))
	require.NoError(t, err)
	f.clock.advanceDays(4)

	lost, err := f.engine.MarkLost(ctx, borrowed[0].ID, "left on the train")

	require.NoError(t, err)
	assert.Equal(t, borrowing.StatusLost, lost.Status)
	assert.Equal(t, "10000", lost.FineAmount.String())
	assert.Equal(t, "left on the train", lost.Notes)
	assert.True(t, f.book(t, borrowed[0].BookID).Available, "no active borrowing references the book")
	assert.Zero(t, f.member(t, m.ID).ActiveBorrowings)

	_, err = f.engine.ReturnBooks(ctx, ids(borrowed))
	assert.ErrorIs(t, err, borrowing.ErrBorrowingClosed)

	_, err = f.engine.MarkLost(ctx, borrowed[0].ID, "")
	assert.ErrorIs(t, err, borrowing.ErrBorrowingClosed)
}

func TestUpdateNotes_AllowedOnClosedBorrowing(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	m := f.addMember(t, member.StatusActive)
	borrowed, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 1), f.today())
	require.NoError(t, err)
	_, err = f.engine.ReturnBooks(ctx, ids(borrowed))
	require.NoError(t, err)

	updated, err := f.engine.UpdateNotes(ctx, borrowed[0].ID, "cover slightly torn")

	require.NoError(t, err)
	assert.Equal(t, "cover slightly torn", updated.Notes)
	assert.Equal(t, borrowing.StatusReturned, updated.Status)
}

func TestSweepOverdue(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	m := f.addMember(t, member.StatusActive)
	soon, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 2), f.today().AddDate(0, 0, 1))
	require.NoError(t, err)
	later, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 1), f.today().AddDate(0, 0, 10))
	require.NoError(t, err)

	f.clock.advanceDays(3)
	n, err := f.engine.SweepOverdue(ctx, f.today(), 100)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	for _, br := range soon {
		stored, _ := f.store.Borrowing(br.ID)
		assert.Equal(t, borrowing.StatusOverdue, stored.Status)
	}
	stored, _ := f.store.Borrowing(later[0].ID)
	assert.Equal(t, borrowing.StatusBorrowed, stored.Status)

	again, err := f.engine.SweepOverdue(ctx, f.today(), 100)
	require.NoError(t, err)
	assert.Zero(t, again)

	// Overdue loans still count towards the ceiling and can be returned with a fine.
	returned, err := f.engine.ReturnBooks(ctx, []uuid.UUID{soon[0].ID})
	require.NoError(t, err)
	assert.Equal(t, "10000", returned[0].FineAmount.String())
}

func TestSweepOverdue_RespectsLimit(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	m := f.addMember(t, member.StatusActive)
	_, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 3), f.today())
	require.NoError(t, err)
	f.clock.advanceDays(1)

	n, err := f.engine.SweepOverdue(ctx, f.today(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.engine.SweepOverdue(ctx, f.today(), 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWithFineRate(t *testing.T) {
	f := newEngineFixture(t)
	f.engine = NewEngine(f.store, WithClock(f.clock.Now), WithFineRate(decimal.NewFromInt(250)))
	ctx := context.Background()
	m := f.addMember(t, member.StatusActive)
	borrowed, err := f.engine.BorrowBooks(ctx, m.ID, f.addBooks(t, 1), f.today())
	require.NoError(t, err)
	f.clock.advanceDays(4)

	returned, err := f.engine.ReturnBooks(ctx, ids(borrowed))

	require.NoError(t, err)
	assert.Equal(t, "1000", returned[0].FineAmount.String())
}

func TestMarkLost_AvailabilityTracksActiveBorrowings(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	m := f.addMember(t, member.StatusActive)
	bookIDs := f.addBooks(t, 2)
	borrowed, err := f.engine.BorrowBooks(ctx, m.ID, bookIDs, f.today().AddDate(0, 0, 7))
	require.NoError(t, err)

	_, err = f.engine.MarkLost(ctx, borrowed[0].ID, "")
	require.NoError(t, err)

	for _, id := range bookIDs {
		active := 0
		for _, br := range borrowed {
			got, ok := f.store.Borrowing(br.ID)
			require.True(t, ok)
			if got.BookID == id && got.Status.IsActive() {
				active++
			}
		}
		assert.Equal(t, active > 0, !f.book(t, id).Available, "book %s", id)
	}

	again, err := f.engine.BorrowBooks(ctx, m.ID, bookIDs[:1], f.today().AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, bookIDs[0], again[0].BookID)
	assert.Equal(t, 2, f.book(t, bookIDs[0]).BorrowCount)
}
