package service

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"library-backend/internal/domains/book"
	"library-backend/internal/domains/borrowing"
	"library-backend/internal/domains/member"
	"library-backend/internal/shared/errs"
	"library-backend/internal/shared/utils"
	sharedvalidation "library-backend/internal/shared/validation"
)

// Engine applies the borrowing lifecycle rules inside one gateway
// transaction per call. It holds no state besides its configuration.
type Engine struct {
	gateway  borrowing.Gateway
	ceiling  int
	fineRate decimal.Decimal
	clock    func() time.Time
}

type EngineOption func(*Engine)

// WithCeiling overrides the maximum number of active borrowings per member.
func WithCeiling(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.ceiling = n
		}
	}
}

// WithFineRate overrides the fine charged per day overdue.
func WithFineRate(rate decimal.Decimal) EngineOption {
	return func(e *Engine) {
		if !rate.IsNegative() {
			e.fineRate = rate
		}
	}
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

func NewEngine(gateway borrowing.Gateway, opts ...EngineOption) *Engine {
	e := &Engine{
		gateway:  gateway,
		ceiling:  borrowing.DefaultCeiling,
		fineRate: borrowing.DefaultFineRate,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ceiling is the most active borrowings a member may hold.
func (e *Engine) Ceiling() int { return e.ceiling }

// FineRate is the fine charged per day overdue.
func (e *Engine) FineRate() decimal.Decimal { return e.fineRate }

// Today is the engine's current calendar date.
func (e *Engine) Today() time.Time {
	return utils.DateOf(e.clock())
}

// idBatch is the shape check shared by the batch operations.
type idBatch struct {
	field string
	ids   []uuid.UUID
	owner *uuid.UUID
}

func (b idBatch) Validate() error {
	fields := validation.Errors{
		b.field: validation.Validate(b.ids,
			validation.Required,
			validation.Length(1, borrowing.MaxBatchSize),
			validation.Each(sharedvalidation.NotNilUUID),
			validation.By(func(interface{}) error {
				if _, dup := utils.HasDuplicateUUIDs(b.ids); dup {
					return errDuplicateIDs
				}
				return nil
			}),
		),
	}
	if b.owner != nil {
		fields["member_id"] = validation.Validate(*b.owner, sharedvalidation.NotNilUUID)
	}
	return fields.Filter()
}

// BorrowBooks lends bookIDs to memberID until dueDate. Checks run in a fixed
// order and the first failing one decides the error. On success the
// borrowings are returned in the order of bookIDs.
func (e *Engine) BorrowBooks(ctx context.Context, memberID uuid.UUID, bookIDs []uuid.UUID, dueDate time.Time) ([]*borrowing.Borrowing, error) {
	if err := sharedvalidation.Validate(idBatch{field: "book_ids", ids: bookIDs, owner: &memberID}); err != nil {
		return nil, err
	}

	now := e.clock()
	today := utils.DateOf(now)
	due := utils.DateOf(dueDate)
	if due.Before(today) {
		return nil, borrowing.ErrInvalidDueDate
	}

	var created []*borrowing.Borrowing
	err := e.gateway.WithinTx(ctx, func(ctx context.Context, tx borrowing.Tx) error {
		m, err := tx.FindMemberByID(ctx, memberID)
		if err != nil {
			return err
		}

		active, err := tx.CountActiveBorrowings(ctx, memberID)
		if err != nil {
			return err
		}
		if !borrowing.CanBorrow(active, len(bookIDs), e.ceiling) {
			return borrowing.ErrBorrowLimitExceeded
		}
		if m.Status != member.StatusActive {
			return borrowing.ErrMemberNotEligible
		}

		found, err := tx.FindBooksByIDs(ctx, bookIDs)
		if err != nil {
			return err
		}
		books, missing := indexBooks(found, bookIDs)
		if len(missing) > 0 {
			return errs.WithIDs(borrowing.ErrBookNotFound, missing...)
		}

		var unavailable []uuid.UUID
		for _, id := range bookIDs {
			if !books[id].Available {
				unavailable = append(unavailable, id)
			}
		}
		if len(unavailable) > 0 {
			return errs.WithIDs(borrowing.ErrBookUnavailable, unavailable...)
		}

		batch := make([]*borrowing.Borrowing, len(bookIDs))
		touched := make([]*book.Book, len(bookIDs))
		for i, id := range bookIDs {
			b := books[id]
			b.MarkBorrowed()
			b.UpdatedAt = now
			touched[i] = b
			batch[i] = borrowing.New(memberID, id, now, due)
		}
		m.StartBorrowings(len(bookIDs))
		m.UpdatedAt = now

		if err := tx.SaveBorrowings(ctx, batch); err != nil {
			return err
		}
		if err := tx.UpdateBooks(ctx, touched); err != nil {
			return err
		}
		if err := tx.UpdateMembers(ctx, []*member.Member{m}); err != nil {
			return err
		}
		created = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ReturnBooks closes borrowingIDs, charging a fine for each overdue one.
// Borrowings are returned in the order of borrowingIDs.
func (e *Engine) ReturnBooks(ctx context.Context, borrowingIDs []uuid.UUID) ([]*borrowing.Borrowing, error) {
	if err := sharedvalidation.Validate(idBatch{field: "borrowing_ids", ids: borrowingIDs}); err != nil {
		return nil, err
	}

	now := e.clock()
	today := utils.DateOf(now)

	var returned []*borrowing.Borrowing
	err := e.gateway.WithinTx(ctx, func(ctx context.Context, tx borrowing.Tx) error {
		ordered, err := e.loadBorrowings(ctx, tx, borrowingIDs)
		if err != nil {
			return err
		}

		for _, br := range ordered {
			switch br.Status {
			case borrowing.StatusReturned:
				return errs.WithIDs(borrowing.ErrAlreadyReturned, br.ID)
			case borrowing.StatusLost:
				return errs.WithIDs(borrowing.ErrBorrowingClosed, br.ID)
			}
		}

		bookIDs := make([]uuid.UUID, len(ordered))
		for i, br := range ordered {
			bookIDs[i] = br.BookID
		}
		found, err := tx.FindBooksByIDs(ctx, bookIDs)
		if err != nil {
			return err
		}
		books, missing := indexBooks(found, bookIDs)
		if len(missing) > 0 {
			return errs.WithIDs(borrowing.ErrBookNotFound, missing...)
		}

		members, memberOrder, err := loadMembers(ctx, tx, ordered)
		if err != nil {
			return err
		}

		touched := make([]*book.Book, 0, len(ordered))
		for _, br := range ordered {
			br.Return(today, e.fineRate)
			br.UpdatedAt = now

			b := books[br.BookID]
			b.MarkReturned()
			b.UpdatedAt = now
			touched = append(touched, b)

			m := members[br.MemberID]
			m.EndBorrowing()
			m.UpdatedAt = now
		}

		if err := tx.UpdateBorrowings(ctx, ordered); err != nil {
			return err
		}
		if err := tx.UpdateBooks(ctx, touched); err != nil {
			return err
		}
		if err := tx.UpdateMembers(ctx, memberOrder); err != nil {
			return err
		}
		returned = ordered
		return nil
	})
	if err != nil {
		return nil, err
	}
	return returned, nil
}

// ExtendDueDate pushes the due date of a BORROWED loan by days.
func (e *Engine) ExtendDueDate(ctx context.Context, id uuid.UUID, days int) (*borrowing.Borrowing, error) {
	if days <= 0 || days > borrowing.MaxExtensionDays {
		return nil, errInvalidExtension
	}

	now := e.clock()
	var extended *borrowing.Borrowing
	err := e.gateway.WithinTx(ctx, func(ctx context.Context, tx borrowing.Tx) error {
		br, err := e.loadOne(ctx, tx, id)
		if err != nil {
			return err
		}
		if !br.ExtendDueDate(days) {
			return errs.WithIDs(borrowing.ErrBorrowingClosed, br.ID)
		}
		br.UpdatedAt = now
		if err := tx.UpdateBorrowings(ctx, []*borrowing.Borrowing{br}); err != nil {
			return err
		}
		extended = br
		return nil
	})
	if err != nil {
		return nil, err
	}
	return extended, nil
}

// MarkLost closes an open loan as LOST. The member's active count drops and
// the book becomes available again.
func (e *Engine) MarkLost(ctx context.Context, id uuid.UUID, notes string) (*borrowing.Borrowing, error) {
	now := e.clock()
	today := utils.DateOf(now)

	var lost *borrowing.Borrowing
	err := e.gateway.WithinTx(ctx, func(ctx context.Context, tx borrowing.Tx) error {
		br, err := e.loadOne(ctx, tx, id)
		if err != nil {
			return err
		}
		if br.IsClosed() {
			return errs.WithIDs(borrowing.ErrBorrowingClosed, br.ID)
		}

		// Same lock order as ReturnBooks: borrowing, book, member.
		books, err := tx.FindBooksByIDs(ctx, []uuid.UUID{br.BookID})
		if err != nil {
			return err
		}
		if len(books) == 0 {
			return errs.WithIDs(borrowing.ErrBookNotFound, br.BookID)
		}
		m, err := tx.FindMemberByID(ctx, br.MemberID)
		if err != nil {
			return err
		}

		br.MarkLost(today, e.fineRate)
		if notes != "" {
			br.Notes = notes
		}
		br.UpdatedAt = now
		m.EndBorrowing()
		m.UpdatedAt = now
		// No active borrowing references the book any more.
		b := books[0]
		b.MarkReturned()
		b.UpdatedAt = now

		if err := tx.UpdateBorrowings(ctx, []*borrowing.Borrowing{br}); err != nil {
			return err
		}
		if err := tx.UpdateBooks(ctx, []*book.Book{b}); err != nil {
			return err
		}
		if err := tx.UpdateMembers(ctx, []*member.Member{m}); err != nil {
			return err
		}
		lost = br
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lost, nil
}

// UpdateNotes replaces the notes of a borrowing in any status.
func (e *Engine) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) (*borrowing.Borrowing, error) {
	if len(notes) > borrowing.MaxNotesLength {
		return nil, errNotesTooLong
	}

	now := e.clock()
	var updated *borrowing.Borrowing
	err := e.gateway.WithinTx(ctx, func(ctx context.Context, tx borrowing.Tx) error {
		br, err := e.loadOne(ctx, tx, id)
		if err != nil {
			return err
		}
		br.Notes = notes
		br.UpdatedAt = now
		if err := tx.UpdateBorrowings(ctx, []*borrowing.Borrowing{br}); err != nil {
			return err
		}
		updated = br
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SweepOverdue flags up to limit BORROWED loans due before asOf as OVERDUE.
func (e *Engine) SweepOverdue(ctx context.Context, asOf time.Time, limit int) (int, error) {
	if limit <= 0 {
		return 0, nil
	}

	now := e.clock()
	asOf = utils.DateOf(asOf)

	var flagged int
	err := e.gateway.WithinTx(ctx, func(ctx context.Context, tx borrowing.Tx) error {
		due, err := tx.FindDueBorrowings(ctx, asOf, limit)
		if err != nil {
			return err
		}

		batch := make([]*borrowing.Borrowing, 0, len(due))
		for _, br := range due {
			if br.Status != borrowing.StatusBorrowed || !br.IsOverdue(asOf) {
				continue
			}
			br.Status = borrowing.StatusOverdue
			br.UpdatedAt = now
			batch = append(batch, br)
		}
		if len(batch) == 0 {
			return nil
		}
		if err := tx.UpdateBorrowings(ctx, batch); err != nil {
			return err
		}
		flagged = len(batch)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return flagged, nil
}

func (e *Engine) loadOne(ctx context.Context, tx borrowing.Tx, id uuid.UUID) (*borrowing.Borrowing, error) {
	found, err := e.loadBorrowings(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	return found[0], nil
}

// loadBorrowings returns the borrowings in the order of ids, or
// ErrBorrowingNotFound naming every id that did not resolve.
func (e *Engine) loadBorrowings(ctx context.Context, tx borrowing.Tx, ids []uuid.UUID) ([]*borrowing.Borrowing, error) {
	found, err := tx.FindBorrowingsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*borrowing.Borrowing, len(found))
	for _, br := range found {
		byID[br.ID] = br
	}

	ordered := make([]*borrowing.Borrowing, 0, len(ids))
	var missing []uuid.UUID
	for _, id := range ids {
		br, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		ordered = append(ordered, br)
	}
	if len(missing) > 0 {
		return nil, errs.WithIDs(borrowing.ErrBorrowingNotFound, missing...)
	}
	return ordered, nil
}

func indexBooks(found []*book.Book, ids []uuid.UUID) (map[uuid.UUID]*book.Book, []uuid.UUID) {
	byID := make(map[uuid.UUID]*book.Book, len(found))
	for _, b := range found {
		byID[b.ID] = b
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	return byID, missing
}

// loadMembers reads each distinct member once, keeping first-seen order.
func loadMembers(ctx context.Context, tx borrowing.Tx, items []*borrowing.Borrowing) (map[uuid.UUID]*member.Member, []*member.Member, error) {
	byID := make(map[uuid.UUID]*member.Member)
	var order []*member.Member
	for _, br := range items {
		if _, ok := byID[br.MemberID]; ok {
			continue
		}
		m, err := tx.FindMemberByID(ctx, br.MemberID)
		if err != nil {
			return nil, nil, err
		}
		byID[br.MemberID] = m
		order = append(order, m)
	}
	return byID, order, nil
}
