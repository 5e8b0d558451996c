package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/book"
	"library-backend/internal/domains/borrowing"
	"library-backend/internal/domains/member"
	"library-backend/internal/shared/errs"
)

type staged[T any] struct {
	row         T
	readVersion int
	inserted    bool
}

// memTx buffers writes until commit. Reads see the transaction's own writes.
type memTx struct {
	store *Store

	books      map[uuid.UUID]staged[*book.Book]
	members    map[uuid.UUID]staged[*member.Member]
	borrowings map[uuid.UUID]staged[*borrowing.Borrowing]
}

var _ borrowing.Tx = (*memTx)(nil)

func newTx(s *Store) *memTx {
	return &memTx{
		store:      s,
		books:      make(map[uuid.UUID]staged[*book.Book]),
		members:    make(map[uuid.UUID]staged[*member.Member]),
		borrowings: make(map[uuid.UUID]staged[*borrowing.Borrowing]),
	}
}

func (t *memTx) FindBooksByIDs(ctx context.Context, ids []uuid.UUID) ([]*book.Book, error) {
	if err := t.store.fault(OpFindBooks); err != nil {
		return nil, err
	}
	out := make([]*book.Book, 0, len(ids))
	for _, id := range ids {
		if w, ok := t.books[id]; ok {
			out = append(out, w.row.Clone())
			continue
		}
		if b, ok := t.store.Book(id); ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *memTx) FindMemberByID(ctx context.Context, id uuid.UUID) (*member.Member, error) {
	if err := t.store.fault(OpFindMember); err != nil {
		return nil, err
	}
	if w, ok := t.members[id]; ok {
		return w.row.Clone(), nil
	}
	m, ok := t.store.Member(id)
	if !ok {
		return nil, errs.ErrMemberNotFound
	}
	return m, nil
}

func (t *memTx) FindBorrowingsByIDs(ctx context.Context, ids []uuid.UUID) ([]*borrowing.Borrowing, error) {
	if err := t.store.fault(OpFindBorrowings); err != nil {
		return nil, err
	}
	out := make([]*borrowing.Borrowing, 0, len(ids))
	for _, id := range ids {
		if w, ok := t.borrowings[id]; ok {
			out = append(out, w.row.Clone())
			continue
		}
		if b, ok := t.store.Borrowing(id); ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *memTx) CountActiveBorrowings(ctx context.Context, memberID uuid.UUID) (int, error) {
	if err := t.store.fault(OpCountActive); err != nil {
		return 0, err
	}
	n := 0
	for _, b := range t.view() {
		if b.MemberID == memberID && b.Status.IsActive() {
			n++
		}
	}
	return n, nil
}

func (t *memTx) FindDueBorrowings(ctx context.Context, asOf time.Time, limit int) ([]*borrowing.Borrowing, error) {
	if err := t.store.fault(OpFindDue); err != nil {
		return nil, err
	}
	var due []*borrowing.Borrowing
	for _, b := range t.view() {
		if b.Status == borrowing.StatusBorrowed && b.DueDate.Before(asOf) {
			due = append(due, b)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].DueDate.Equal(due[j].DueDate) {
			return due[i].DueDate.Before(due[j].DueDate)
		}
		return due[i].ID.String() < due[j].ID.String()
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (t *memTx) SaveBorrowings(ctx context.Context, items []*borrowing.Borrowing) error {
	if err := t.store.fault(OpSaveBorrowings); err != nil {
		return err
	}
	for _, b := range items {
		if _, exists := t.store.Borrowing(b.ID); exists {
			return errs.WithIDs(errs.ErrDuplicateKey, b.ID)
		}
		if _, exists := t.borrowings[b.ID]; exists {
			return errs.WithIDs(errs.ErrDuplicateKey, b.ID)
		}
		b.Version = 1
		t.borrowings[b.ID] = staged[*borrowing.Borrowing]{row: b.Clone(), inserted: true}
	}
	return nil
}

func (t *memTx) UpdateBorrowings(ctx context.Context, items []*borrowing.Borrowing) error {
	if err := t.store.fault(OpUpdateBorrowings); err != nil {
		return err
	}
	for _, b := range items {
		w, ok := t.borrowings[b.ID]
		if !ok {
			w = staged[*borrowing.Borrowing]{readVersion: b.Version}
		} else if !w.inserted && w.row.Version != b.Version {
			return errs.ErrConcurrentModification
		}
		if !w.inserted {
			b.Version++
		}
		w.row = b.Clone()
		t.borrowings[b.ID] = w
	}
	return nil
}

func (t *memTx) UpdateBooks(ctx context.Context, items []*book.Book) error {
	if err := t.store.fault(OpUpdateBooks); err != nil {
		return err
	}
	for _, b := range items {
		w, ok := t.books[b.ID]
		if !ok {
			w = staged[*book.Book]{readVersion: b.Version}
		} else if w.row.Version != b.Version {
			return errs.ErrConcurrentModification
		}
		b.Version++
		w.row = b.Clone()
		t.books[b.ID] = w
	}
	return nil
}

func (t *memTx) UpdateMembers(ctx context.Context, items []*member.Member) error {
	if err := t.store.fault(OpUpdateMembers); err != nil {
		return err
	}
	for _, m := range items {
		w, ok := t.members[m.ID]
		if !ok {
			w = staged[*member.Member]{readVersion: m.Version}
		} else if w.row.Version != m.Version {
			return errs.ErrConcurrentModification
		}
		m.Version++
		w.row = m.Clone()
		t.members[m.ID] = w
	}
	return nil
}

// view merges committed borrowings with the transaction's writes.
func (t *memTx) view() []*borrowing.Borrowing {
	t.store.mu.Lock()
	merged := make(map[uuid.UUID]*borrowing.Borrowing, len(t.store.borrowings)+len(t.borrowings))
	for id, b := range t.store.borrowings {
		merged[id] = b.Clone()
	}
	t.store.mu.Unlock()

	for id, w := range t.borrowings {
		merged[id] = w.row.Clone()
	}
	out := make([]*borrowing.Borrowing, 0, len(merged))
	for _, b := range merged {
		out = append(out, b)
	}
	return out
}
