// Package memstore keeps library records in process memory. It implements
// the borrowing gateway with optimistic, version-checked commits and serves
// the borrowing read side, which makes it the store behind the engine tests
// and the CLI's --memory mode.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"library-backend/internal/domains/author"
	"library-backend/internal/domains/book"
	"library-backend/internal/domains/borrowing"
	"library-backend/internal/domains/member"
	"library-backend/internal/shared/errs"
)

// Operation names accepted by FailOn.
const (
	OpFindBooks        = "FindBooksByIDs"
	OpFindMember       = "FindMemberByID"
	OpFindBorrowings   = "FindBorrowingsByIDs"
	OpCountActive      = "CountActiveBorrowings"
	OpFindDue          = "FindDueBorrowings"
	OpSaveBorrowings   = "SaveBorrowings"
	OpUpdateBorrowings = "UpdateBorrowings"
	OpUpdateBooks      = "UpdateBooks"
	OpUpdateMembers    = "UpdateMembers"
	OpCommit           = "Commit"
)

// Store is an arena of records keyed by id. Relations are ids only; the
// book_authors join is its own table.
type Store struct {
	mu sync.Mutex

	books       map[uuid.UUID]*book.Book
	members     map[uuid.UUID]*member.Member
	authors     map[uuid.UUID]*author.Author
	borrowings  map[uuid.UUID]*borrowing.Borrowing
	bookAuthors map[uuid.UUID]map[uuid.UUID]struct{}

	faults  map[string]error
	commits int
}

var (
	_ borrowing.Gateway    = (*Store)(nil)
	_ borrowing.Repository = (*Store)(nil)
)

func New() *Store {
	return &Store{
		books:       make(map[uuid.UUID]*book.Book),
		members:     make(map[uuid.UUID]*member.Member),
		authors:     make(map[uuid.UUID]*author.Author),
		borrowings:  make(map[uuid.UUID]*borrowing.Borrowing),
		bookAuthors: make(map[uuid.UUID]map[uuid.UUID]struct{}),
		faults:      make(map[string]error),
	}
}

// FailOn makes every later call of op return err. A nil err clears the fault.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// Commits counts successful transactions.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *Store) fault(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.faults[op]; ok {
		return errs.Storage(op, err)
	}
	return nil
}

// PutBook stores a copy of b and replaces its author links.
func (s *Store) PutBook(b *book.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[b.ID] = b.Clone()
	links := make(map[uuid.UUID]struct{}, len(b.AuthorIDs))
	for _, id := range b.AuthorIDs {
		links[id] = struct{}{}
	}
	s.bookAuthors[b.ID] = links
}

func (s *Store) PutMember(m *member.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = m.Clone()
}

func (s *Store) PutAuthor(a *author.Author) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.authors[a.ID] = &cp
}

func (s *Store) PutBorrowing(b *borrowing.Borrowing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.borrowings[b.ID] = b.Clone()
}

// LinkAuthor adds a book_authors row.
func (s *Store) LinkAuthor(bookID, authorID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	links, ok := s.bookAuthors[bookID]
	if !ok {
		links = make(map[uuid.UUID]struct{})
		s.bookAuthors[bookID] = links
	}
	links[authorID] = struct{}{}
}

// BookCountOf counts the books linked to an author.
func (s *Store) BookCountOf(authorID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, links := range s.bookAuthors {
		if _, ok := links[authorID]; ok {
			n++
		}
	}
	return n
}

func (s *Store) Book(id uuid.UUID) (*book.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, false
	}
	cp := b.Clone()
	cp.AuthorIDs = sortedIDs(s.bookAuthors[id])
	return cp, true
}

func (s *Store) Member(id uuid.UUID) (*member.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

func (s *Store) Borrowing(id uuid.UUID) (*borrowing.Borrowing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.borrowings[id]
	if !ok {
		return nil, false
	}
	return b.Clone(), true
}

// BorrowingCount is the number of stored borrowings.
func (s *Store) BorrowingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.borrowings)
}

// WithinTx runs fn against a transaction that buffers writes and commits
// them only if fn succeeds and every written row still has the version it
// was read with.
func (s *Store) WithinTx(ctx context.Context, fn borrowing.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := newTx(s)
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := s.fault(OpCommit); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *Store) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, w := range tx.books {
		cur, ok := s.books[id]
		if !ok {
			return errs.WithIDs(errs.ErrBookNotFound, id)
		}
		if cur.Version != w.readVersion {
			return fmt.Errorf("%w: book %s", errs.ErrConcurrentModification, id)
		}
	}
	for id, w := range tx.members {
		cur, ok := s.members[id]
		if !ok {
			return errs.WithIDs(errs.ErrMemberNotFound, id)
		}
		if cur.Version != w.readVersion {
			return fmt.Errorf("%w: member %s", errs.ErrConcurrentModification, id)
		}
	}
	for id, w := range tx.borrowings {
		cur, ok := s.borrowings[id]
		if w.inserted {
			if ok {
				return fmt.Errorf("%w: borrowing %s", errs.ErrDuplicateKey, id)
			}
			continue
		}
		if !ok {
			return errs.WithIDs(errs.ErrBorrowingNotFound, id)
		}
		if cur.Version != w.readVersion {
			return fmt.Errorf("%w: borrowing %s", errs.ErrConcurrentModification, id)
		}
	}

	for id, w := range tx.books {
		s.books[id] = w.row.Clone()
	}
	for id, w := range tx.members {
		s.members[id] = w.row.Clone()
	}
	for id, w := range tx.borrowings {
		s.borrowings[id] = w.row.Clone()
	}
	s.commits++
	return nil
}

// GetByID implements borrowing.Repository.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*borrowing.Borrowing, error) {
	b, ok := s.Borrowing(id)
	if !ok {
		return nil, errs.WithIDs(errs.ErrBorrowingNotFound, id)
	}
	return b, nil
}

func (s *Store) List(ctx context.Context, filter borrowing.BorrowingFilter) ([]borrowing.Borrowing, int64, error) {
	if err := filter.Normalize(); err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	var matched []borrowing.Borrowing
	for _, b := range s.borrowings {
		if filter.MemberID != "" && b.MemberID.String() != filter.MemberID {
			continue
		}
		if filter.BookID != "" && b.BookID.String() != filter.BookID {
			continue
		}
		if filter.Status != "" && string(b.Status) != filter.Status {
			continue
		}
		matched = append(matched, *b.Clone())
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []borrowing.Borrowing{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], total, nil
}

func (s *Store) ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]borrowing.OverdueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []borrowing.OverdueItem
	for _, b := range s.borrowings {
		if !b.IsOverdue(asOf) {
			continue
		}
		item := borrowing.OverdueItem{
			BorrowingID: b.ID,
			MemberID:    b.MemberID,
			BookID:      b.BookID,
			DueDate:     b.DueDate,
			Status:      b.Status,
		}
		if m, ok := s.members[b.MemberID]; ok {
			item.MemberName = m.Name
			item.MemberEmail = m.Email
		}
		if bk, ok := s.books[b.BookID]; ok {
			item.BookTitle = bk.Title
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].DueDate.Equal(items[j].DueDate) {
			return items[i].DueDate.Before(items[j].DueDate)
		}
		return items[i].BorrowingID.String() < items[j].BorrowingID.String()
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) CountByStatus(ctx context.Context) (map[borrowing.Status]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[borrowing.Status]int)
	for _, b := range s.borrowings {
		counts[b.Status]++
	}
	return counts, nil
}

func (s *Store) TotalFines(ctx context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, b := range s.borrowings {
		total = total.Add(b.FineAmount)
	}
	return total, nil
}

func sortedIDs(set map[uuid.UUID]struct{}) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
