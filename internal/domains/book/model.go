package book

import (
	"time"

	"github.com/google/uuid"
)

// Book is a lendable title. One row is one physical copy.
type Book struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Title    string    `json:"title" db:"title"`
	ISBN     string    `json:"isbn" db:"isbn"`
	Category string    `json:"category" db:"category"`

	// Available is false while an active borrowing references the book.
	Available bool `json:"available" db:"available"`

	// BorrowCount grows by one per borrowing, used for popularity ranking.
	BorrowCount int `json:"borrow_count" db:"borrow_count"`

	// AuthorIDs mirrors the book_authors join table.
	AuthorIDs []uuid.UUID `json:"author_ids" db:"-"`

	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MarkBorrowed flips availability off and counts the loan.
func (b *Book) MarkBorrowed() {
	b.Available = false
	b.BorrowCount++
}

// MarkReturned makes the book lendable again.
func (b *Book) MarkReturned() {
	b.Available = true
}

// Clone returns a deep copy safe to mutate.
func (b *Book) Clone() *Book {
	cp := *b
	cp.AuthorIDs = append([]uuid.UUID(nil), b.AuthorIDs...)
	return &cp
}

const (
	cacheKeyPrefix = "book:"

	// ListCachePattern matches every cached book listing.
	ListCachePattern = "books:list:*"
)

// CacheKey is the cache entry holding the book with the given id.
func CacheKey(id uuid.UUID) string {
	return cacheKeyPrefix + id.String()
}
