package book

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	sharedvalidation "library-backend/internal/shared/validation"
)

const (
	MaxTitleLength    = 255
	MaxISBNLength     = 20
	MaxCategoryLength = 100
	DefaultPageSize   = 20
	MaxPageSize       = 100
)

var isbnPattern = regexp.MustCompile(`^[0-9][0-9-]{8,18}[0-9Xx]$`)

// CreateBookRequest - POST /v1/books
type CreateBookRequest struct {
	Title     string      `json:"title"`
	ISBN      string      `json:"isbn"`
	Category  string      `json:"category"`
	AuthorIDs []uuid.UUID `json:"author_ids"`
}

func (r CreateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, MaxTitleLength)),
		validation.Field(&r.ISBN, validation.Required, validation.Length(10, MaxISBNLength), validation.Match(isbnPattern)),
		validation.Field(&r.Category, validation.Length(0, MaxCategoryLength)),
		validation.Field(&r.AuthorIDs, validation.Each(sharedvalidation.NotNilUUID)),
	)
}

// ToEntity builds a new, available book.
func (r CreateBookRequest) ToEntity(now time.Time) *Book {
	return &Book{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(r.Title),
		ISBN:      NormalizeISBN(r.ISBN),
		Category:  strings.TrimSpace(r.Category),
		Available: true,
		AuthorIDs: append([]uuid.UUID(nil), r.AuthorIDs...),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateBookRequest - PUT /v1/books/:id
// Nil fields are left unchanged.
type UpdateBookRequest struct {
	Title     *string      `json:"title,omitempty"`
	ISBN      *string      `json:"isbn,omitempty"`
	Category  *string      `json:"category,omitempty"`
	AuthorIDs *[]uuid.UUID `json:"author_ids,omitempty"`
	Version   int          `json:"version"`
}

func (r UpdateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, MaxTitleLength)),
		validation.Field(&r.ISBN, validation.NilOrNotEmpty, validation.Length(10, MaxISBNLength), validation.Match(isbnPattern)),
		validation.Field(&r.Category, validation.Length(0, MaxCategoryLength)),
		validation.Field(&r.Version, validation.Min(0)),
	)
}

// ApplyTo copies the set fields onto b.
func (r UpdateBookRequest) ApplyTo(b *Book) {
	if r.Title != nil {
		b.Title = strings.TrimSpace(*r.Title)
	}
	if r.ISBN != nil {
		b.ISBN = NormalizeISBN(*r.ISBN)
	}
	if r.Category != nil {
		b.Category = strings.TrimSpace(*r.Category)
	}
	if r.AuthorIDs != nil {
		b.AuthorIDs = append([]uuid.UUID(nil), (*r.AuthorIDs)...)
	}
}

// BookFilter - GET /v1/books query
type BookFilter struct {
	Title     string `form:"title"`
	Category  string `form:"category"`
	Available *bool  `form:"available"`
	AuthorID  string `form:"author_id"`
	SortBy    string `form:"sort_by"` // title, created_at, borrow_count
	Order     string `form:"order"`   // asc, desc
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

var sortColumns = map[string]bool{
	"title":        true,
	"created_at":   true,
	"borrow_count": true,
}

// Normalize applies paging defaults and rejects unknown sort columns.
func (f *BookFilter) Normalize() error {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.SortBy == "" {
		f.SortBy = "created_at"
	}
	if !sortColumns[f.SortBy] {
		return ErrInvalidSort
	}
	f.Order = strings.ToLower(f.Order)
	if f.Order != "asc" {
		f.Order = "desc"
	}
	return nil
}

// NormalizeISBN drops spaces and upper-cases a trailing X check digit.
func NormalizeISBN(isbn string) string {
	isbn = strings.TrimSpace(isbn)
	isbn = strings.ReplaceAll(isbn, " ", "")
	return strings.ToUpper(isbn)
}

type BookResponse struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	ISBN        string      `json:"isbn"`
	Category    string      `json:"category"`
	Available   bool        `json:"available"`
	BorrowCount int         `json:"borrow_count"`
	AuthorIDs   []uuid.UUID `json:"author_ids"`
	Version     int         `json:"version"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (b *Book) ToResponse() BookResponse {
	return BookResponse{
		ID:          b.ID,
		Title:       b.Title,
		ISBN:        b.ISBN,
		Category:    b.Category,
		Available:   b.Available,
		BorrowCount: b.BorrowCount,
		AuthorIDs:   b.AuthorIDs,
		Version:     b.Version,
		CreatedAt:   b.CreatedAt,
	}
}
