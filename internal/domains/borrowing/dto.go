package borrowing

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"library-backend/internal/shared/utils"
	sharedvalidation "library-backend/internal/shared/validation"
)

const (
	DateLayout      = "2006-01-02"
	MaxBatchSize    = 20
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// distinctIDs rejects a list naming the same id twice.
var distinctIDs = validation.By(func(value interface{}) error {
	ids, _ := value.([]uuid.UUID)
	if _, dup := utils.HasDuplicateUUIDs(ids); dup {
		return errors.New("must not contain duplicates")
	}
	return nil
})

// BorrowRequest - POST /v1/borrowings
type BorrowRequest struct {
	MemberID uuid.UUID   `json:"member_id"`
	BookIDs  []uuid.UUID `json:"book_ids"`
	// DueDate is a calendar date (2006-01-02). Empty means DefaultLoanDays from today.
	DueDate string `json:"due_date"`
}

func (r BorrowRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MemberID, sharedvalidation.NotNilUUID),
		validation.Field(&r.BookIDs,
			validation.Required,
			validation.Length(1, MaxBatchSize),
			validation.Each(sharedvalidation.NotNilUUID),
			distinctIDs,
		),
		validation.Field(&r.DueDate, validation.Date(DateLayout)),
	)
}

// DueDateOr parses DueDate, falling back to today plus DefaultLoanDays.
func (r BorrowRequest) DueDateOr(today time.Time) (time.Time, error) {
	if strings.TrimSpace(r.DueDate) == "" {
		return utils.DateOf(today).AddDate(0, 0, DefaultLoanDays), nil
	}
	return time.ParseInLocation(DateLayout, r.DueDate, time.UTC)
}

// ReturnRequest - POST /v1/borrowings/return
type ReturnRequest struct {
	BorrowingIDs []uuid.UUID `json:"borrowing_ids"`
}

func (r ReturnRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BorrowingIDs,
			validation.Required,
			validation.Length(1, MaxBatchSize),
			validation.Each(sharedvalidation.NotNilUUID),
			distinctIDs,
		),
	)
}

// ExtendRequest - POST /v1/borrowings/:id/extend
type ExtendRequest struct {
	Days int `json:"days"`
}

func (r ExtendRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Days, validation.Required, validation.Min(1), validation.Max(MaxExtensionDays)),
	)
}

// NotesRequest - PATCH /v1/borrowings/:id/notes and the body of /lost.
type NotesRequest struct {
	Notes string `json:"notes"`
}

func (r NotesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Notes, validation.Length(0, MaxNotesLength)),
	)
}

// BorrowingFilter - GET /v1/borrowings query
type BorrowingFilter struct {
	MemberID string `form:"member_id"`
	BookID   string `form:"book_id"`
	Status   string `form:"status"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

func (f *BorrowingFilter) Normalize() error {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Status = strings.ToUpper(strings.TrimSpace(f.Status))
	if f.Status != "" && !Status(f.Status).IsValid() {
		return ErrInvalidStatus
	}
	if f.MemberID != "" && !utils.IsValidUUID(f.MemberID) {
		return ErrInvalidFilter
	}
	if f.BookID != "" && !utils.IsValidUUID(f.BookID) {
		return ErrInvalidFilter
	}
	return nil
}

// OverdueItem is one row of the overdue report.
type OverdueItem struct {
	BorrowingID uuid.UUID       `json:"borrowing_id" db:"borrowing_id"`
	MemberID    uuid.UUID       `json:"member_id" db:"member_id"`
	MemberName  string          `json:"member_name" db:"member_name"`
	MemberEmail string          `json:"member_email" db:"member_email"`
	BookID      uuid.UUID       `json:"book_id" db:"book_id"`
	BookTitle   string          `json:"book_title" db:"book_title"`
	DueDate     time.Time       `json:"due_date" db:"due_date"`
	Status      Status          `json:"status" db:"status"`
	DaysOverdue int             `json:"days_overdue" db:"-"`
	AccruedFine decimal.Decimal `json:"accrued_fine" db:"-"`
}

// Stats summarises the borrowings table.
type Stats struct {
	ByStatus   map[Status]int  `json:"by_status"`
	TotalFines decimal.Decimal `json:"total_fines"`
}

type BorrowingResponse struct {
	ID         uuid.UUID       `json:"id"`
	MemberID   uuid.UUID       `json:"member_id"`
	BookID     uuid.UUID       `json:"book_id"`
	BorrowDate string          `json:"borrow_date"`
	DueDate    string          `json:"due_date"`
	ReturnDate *string         `json:"return_date,omitempty"`
	Status     Status          `json:"status"`
	FineAmount decimal.Decimal `json:"fine_amount"`
	Notes      string          `json:"notes,omitempty"`
	Version    int             `json:"version"`
}

func (b *Borrowing) ToResponse() BorrowingResponse {
	resp := BorrowingResponse{
		ID:         b.ID,
		MemberID:   b.MemberID,
		BookID:     b.BookID,
		BorrowDate: b.BorrowDate.Format(DateLayout),
		DueDate:    b.DueDate.Format(DateLayout),
		Status:     b.Status,
		FineAmount: b.FineAmount,
		Notes:      b.Notes,
		Version:    b.Version,
	}
	if b.ReturnDate != nil {
		rd := b.ReturnDate.Format(DateLayout)
		resp.ReturnDate = &rd
	}
	return resp
}

func ToResponses(items []*Borrowing) []BorrowingResponse {
	out := make([]BorrowingResponse, len(items))
	for i, b := range items {
		out[i] = b.ToResponse()
	}
	return out
}
