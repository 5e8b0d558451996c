package borrowing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"library-backend/internal/shared/utils"
)

type Status string

const (
	StatusBorrowed Status = "BORROWED"
	StatusReturned Status = "RETURNED"
	StatusOverdue  Status = "OVERDUE"
	StatusLost     Status = "LOST"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusBorrowed, StatusReturned, StatusOverdue, StatusLost:
		return true
	}
	return false
}

// IsActive is true for loans still out: BORROWED or OVERDUE.
func (s Status) IsActive() bool {
	return s == StatusBorrowed || s == StatusOverdue
}

const MaxNotesLength = 500

// Borrowing is the loan of one book to one member. Rows are never deleted.
type Borrowing struct {
	ID       uuid.UUID `json:"id" db:"id"`
	MemberID uuid.UUID `json:"member_id" db:"member_id"`
	BookID   uuid.UUID `json:"book_id" db:"book_id"`

	BorrowDate time.Time  `json:"borrow_date" db:"borrow_date"`
	DueDate    time.Time  `json:"due_date" db:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty" db:"return_date"`

	Status     Status          `json:"status" db:"status"`
	FineAmount decimal.Decimal `json:"fine_amount" db:"fine_amount"`
	Notes      string          `json:"notes" db:"notes"`

	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// New opens a BORROWED loan dated today.
func New(memberID, bookID uuid.UUID, today, dueDate time.Time) *Borrowing {
	return &Borrowing{
		ID:         uuid.New(),
		MemberID:   memberID,
		BookID:     bookID,
		BorrowDate: utils.DateOf(today),
		DueDate:    utils.DateOf(dueDate),
		Status:     StatusBorrowed,
		FineAmount: decimal.Zero,
		CreatedAt:  today,
		UpdatedAt:  today,
	}
}

// IsClosed is true once RETURNED or LOST. Only notes may change afterwards.
func (b *Borrowing) IsClosed() bool {
	return b.Status == StatusReturned || b.Status == StatusLost
}

// IsOverdue reports whether today is strictly after the due date on an open loan.
func (b *Borrowing) IsOverdue(today time.Time) bool {
	if b.IsClosed() {
		return false
	}
	return utils.DaysBetween(b.DueDate, today) > 0
}

// DaysOverdue is zero unless the loan is overdue.
func (b *Borrowing) DaysOverdue(today time.Time) int {
	if !b.IsOverdue(today) {
		return 0
	}
	return utils.DaysBetween(b.DueDate, today)
}

// CalculateFine is DaysOverdue times rate. It does not mutate the loan.
func (b *Borrowing) CalculateFine(today time.Time, rate decimal.Decimal) decimal.Decimal {
	days := b.DaysOverdue(today)
	if days == 0 {
		return decimal.Zero
	}
	return rate.Mul(decimal.NewFromInt(int64(days)))
}

// Return closes the loan and records any fine owed.
func (b *Borrowing) Return(today time.Time, rate decimal.Decimal) {
	fine := b.CalculateFine(today, rate)
	returned := utils.DateOf(today)
	b.ReturnDate = &returned
	b.Status = StatusReturned
	b.FineAmount = fine
}

// MarkLost closes the loan as LOST, charging the fine accrued so far.
func (b *Borrowing) MarkLost(today time.Time, rate decimal.Decimal) {
	b.FineAmount = b.CalculateFine(today, rate)
	b.Status = StatusLost
}

// ExtendDueDate pushes the due date; only BORROWED loans can be extended.
func (b *Borrowing) ExtendDueDate(days int) bool {
	if b.Status != StatusBorrowed || days <= 0 {
		return false
	}
	b.DueDate = b.DueDate.AddDate(0, 0, days)
	return true
}

func (b *Borrowing) Clone() *Borrowing {
	cp := *b
	if b.ReturnDate != nil {
		rd := *b.ReturnDate
		cp.ReturnDate = &rd
	}
	return &cp
}
