package member

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusInactive  Status = "INACTIVE"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusInactive:
		return true
	}
	return false
}

// Member is a library patron.
type Member struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Email    string    `json:"email" db:"email"`
	Phone    string    `json:"phone" db:"phone"`
	Address  string    `json:"address" db:"address"`
	JoinDate time.Time `json:"join_date" db:"join_date"`
	Status   Status    `json:"status" db:"status"`

	// ActiveBorrowings counts BORROWED and OVERDUE borrowings.
	ActiveBorrowings int `json:"active_borrowings" db:"active_borrowings"`
	TotalBorrowed    int `json:"total_borrowed" db:"total_borrowed"`

	Version   int       `json:"version" db:"version"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsEligible reports whether the member may open another borrowing.
func (m *Member) IsEligible(ceiling int) bool {
	return m.Status == StatusActive && m.ActiveBorrowings < ceiling
}

// StartBorrowings records n new loans.
func (m *Member) StartBorrowings(n int) {
	m.ActiveBorrowings += n
	m.TotalBorrowed += n
}

// EndBorrowing records one closed loan. The count never goes below zero.
func (m *Member) EndBorrowing() {
	if m.ActiveBorrowings > 0 {
		m.ActiveBorrowings--
	}
}

func (m *Member) Clone() *Member {
	cp := *m
	return &cp
}

const cacheKeyPrefix = "member:"

func CacheKey(id uuid.UUID) string {
	return cacheKeyPrefix + id.String()
}
