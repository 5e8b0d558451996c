package borrowing

import "github.com/shopspring/decimal"

const (
	// DefaultCeiling is the most borrowings a member may hold at once.
	DefaultCeiling = 5

	// DefaultLoanDays is used when a borrow request carries no due date.
	DefaultLoanDays = 14

	// MaxExtensionDays bounds a single due date extension.
	MaxExtensionDays = 30
)

// DefaultFineRate is charged per calendar day overdue, in minor currency units.
var DefaultFineRate = decimal.NewFromInt(5000)

// CanBorrow reports whether a member holding active loans may take requested more.
func CanBorrow(active, requested, ceiling int) bool {
	return active+requested <= ceiling
}
