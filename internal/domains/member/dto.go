package member

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

const (
	MaxNameLength    = 255
	MaxAddressLength = 500
	DefaultPageSize  = 20
	MaxPageSize      = 100
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()-]{6,20}$`)

// CreateMemberRequest - POST /v1/members
type CreateMemberRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (r CreateMemberRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, MaxNameLength)),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Phone, validation.Match(phonePattern)),
		validation.Field(&r.Address, validation.Length(0, MaxAddressLength)),
	)
}

// ToEntity builds an ACTIVE member joining today.
func (r CreateMemberRequest) ToEntity(now time.Time) *Member {
	return &Member{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(r.Name),
		Email:     NormalizeEmail(r.Email),
		Phone:     strings.TrimSpace(r.Phone),
		Address:   strings.TrimSpace(r.Address),
		JoinDate:  now,
		Status:    StatusActive,
		UpdatedAt: now,
	}
}

// UpdateMemberRequest - PUT /v1/members/:id
type UpdateMemberRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Version int     `json:"version"`
}

func (r UpdateMemberRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(2, MaxNameLength)),
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.EmailFormat),
		validation.Field(&r.Phone, validation.Match(phonePattern)),
		validation.Field(&r.Address, validation.Length(0, MaxAddressLength)),
		validation.Field(&r.Version, validation.Min(0)),
	)
}

func (r UpdateMemberRequest) ApplyTo(m *Member) {
	if r.Name != nil {
		m.Name = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		m.Email = NormalizeEmail(*r.Email)
	}
	if r.Phone != nil {
		m.Phone = strings.TrimSpace(*r.Phone)
	}
	if r.Address != nil {
		m.Address = strings.TrimSpace(*r.Address)
	}
}

// ChangeStatusRequest - PATCH /v1/members/:id/status
type ChangeStatusRequest struct {
	Status  Status `json:"status"`
	Version int    `json:"version"`
}

func (r ChangeStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.In(StatusActive, StatusSuspended, StatusInactive)),
		validation.Field(&r.Version, validation.Min(0)),
	)
}

// MemberFilter - GET /v1/members query
type MemberFilter struct {
	Name   string `form:"name"`
	Email  string `form:"email"`
	Phone  string `form:"phone"`
	Status Status `form:"status"`
	SortBy string `form:"sort_by"` // name, join_date, total_borrowed
	Order  string `form:"order"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

var sortColumns = map[string]bool{
	"name":           true,
	"join_date":      true,
	"total_borrowed": true,
}

func (f *MemberFilter) Normalize() error {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Status != "" && !f.Status.IsValid() {
		return ErrInvalidStatus
	}
	if f.SortBy == "" {
		f.SortBy = "join_date"
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

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type MemberResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	Address          string    `json:"address,omitempty"`
	JoinDate         time.Time `json:"join_date"`
	Status           Status    `json:"status"`
	ActiveBorrowings int       `json:"active_borrowings"`
	TotalBorrowed    int       `json:"total_borrowed"`
	Version          int       `json:"version"`
}

func (m *Member) ToResponse() MemberResponse {
	return MemberResponse{
		ID:               m.ID,
		Name:             m.Name,
		Email:            m.Email,
		Phone:            m.Phone,
		Address:          m.Address,
		JoinDate:         m.JoinDate,
		Status:           m.Status,
		ActiveBorrowings: m.ActiveBorrowings,
		TotalBorrowed:    m.TotalBorrowed,
		Version:          m.Version,
	}
}
