package author

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Constants for validation
const (
	MaxNameLength        = 255
	MinNameLength        = 2
	MaxBioLength         = 5000
	MaxNationalityLength = 100
	MinBirthYear         = 1
)

// CreateAuthorRequest - POST /v1/authors
type CreateAuthorRequest struct {
	Name        string  `json:"name"`
	Biography   *string `json:"biography,omitempty"`
	Nationality string  `json:"nationality"`
	BirthYear   *int    `json:"birth_year,omitempty"`
}

func (r CreateAuthorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(MinNameLength, MaxNameLength)),
		validation.Field(&r.Biography, validation.Length(0, MaxBioLength)),
		validation.Field(&r.Nationality, validation.Length(0, MaxNationalityLength)),
		validation.Field(&r.BirthYear, validation.Min(MinBirthYear), validation.Max(time.Now().Year())),
	)
}

// ToEntity converts CreateAuthorRequest to Author entity
func (r CreateAuthorRequest) ToEntity(now time.Time) *Author {
	return &Author{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(r.Name),
		Biography:   r.Biography,
		Nationality: strings.TrimSpace(r.Nationality),
		BirthYear:   r.BirthYear,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdateAuthorRequest - PUT /v1/authors/:id
// All fields optional for partial updates
type UpdateAuthorRequest struct {
	Name        *string `json:"name,omitempty"`
	Biography   *string `json:"biography,omitempty"`
	Nationality *string `json:"nationality,omitempty"`
	BirthYear   *int    `json:"birth_year,omitempty"`
	Version     int     `json:"version"` // Required for conflict detection
}

func (r UpdateAuthorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(MinNameLength, MaxNameLength)),
		validation.Field(&r.Biography, validation.Length(0, MaxBioLength)),
		validation.Field(&r.Nationality, validation.Length(0, MaxNationalityLength)),
		validation.Field(&r.BirthYear, validation.Min(MinBirthYear), validation.Max(time.Now().Year())),
		validation.Field(&r.Version, validation.Min(0)),
	)
}

// ApplyToEntity applies UpdateAuthorRequest to existing Author entity
func (r UpdateAuthorRequest) ApplyToEntity(a *Author) {
	if r.Name != nil {
		a.Name = strings.TrimSpace(*r.Name)
	}
	if r.Biography != nil {
		a.Biography = r.Biography
	}
	if r.Nationality != nil {
		a.Nationality = strings.TrimSpace(*r.Nationality)
	}
	if r.BirthYear != nil {
		a.BirthYear = r.BirthYear
	}
}

// AuthorFilter - Query parameters for search/filter
type AuthorFilter struct {
	Name        string `form:"name"`        // Partial name search
	Nationality string `form:"nationality"` // Exact, case-insensitive
	SortBy      string `form:"sort_by"`     // name, created_at, birth_year
	Order       string `form:"order"`       // asc, desc
	Limit       int    `form:"limit"`
	Offset      int    `form:"offset"`
}

var sortColumns = map[string]bool{
	"name":       true,
	"created_at": true,
	"birth_year": true,
}

func (f *AuthorFilter) Normalize() error {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
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

// AuthorResponse - Basic author information
type AuthorResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Biography   *string   `json:"biography,omitempty"`
	Nationality string    `json:"nationality,omitempty"`
	BirthYear   *int      `json:"birth_year,omitempty"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuthorDetailResponse - author with linked book count
type AuthorDetailResponse struct {
	AuthorResponse
	BookCount int `json:"book_count"`
}

func (a *Author) ToResponse() AuthorResponse {
	return AuthorResponse{
		ID:          a.ID,
		Name:        a.Name,
		Biography:   a.Biography,
		Nationality: a.Nationality,
		BirthYear:   a.BirthYear,
		Version:     a.Version,
		CreatedAt:   a.CreatedAt,
	}
}

func (a *Author) ToDetailResponse(bookCount int) AuthorDetailResponse {
	return AuthorDetailResponse{
		AuthorResponse: a.ToResponse(),
		BookCount:      bookCount,
	}
}
