package author

import (
	"time"

	"github.com/google/uuid"
)

// Author represents a writer linked to books through book_authors.
type Author struct {
	ID uuid.UUID `json:"id" db:"id"`

	Name        string  `json:"name" db:"name"`
	Biography   *string `json:"biography" db:"biography"`
	Nationality string  `json:"nationality" db:"nationality"`
	BirthYear   *int    `json:"birth_year" db:"birth_year"`

	// Versioning for optimistic locking
	Version int `json:"version" db:"version"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasBiography checks if author has a biography
func (a *Author) HasBiography() bool {
	return a.Biography != nil && *a.Biography != ""
}

const (
	cacheKeyPrefix = "author:"

	// ListCachePattern matches every cached author listing.
	ListCachePattern = "authors:list:*"
)

func CacheKey(id uuid.UUID) string {
	return cacheKeyPrefix + id.String()
}
