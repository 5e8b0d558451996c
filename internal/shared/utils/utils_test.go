package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOf_TruncatesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	in := time.Date(2026, 3, 10, 1, 30, 0, 0, loc) // 2026-03-09 18:30 UTC

	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), DateOf(in))
}

func TestDaysBetween(t *testing.T) {
	due := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, 3, DaysBetween(due, time.Date(2026, 3, 4, 0, 1, 0, 0, time.UTC)))
	assert.Equal(t, 0, DaysBetween(due, due))
	assert.Equal(t, -1, DaysBetween(due, time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)))
}

func TestParseUUIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	ids, err := ParseUUIDs([]string{a.String(), " " + b.String()})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)

	_, err = ParseUUIDs([]string{"not-a-uuid"})
	assert.Error(t, err)
}

func TestHasDuplicateUUIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	dup, found := HasDuplicateUUIDs([]uuid.UUID{a, b, a})
	assert.True(t, found)
	assert.Equal(t, a, dup)

	_, found = HasDuplicateUUIDs([]uuid.UUID{a, b})
	assert.False(t, found)
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID(uuid.NewString()))
	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("garbage"))
}
