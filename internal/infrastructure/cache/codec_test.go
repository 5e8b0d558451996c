package cache

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedLoan struct {
	ID      uuid.UUID       `json:"id"`
	Fine    decimal.Decimal `json:"fine"`
	DueDate time.Time       `json:"due_date"`
	Notes   *string         `json:"notes,omitempty"`
}

func TestCodec_KeepsDomainTypes(t *testing.T) {
	in := cachedLoan{
		ID:      uuid.New(),
		Fine:    decimal.RequireFromString("15000"),
		DueDate: time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
	}

	data, err := Encode(in)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "notes")

	var out cachedLoan
	require.NoError(t, Decode(data, &out))
	assert.Equal(t, in.ID, out.ID)
	assert.True(t, in.Fine.Equal(out.Fine))
	assert.True(t, in.DueDate.Equal(out.DueDate))
}

func TestCodec_PreEncodedValuesPassThrough(t *testing.T) {
	data, err := Encode(`{"id":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"x"}`, string(data))

	data, err = Encode([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "raw", string(data))
}

func TestCodec_DecodeRejectsWrongShape(t *testing.T) {
	var out cachedLoan
	assert.Error(t, Decode([]byte(`{"fine":"not-a-number"}`), &out))
}
