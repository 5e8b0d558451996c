package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestWithCorrelationID_TagsContextLogger(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })

	ctx := WithCorrelationID(context.Background(), "req-42")
	FromContext(ctx).Info().Msg("borrowed")

	assert.Equal(t, "req-42", CorrelationID(ctx))
	assert.Contains(t, buf.String(), `"correlation_id":"req-42"`)
}

func TestFromContext_FallsBackToGlobal(t *testing.T) {
	assert.Equal(t, "", CorrelationID(context.Background()))
	assert.Same(t, &log.Logger, FromContext(context.Background()))
}

func TestNewCorrelationID_Unique(t *testing.T) {
	assert.NotEqual(t, NewCorrelationID(), NewCorrelationID())
}
