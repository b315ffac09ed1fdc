package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "json", Output: &buf}).With(String("component", "positioning"))

	l.Info(context.Background(), "anchor updated", Int64("anchor_id", 7), Float("accuracy", 1.25), Err(errors.New("boom")))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "anchor updated", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "positioning", rec["component"])
	assert.Equal(t, float64(7), rec["anchor_id"])
	assert.Equal(t, 1.25, rec["accuracy"])
	assert.Equal(t, "boom", rec["error"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})

	l.Info(context.Background(), "hidden")
	assert.Zero(t, buf.Len())

	l.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestContextHelpers(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))

	fallback := Noop()
	assert.Equal(t, fallback, FromContext(context.Background(), fallback))

	var buf bytes.Buffer
	scoped := New(Config{Output: &buf})
	ctx = ContextWithLogger(ctx, scoped)
	assert.Equal(t, scoped, FromContext(ctx, fallback))
	assert.NotNil(t, FromContext(context.Background(), nil))
}
