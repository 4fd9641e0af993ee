package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("emits JSON at the configured level", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := New(&buf, "debug")
		logger.Debug("probe", "answer", 42)

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		require.Equal(t, "probe", record["msg"])
		require.Equal(t, float64(42), record["answer"])
	})

	t.Run("filters below the configured level", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := New(&buf, "error")
		logger.Info("dropped")
		require.Zero(t, buf.Len())
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := New(&buf, "loud")
		logger.Debug("dropped")
		require.Zero(t, buf.Len())
		logger.Info("kept")
		require.NotZero(t, buf.Len())
	})
}

func TestContextCarrier(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, "info")

	ctx := ContextWithLogger(context.Background(), logger)
	require.Same(t, logger, FromContext(ctx))

	require.NotNil(t, FromContext(context.Background()))
}
