package host

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_ParseLogLevel(t *testing.T) {
	logger := slog.Default()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"shouting", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(logger, tt.input), "level %q", tt.input)
	}
}

func Test_ConvertSingleAttr(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		attr := convertSingleAttr(guestLogAttr{Key: "tool", Type: "string", Value: "calc"})
		assert.Equal(t, slog.KindString, attr.Value.Kind())
		assert.Equal(t, "calc", attr.Value.String())
	})

	t.Run("int64", func(t *testing.T) {
		attr := convertSingleAttr(guestLogAttr{Key: "count", Type: "int64", Value: "42"})
		assert.Equal(t, slog.KindInt64, attr.Value.Kind())
		assert.Equal(t, int64(42), attr.Value.Int64())
	})

	t.Run("bool", func(t *testing.T) {
		attr := convertSingleAttr(guestLogAttr{Key: "ok", Type: "bool", Value: "true"})
		assert.Equal(t, slog.KindBool, attr.Value.Kind())
		assert.True(t, attr.Value.Bool())
	})

	t.Run("float64", func(t *testing.T) {
		attr := convertSingleAttr(guestLogAttr{Key: "score", Type: "float64", Value: "0.5"})
		assert.Equal(t, slog.KindFloat64, attr.Value.Kind())
		assert.InDelta(t, 0.5, attr.Value.Float64(), 1e-9)
	})

	t.Run("time", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		attr := convertSingleAttr(guestLogAttr{Key: "at", Type: "time", Value: now.Format(time.RFC3339Nano)})
		assert.Equal(t, slog.KindTime, attr.Value.Kind())
		assert.True(t, attr.Value.Time().Equal(now))
	})

	t.Run("malformed value falls back to string", func(t *testing.T) {
		attr := convertSingleAttr(guestLogAttr{Key: "count", Type: "int64", Value: "many"})
		assert.Equal(t, "many", attr.Value.Any())
	})

	t.Run("unknown type falls back to string", func(t *testing.T) {
		attr := convertSingleAttr(guestLogAttr{Key: "blob", Type: "matrix", Value: "x"})
		assert.Equal(t, "x", attr.Value.Any())
	})
}

func Test_UnpackPtrLen(t *testing.T) {
	ptr, length := unpackPtrLen((uint64(0x1000) << 32) | 0x20)
	assert.Equal(t, uint32(0x1000), ptr)
	assert.Equal(t, uint32(0x20), length)

	ptr, length = unpackPtrLen(0)
	assert.Zero(t, ptr)
	assert.Zero(t, length)
}
