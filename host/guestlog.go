package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/tetratelabs/wazero/api"
)

// guestLogMessage is the wire shape of the `log_message` host function
// payload: a JSON-encoded level, message, and typed attributes.
type guestLogMessage struct {
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Attrs   []guestLogAttr `json:"attrs,omitempty"`
}

type guestLogAttr struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// logMessage implements the `log_message` host function. It receives a
// packed uint64 (ptr+len) pointing to a JSON-encoded guestLogMessage and
// forwards it to the engine's slog.Logger.
func logMessage(ctx context.Context, logger *slog.Logger, mod api.Module, packed uint64) {
	ptr, length := unpackPtrLen(packed)

	payload, ok := mod.Memory().Read(ptr, length)
	if !ok {
		logger.ErrorContext(ctx, "host: failed to read log message from guest memory",
			"ptr", ptr, "len", length)
		return
	}

	var msg guestLogMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		logger.ErrorContext(ctx, "host: failed to unmarshal guest log message",
			"error", err)
		return
	}

	logger.LogAttrs(ctx, parseLogLevel(logger, msg.Level), msg.Message, convertLogAttrs(msg.Attrs)...)
}

// parseLogLevel converts a string level to slog.Level.
func parseLogLevel(logger *slog.Logger, levelStr string) slog.Level {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		logger.Warn("host: unknown log level from guest", "level", levelStr)
	}
	return level
}

// convertLogAttrs converts wire attributes to slog.Attr values.
func convertLogAttrs(wireAttrs []guestLogAttr) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(wireAttrs))
	for _, attr := range wireAttrs {
		attrs = append(attrs, convertSingleAttr(attr))
	}
	return attrs
}

func convertSingleAttr(attr guestLogAttr) slog.Attr {
	switch attr.Type {
	case "string":
		return slog.String(attr.Key, attr.Value)
	case "int64":
		if v, err := strconv.ParseInt(attr.Value, 10, 64); err == nil {
			return slog.Int64(attr.Key, v)
		}
	case "bool":
		if v, err := strconv.ParseBool(attr.Value); err == nil {
			return slog.Bool(attr.Key, v)
		}
	case "float64":
		if v, err := strconv.ParseFloat(attr.Value, 64); err == nil {
			return slog.Float64(attr.Key, v)
		}
	case "time":
		if v, err := time.Parse(time.RFC3339Nano, attr.Value); err == nil {
			return slog.Time(attr.Key, v)
		}
	case "error":
		return slog.Any(attr.Key, fmt.Errorf("%s", attr.Value))
	}
	// Fallback for unknown types or parse failures.
	return slog.Any(attr.Key, attr.Value)
}
