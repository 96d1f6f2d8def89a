package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// MetadataKey is the attribute under which ambient metadata is logged.
const MetadataKey = "metadata"

// Logger writes through Base and attaches the metadata set with WithMetadata
// to every record emitted while it is held.
type Logger struct {
	meta *metadataState
}

// metadataState holds one entry per live guard. The newest entry is the
// attached value.
type metadataState struct {
	mu      sync.Mutex
	entries []*metadataEntry
}

type metadataEntry struct {
	value any
}

var defaultLogger = NewLogger()

// Default returns the process-wide Logger.
func Default() *Logger {
	return defaultLogger
}

// NewLogger returns a Logger with its own metadata slot.
func NewLogger() *Logger {
	return &Logger{meta: &metadataState{}}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, msg, args...)
}

// DebugContext logs at debug level, correlated with the span in ctx.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

// InfoContext logs at info level, correlated with the span in ctx.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

// WarnContext logs at warn level, correlated with the span in ctx.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}

// ErrorContext logs at error level, correlated with the span in ctx.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args...)
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	sl := Base()
	if !sl.Enabled(ctx, level) {
		return
	}
	if meta, ok := l.currentMetadata(); ok {
		args = append(args, slog.String(MetadataKey, meta))
	}
	sl.Log(ctx, level, msg, args...)
}

// WithMetadata attaches meta to every record this Logger emits until the
// returned guard is released. Releasing drops only this guard's value; an
// outer guard still held becomes visible again, and once every guard is
// released no metadata is attached.
//
//	defer log.WithMetadata(map[string]any{"requestId": id}).Release()
func (l *Logger) WithMetadata(meta any) *MetadataGuard {
	l.meta.mu.Lock()
	defer l.meta.mu.Unlock()

	e := &metadataEntry{value: meta}
	l.meta.entries = append(l.meta.entries, e)
	return &MetadataGuard{state: l.meta, entry: e}
}

// Metadata returns the value currently attached, if any.
func (l *Logger) Metadata() (any, bool) {
	l.meta.mu.Lock()
	defer l.meta.mu.Unlock()
	if n := len(l.meta.entries); n > 0 {
		return l.meta.entries[n-1].value, true
	}
	return nil, false
}

func (l *Logger) currentMetadata() (string, bool) {
	value, ok := l.Metadata()
	if !ok {
		return "", false
	}
	return EncodeMetadata(value), true
}

// EncodeMetadata renders a JSON-like value as a JSON string.
func EncodeMetadata(value any) string {
	if raw, ok := value.(json.RawMessage); ok {
		return string(raw)
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(b)
}

// MetadataGuard scopes a metadata value set with Logger.WithMetadata.
type MetadataGuard struct {
	state *metadataState
	entry *metadataEntry
	once  sync.Once
}

// Release removes this guard's metadata. Guards may be released in any
// order. Calling it more than once is a no-op.
func (g *MetadataGuard) Release() {
	g.once.Do(func() {
		g.state.mu.Lock()
		defer g.state.mu.Unlock()
		for i, e := range g.state.entries {
			if e == g.entry {
				g.state.entries = append(g.state.entries[:i], g.state.entries[i+1:]...)
				return
			}
		}
	})
}
