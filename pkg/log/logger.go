package log

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
)

const defaultBufferSize = 1000

// Logger writes structured entries through a shared Buffer. Child loggers
// created by With and WithComponent share the parent's buffer and level.
type Logger struct {
	level     *atomic.Int32
	buffer    *Buffer
	component string
	fields    map[string]any
}

// New creates a logger emitting entries at level and above.
func New(level Level, transporters ...Transporter) *Logger {
	return &Logger{
		level:  newLevel(level),
		buffer: NewBuffer(defaultBufferSize, transporters...),
		fields: map[string]any{},
	}
}

func newLevel(level Level) *atomic.Int32 {
	v := new(atomic.Int32)
	v.Store(int32(level))
	return v
}

// SetLevel changes the minimum level for this logger and its children.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

// With returns a child logger that adds keysAndValues to every entry.
func (l *Logger) With(keysAndValues ...any) *Logger {
	child := l.clone()
	mergePairs(child.fields, keysAndValues)
	return child
}

// WithComponent returns a child logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	child := l.clone()
	child.component = name
	return child
}

// Close flushes pending entries and closes the transporters.
func (l *Logger) Close() {
	l.buffer.Close()
}

func (l *Logger) clone() *Logger {
	fields := make(map[string]any, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	return &Logger{
		level:     l.level,
		buffer:    l.buffer,
		component: l.component,
		fields:    fields,
	}
}

// emit builds the entry. skip is the number of wrapper frames between
// the public call site and emit.
func (l *Logger) emit(skip int, level Level, ctx context.Context, msg string, keysAndValues []any) {
	if !l.Level().Enables(level) {
		return
	}

	entry := NewEntry(level, msg)
	entry.Component = l.component
	entry.Caller = caller(skip + 2)
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	if ctx != nil {
		entry.RequestID = RequestIDFromContext(ctx)
		for k, v := range FieldsFromContext(ctx) {
			entry.Fields[k] = v
		}
	}
	mergePairs(entry.Fields, keysAndValues)

	l.buffer.Send(*entry)
}

func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

func (l *Logger) Trace(msg string, kv ...any) { l.emit(1, Trace, nil, msg, kv) }
func (l *Logger) Debug(msg string, kv ...any) { l.emit(1, Debug, nil, msg, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.emit(1, Info, nil, msg, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.emit(1, Warn, nil, msg, kv) }
func (l *Logger) Error(msg string, kv ...any) { l.emit(1, Error, nil, msg, kv) }

// Fatal logs at Fatal level. Exiting is left to the caller.
func (l *Logger) Fatal(msg string, kv ...any) { l.emit(1, Fatal, nil, msg, kv) }

func (l *Logger) DebugCtx(ctx context.Context, msg string, kv ...any) {
	l.emit(1, Debug, ctx, msg, kv)
}

func (l *Logger) InfoCtx(ctx context.Context, msg string, kv ...any) {
	l.emit(1, Info, ctx, msg, kv)
}

func (l *Logger) WarnCtx(ctx context.Context, msg string, kv ...any) {
	l.emit(1, Warn, ctx, msg, kv)
}

func (l *Logger) ErrorCtx(ctx context.Context, msg string, kv ...any) {
	l.emit(1, Error, ctx, msg, kv)
}

// --- process-wide logger ---

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
	discard      = &Logger{
		level:  newLevel(silent),
		buffer: NewBuffer(1, noopTransporter{}),
		fields: map[string]any{},
	}
)

// SetDefault installs the process-wide logger.
func SetDefault(l *Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// Default returns the process-wide logger, or a silent one when none is set.
func Default() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		return discard
	}
	return globalLogger
}

func GlobalDebug(msg string, kv ...any) { Default().emit(1, Debug, nil, msg, kv) }
func GlobalInfo(msg string, kv ...any)  { Default().emit(1, Info, nil, msg, kv) }
func GlobalWarn(msg string, kv ...any)  { Default().emit(1, Warn, nil, msg, kv) }
func GlobalError(msg string, kv ...any) { Default().emit(1, Error, nil, msg, kv) }
func GlobalFatal(msg string, kv ...any) { Default().emit(1, Fatal, nil, msg, kv) }

func GlobalDebugCtx(ctx context.Context, msg string, kv ...any) {
	Default().emit(1, Debug, ctx, msg, kv)
}

func GlobalInfoCtx(ctx context.Context, msg string, kv ...any) {
	Default().emit(1, Info, ctx, msg, kv)
}

func GlobalWarnCtx(ctx context.Context, msg string, kv ...any) {
	Default().emit(1, Warn, ctx, msg, kv)
}

func GlobalErrorCtx(ctx context.Context, msg string, kv ...any) {
	Default().emit(1, Error, ctx, msg, kv)
}
