package log

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/servicemarket/missions/pkg/requestid"
)

// StructuredLogger traces an operation as a sequence of steps sharing the
// same fields. Steps and success are logged at debug level, failures at error.
type StructuredLogger struct {
	name string
	ctx  context.Context
}

func NewDebugLogger(name string) *StructuredLogger {
	return &StructuredLogger{name: name, ctx: context.Background()}
}

func (l *StructuredLogger) WithContext(ctx context.Context) *StructuredLogger {
	return &StructuredLogger{name: l.name, ctx: ctx}
}

func (l *StructuredLogger) Operation(name string) *OperationBuilder {
	b := &OperationBuilder{logger: l, operation: name}
	if id := requestid.FromContext(l.ctx); id != "" {
		b.fields = append(b.fields, zap.String("request_id", id))
	}
	return b
}

func (l *StructuredLogger) zap() *zap.Logger {
	return zap.L().Named(l.name)
}

type fieldSet struct {
	fields []zap.Field
}

func (f *fieldSet) add(field zap.Field) {
	f.fields = append(f.fields, field)
}

type OperationBuilder struct {
	logger    *StructuredLogger
	operation string
	fields    []zap.Field
}

func (b *OperationBuilder) WithString(key, value string) *OperationBuilder {
	b.fields = append(b.fields, zap.String(key, value))
	return b
}

func (b *OperationBuilder) WithInt(key string, value int) *OperationBuilder {
	b.fields = append(b.fields, zap.Int(key, value))
	return b
}

func (b *OperationBuilder) WithBool(key string, value bool) *OperationBuilder {
	b.fields = append(b.fields, zap.Bool(key, value))
	return b
}

func (b *OperationBuilder) WithUUID(key string, value uuid.UUID) *OperationBuilder {
	b.fields = append(b.fields, zap.String(key, value.String()))
	return b
}

func (b *OperationBuilder) WithUUIDPtr(key string, value *uuid.UUID) *OperationBuilder {
	if value == nil {
		return b
	}
	return b.WithUUID(key, *value)
}

func (b *OperationBuilder) Build() *OperationTracer {
	t := &OperationTracer{
		logger:    b.logger,
		operation: b.operation,
		start:     time.Now(),
		fields:    append([]zap.Field{zap.String("operation", b.operation)}, b.fields...),
	}
	t.logger.zap().Debug("operation started", t.fields...)
	return t
}

type OperationTracer struct {
	logger    *StructuredLogger
	operation string
	start     time.Time
	fields    []zap.Field
}

func (t *OperationTracer) Step(name string) *Event {
	return t.event(zapcore.DebugLevel, "operation step", zap.String("step", name))
}

func (t *OperationTracer) Success() *Event {
	return t.event(zapcore.DebugLevel, "operation succeeded", zap.Duration("duration", time.Since(t.start)))
}

func (t *OperationTracer) Error(err error) *Event {
	return t.event(zapcore.ErrorLevel, "operation failed", zap.Error(err), zap.Duration("duration", time.Since(t.start)))
}

func (t *OperationTracer) event(level zapcore.Level, msg string, extra ...zap.Field) *Event {
	e := &Event{tracer: t, level: level, msg: msg}
	e.fields.fields = append(append(e.fields.fields, t.fields...), extra...)
	return e
}

// Event is a single log line of an operation. Nothing is written until Log is called.
type Event struct {
	tracer *OperationTracer
	level  zapcore.Level
	msg    string
	fields fieldSet
}

func (e *Event) WithString(key, value string) *Event {
	e.fields.add(zap.String(key, value))
	return e
}

func (e *Event) WithInt(key string, value int) *Event {
	e.fields.add(zap.Int(key, value))
	return e
}

func (e *Event) WithBool(key string, value bool) *Event {
	e.fields.add(zap.Bool(key, value))
	return e
}

func (e *Event) WithUUID(key string, value uuid.UUID) *Event {
	e.fields.add(zap.String(key, value.String()))
	return e
}

func (e *Event) WithUUIDPtr(key string, value *uuid.UUID) *Event {
	if value != nil {
		e.fields.add(zap.String(key, value.String()))
	}
	return e
}

func (e *Event) Log() {
	if ce := e.tracer.logger.zap().Check(e.level, e.msg); ce != nil {
		ce.Write(e.fields.fields...)
	}
}
