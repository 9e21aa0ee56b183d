// Package log provides context-aware logging helpers. Fields stored on the context
// with WithFields are appended to every entry.
package log

import (
	"context"

	"github.com/nguyentranbao-ct/hds-chat/pkg/logger"
)

type fieldsKey struct{}

// def resolves lazily so that logger.Setup called from main takes effect.
func def() *logger.Logger {
	return logger.MustNamed("app")
}

// WithFields returns a copy of ctx carrying extra key-value pairs.
func WithFields(ctx context.Context, kv ...any) context.Context {
	if len(kv) == 0 {
		return ctx
	}
	prev := Fields(ctx)
	merged := make([]any, 0, len(prev)+len(kv))
	merged = append(merged, prev...)
	merged = append(merged, kv...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// Fields returns the key-value pairs stored on ctx.
func Fields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	kv, _ := ctx.Value(fieldsKey{}).([]any)
	return kv
}

func with(ctx context.Context, kv []any) []any {
	fields := Fields(ctx)
	if len(fields) == 0 {
		return kv
	}
	out := make([]any, 0, len(fields)+len(kv))
	out = append(out, kv...)
	return append(out, fields...)
}

func Debugw(ctx context.Context, msg string, kv ...any) {
	def().Debugw(msg, with(ctx, kv)...)
}

func Infow(ctx context.Context, msg string, kv ...any) {
	def().Infow(msg, with(ctx, kv)...)
}

func Warnw(ctx context.Context, msg string, kv ...any) {
	def().Warnw(msg, with(ctx, kv)...)
}

func Errorw(ctx context.Context, msg string, kv ...any) {
	def().Errorw(msg, with(ctx, kv)...)
}

func Infof(ctx context.Context, template string, args ...any) {
	def().With(Fields(ctx)...).Infof(template, args...)
}

func Debugf(ctx context.Context, template string, args ...any) {
	def().With(Fields(ctx)...).Debugf(template, args...)
}
