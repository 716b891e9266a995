package services

import "context"

type contextKey string

const (
	contextKeyIdentifier contextKey = "identifier"
	contextKeyStage      contextKey = "stage"
	contextKeyRequestID  contextKey = "request_id"
)

// WithIdentifier attaches the primary identifier being processed to the context.
func WithIdentifier(ctx context.Context, identifier string) context.Context {
	return context.WithValue(ctx, contextKeyIdentifier, identifier)
}

// IdentifierFromContext extracts the identifier attached by WithIdentifier.
func IdentifierFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(contextKeyIdentifier).(string)
	return value, ok && value != ""
}

// WithStage attaches the active pipeline stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, contextKeyStage, stage)
}

// StageFromContext extracts the stage attached by WithStage.
func StageFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(contextKeyStage).(string)
	return value, ok && value != ""
}

// WithRequestID attaches a correlation identifier to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

// RequestIDFromContext extracts the correlation identifier attached by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(contextKeyRequestID).(string)
	return value, ok && value != ""
}
