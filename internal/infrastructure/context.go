package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

// GenerateTraceID creates a new unique trace ID.
func GenerateTraceID() string {
	return uuid.New().String()
}

// EnsureTraceID guarantees the context carries a trace ID, generating one
// if needed.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return WithTraceID(ctx, GenerateTraceID())
	}
	return ctx
}
