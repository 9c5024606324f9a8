package logger

import (
	"context"

	"github.com/google/uuid"
)

// NewConnContext tags ctx with a fresh request ID and the client address.
// Every log line written through WithContext for that connection carries both.
func NewConnContext(ctx context.Context, remoteAddr string) context.Context {
	ctx = context.WithValue(ctx, RequestIDKey, uuid.New().String())
	if remoteAddr != "" {
		ctx = context.WithValue(ctx, RemoteAddrKey, remoteAddr)
	}
	return ctx
}
