package keycore

import (
	"context"

	"github.com/chainguard-dev/clog"
)

type requestIDContextKey struct{}

// WithRequestID attaches a caller-chosen correlation id to ctx. Engine log lines for
// store-backed operations carry it as "request_id".
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

func loggerFromContext(ctx context.Context) *clog.Logger {
	log := clog.FromContext(ctx)
	if id := requestIDFromContext(ctx); id != "" {
		log = log.With("request_id", id)
	}
	return log
}
