package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/bomview/internal/core"
	"github.com/JonMunkholm/bomview/internal/logging"
)

// WithRequestMetadata adds IP and User-Agent to context for audit logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // Already processed by TrustedRealIP
	ua := r.Header.Get("User-Agent")
	ctx = core.ContextWithIPAddress(ctx, ip)
	ctx = core.ContextWithUserAgent(ctx, ua)
	return ctx
}

// sessionID returns the session resolved by sessionMiddleware.
func sessionID(r *http.Request) string {
	return logging.SessionIDFromContext(r.Context())
}
