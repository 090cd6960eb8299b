package testutil

import (
	"context"
	"net/http"

	"vantage/pkg/domain"
	"vantage/pkg/requestcontext"
)

// WithActor adds an authenticated actor to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithActor(req *http.Request, actorID string, role domain.Role) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), domain.Actor{ID: actorID, Role: role})
	return req.WithContext(ctx)
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), requestID)
	return req.WithContext(ctx)
}

// ActorContext returns a context carrying the given actor, for service tests
// that bypass the HTTP layer.
func ActorContext(actorID string, role domain.Role) context.Context {
	return requestcontext.WithActor(context.Background(), domain.Actor{ID: actorID, Role: role})
}
