package testutil

import (
	"net/http"
	"time"

	"github.com/DaghanEmre/fintech-modular-platform/pkg/requestcontext"
)

// WithActor marks the request as coming from an authenticated operator.
// This simulates what the auth middleware does after validating a token.
func WithActor(req *http.Request, actorID string) *http.Request {
	return req.WithContext(requestcontext.WithActorID(req.Context(), actorID))
}

// WithRequestID attaches a correlation ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithTime pins the request clock, as the requesttime middleware would.
func WithTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
