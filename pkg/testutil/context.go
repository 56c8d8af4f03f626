package testutil

import (
	"net/http"
	"time"

	"vigil/pkg/requestcontext"
)

// WithService marks the request as coming from an authenticated service, as
// the auth middleware would.
func WithService(req *http.Request, service string) *http.Request {
	return req.WithContext(requestcontext.WithService(req.Context(), service))
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
