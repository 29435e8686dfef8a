package testutil

import (
	"net/http"

	id "estate/pkg/domain"
	"estate/pkg/requestcontext"
)

// WithCaller adds an authenticated caller to the request context, the way the
// bearer-token middleware would.
func WithCaller(req *http.Request, caller id.AccountID) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// WithSeedCaller is WithCaller for a seed-derived development account.
func WithSeedCaller(req *http.Request, seed string) *http.Request {
	return WithCaller(req, id.AccountIDFromSeed(seed))
}
