// Package requesttime captures one timestamp per request so audit events and
// logs written while handling it agree on "now".
package requesttime

import (
	"net/http"
	"time"

	"estate/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
