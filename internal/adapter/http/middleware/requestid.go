package middleware

import (
	"net/http"

	"github.com/google/uuid"

	wrap "github.com/example/ride-dispatch/pkg/logger/wrapper"
)

const requestIDHeader = "X-Request-ID"

// RequestID takes the caller's request id or mints one, echoes it on
// the response, and threads it through the log context. It also rides
// along as the correlation id on rabbit messages.
func (h *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)
		ctx := wrap.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
