package httpx

import (
	"net/http"
	"strings"

	"github.com/k1networth/techdesk/internal/shared/requestid"
)

// RequestID keeps a valid inbound X-Request-Id and mints a new one otherwise.
// The id is echoed in the response header and stored in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get(requestid.Header))
		if !requestid.Valid(rid) {
			rid = requestid.New()
		}

		w.Header().Set(requestid.Header, rid)
		next.ServeHTTP(w, r.WithContext(requestid.With(r.Context(), rid)))
	})
}
