package middleware

import (
	"net/http"

	apperrors "agenda/pkg/errors"
	httputil "agenda/pkg/http"
)

// MaxRequestSize caps request bodies. Declared oversize bodies are refused up
// front; undeclared ones fail on read and DecodeJSON reports 413.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				_ = httputil.WriteError(w, apperrors.PayloadTooLarge("Request body too large"))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
