package web

import (
	"net/http"

	"github.com/agbanzy/pollingunits/internal/core"
)

// withRequester records the client address and User-Agent on the request
// context so the service can attribute the runs it starts. It must run after
// TrustedRealIP.
func withRequester(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithRequester(r.Context(), core.Requester{
			IP:        clientIP(r),
			UserAgent: r.Header.Get("User-Agent"),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
