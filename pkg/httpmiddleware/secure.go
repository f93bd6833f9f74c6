package httpmiddleware

import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecureHeaders sets the standard hardening headers on every response. HSTS
// is only sent when isDev is false.
func SecureHeaders(isDev bool) Middleware {
	s := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		STSSeconds:            31536000,
		STSIncludeSubdomains:  true,
		IsDevelopment:         isDev,
	})
	return func(next http.Handler) http.Handler {
		return s.Handler(next)
	}
}
