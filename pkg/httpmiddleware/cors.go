package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin access for the register front end.
type CORSConfig struct {
	// AllowOrigins lists allowed origins; empty or "*" allows any origin.
	AllowOrigins     []string
	AllowHeaders     []string
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds; zero omits it.
	MaxAge int
}

const corsMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"

// CORS answers preflight requests and sets CORS headers on actual requests.
// With credentials enabled the matching origin is echoed instead of "*".
func CORS(cfg CORSConfig) Middleware {
	allowAll := len(cfg.AllowOrigins) == 0
	allowed := make(map[string]string, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			allowAll = true
			continue
		}
		allowed[strings.ToLower(o)] = o
	}
	headers := strings.Join(cfg.AllowHeaders, ", ")

	allowOrigin := func(origin string) string {
		if allowAll {
			if cfg.AllowCredentials {
				return origin
			}
			return "*"
		}
		return allowed[strings.ToLower(origin)]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			ao := allowOrigin(origin)

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if preflight {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
			}
			if ao != "" {
				h.Set("Access-Control-Allow-Origin", ao)
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}
			if !preflight {
				next.ServeHTTP(w, r)
				return
			}

			if ao != "" {
				h.Set("Access-Control-Allow-Methods", corsMethods)
				switch {
				case headers != "":
					h.Set("Access-Control-Allow-Headers", headers)
				case r.Header.Get("Access-Control-Request-Headers") != "":
					h.Set("Access-Control-Allow-Headers", r.Header.Get("Access-Control-Request-Headers"))
				}
				if cfg.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
