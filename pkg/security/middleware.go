// Package security holds the request-edge middleware: request ids, CORS and
// per-client rate limiting.
package security

import (
	"context"
	"net"
	"net/http"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"postit/pkg/logger"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// Config is the slice of security settings the middleware needs.
type Config struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
}

type ctxKey struct{}

// RequestID returns the id attached by Middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Middleware tags every request with an id, answers CORS preflights and
// applies the rate limit when cfg.RPS > 0.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	var limiters *limiterPool
	if cfg.RPS > 0 {
		limiters = newLimiterPool(cfg.RPS, cfg.Burst)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = newRequestID()
			}
			w.Header().Set(RequestIDHeader, id)
			r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))
			logger.LogRequest(r, id)

			applyCORS(w, r, cfg.AllowedOrigins)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if limiters != nil {
				ip := clientIP(r)
				if !limiters.Allow(ip) {
					logger.Warn("request_rate_limited", "ip", ip, "path", r.URL.Path, "request_id", id)
					http.Error(w, "too many requests", http.StatusTooManyRequests)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func applyCORS(w http.ResponseWriter, r *http.Request, allowed []string) {
	origin := r.Header.Get("Origin")
	h := w.Header()
	switch {
	case originAllowed("*", allowed):
		h.Set("Access-Control-Allow-Origin", "*")
	case origin != "" && originAllowed(origin, allowed):
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
	default:
		return
	}
	h.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,PATCH,OPTIONS")
	if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
		h.Set("Access-Control-Allow-Headers", req)
	} else {
		h.Set("Access-Control-Allow-Headers", "*")
	}
	h.Set("Access-Control-Expose-Headers", RequestIDHeader)
	h.Set("Access-Control-Max-Age", "600")
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(a), origin) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func newRequestID() string {
	id, err := gonanoid.New()
	if err != nil {
		return "unknown"
	}
	return id
}
