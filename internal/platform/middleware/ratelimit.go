package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"govinda/internal/platform/ratelimit"
	"govinda/pkg/requestcontext"
)

// RateLimitByTenant throttles the tenant-scoped API per tenant. Runs after
// auth so the tenant is in the context; requests without one fall back to
// the client IP.
func RateLimitByTenant(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := requestcontext.TenantID(r.Context()).String()
			if requestcontext.TenantID(r.Context()).IsNil() {
				key = clientIP(r)
			}
			admit(limiter, key, w, r, next)
		})
	}
}

// RateLimitByIP throttles unauthenticated routes, login in particular, per
// client IP.
func RateLimitByIP(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admit(limiter, clientIP(r), w, r, next)
		})
	}
}

func admit(limiter *ratelimit.Limiter, key string, w http.ResponseWriter, r *http.Request, next http.Handler) {
	result := limiter.Allow(key)

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

	if !result.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter(time.Now())))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded","message":"too many requests, please retry later"}`))
		return
	}
	next.ServeHTTP(w, r)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
