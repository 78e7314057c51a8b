package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/SummaryProject/SP-Backend/internal/httputil"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit applies a per-IP token bucket to the wrapped routes.
// Stale visitor entries are pruned lazily on new-IP insertion.
func RateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	var mu sync.Mutex
	visitors := make(map[string]*visitor)

	getLimiter := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		v, ok := visitors[ip]
		if !ok {
			for addr, vv := range visitors {
				if time.Since(vv.lastSeen) > 10*time.Minute {
					delete(visitors, addr)
				}
			}
			v = &visitor{limiter: rate.NewLimiter(limit, burst)}
			visitors[ip] = v
		}
		v.lastSeen = time.Now()
		return v.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !getLimiter(ip).Allow() {
				httputil.WriteError(w, http.StatusTooManyRequests, "Too many requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
