package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimit limits each client IP to limit requests per window. Idle client
// buckets are pruned so the map does not grow without bound.
func RateLimit(limit int, window time.Duration, log zerolog.Logger) func(http.Handler) http.Handler {
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var mu sync.Mutex
	clients := make(map[string]*client)
	every := rate.Every(window / time.Duration(limit))

	prune := func(now time.Time) {
		for ip, c := range clients {
			if now.Sub(c.lastSeen) > 3*window {
				delete(clients, ip)
			}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			mu.Lock()
			c, ok := clients[ip]
			if !ok {
				c = &client{limiter: rate.NewLimiter(every, limit)}
				clients[ip] = c
			}
			now := time.Now()
			c.lastSeen = now
			if len(clients) > 1000 {
				prune(now)
			}
			allowed := c.limiter.Allow()
			mu.Unlock()

			if !allowed {
				log.Warn().Str("ip", ip).Msg("rate limit exceeded")
				WriteError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
