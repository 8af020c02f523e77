package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"label-cabinet/backstage/internal/auth"
	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/constants"
)

var whitelistedIPs = map[string]bool{
	"127.0.0.1": true, // local tooling
}

// limiterSet hands out one token bucket per principal.
type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limiter, exists := s.limiters[key]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(s.limit, s.burst)
	s.limiters[key] = limiter
	return limiter
}

// principalKey is the authenticated user id, falling back to the client IP.
func principalKey(r *http.Request) (key string, ip string) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if claims := auth.GetUserClaims(r.Context()); claims != nil {
		return "user:" + claims.UserID(), ip
	}
	return "ip:" + ip, ip
}

// RateLimit allows rps requests per second per principal with the given burst.
// Each call builds an independent set of buckets, so routes can be limited
// separately.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	set := newLimiterSet(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ip := principalKey(r)
			if whitelistedIPs[ip] && auth.GetUserClaims(r.Context()) == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !set.get(key).Allow() {
				w.Header().Set("Retry-After", "1")
				common.RespondError(w, time.Now(), nil, constants.MsgTooManyRequests, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
