package server

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cofc/campushunt/internal/auth"
)

type callerLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// claimLimiter keeps one token bucket per caller. Signed-in callers are
// keyed by user id, anonymous ones by remote address.
type claimLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	callers map[string]*callerLimiter
}

func newClaimLimiter(perMinute int) *claimLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	return &claimLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   perMinute,
		callers: make(map[string]*callerLimiter),
	}
}

func (cl *claimLimiter) get(key string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	c, ok := cl.callers[key]
	if !ok {
		c = &callerLimiter{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.callers[key] = c
	}
	c.lastAccess = time.Now()
	return c.limiter
}

func (cl *claimLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		key := "ip:" + host
		if id, ok := auth.IdentityFrom(r.Context()); ok {
			key = "user:" + id.UserID
		}

		if !cl.get(key).Allow() {
			retry := int(math.Ceil(1 / float64(cl.limit)))
			w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
			writeError(w, http.StatusTooManyRequests, "too many claims, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// cleanupLoop drops buckets idle for more than twice the interval.
func (cl *claimLimiter) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cl.cleanup(time.Now(), 2*interval)
		}
	}
}

func (cl *claimLimiter) cleanup(now time.Time, ttl time.Duration) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	for key, c := range cl.callers {
		if now.Sub(c.lastAccess) > ttl {
			delete(cl.callers, key)
		}
	}
}

func (cl *claimLimiter) size() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.callers)
}
