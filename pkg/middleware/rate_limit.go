package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"bizqueue/pkg/auth"
	apperrors "bizqueue/pkg/errors"
	httputil "bizqueue/pkg/http"
	"bizqueue/pkg/logger"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const rateLimiterCapacity = 100000

type KeyExtractor func(r *http.Request) string

// RateLimiter is a sliding-window limiter. Idle keys age out of the LRU
// after one window.
type RateLimiter struct {
	mu        sync.Mutex
	requests  *expirable.LRU[string, []time.Time]
	limit     int
	window    time.Duration
	extractor KeyExtractor
	log       *logger.Logger
	now       func() time.Time
}

func NewRateLimiter(limit int, window time.Duration, extractor KeyExtractor, log *logger.Logger) *RateLimiter {
	if extractor == nil {
		extractor = PrincipalOrIP
	}
	return &RateLimiter{
		requests:  expirable.NewLRU[string, []time.Time](rateLimiterCapacity, nil, window),
		limit:     limit,
		window:    window,
		extractor: extractor,
		log:       log,
		now:       time.Now,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	timestamps, _ := rl.requests.Get(key)

	valid := make([]time.Time, 0, len(timestamps)+1)
	for _, ts := range timestamps {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		return false
	}

	rl.requests.Add(key, append(valid, now))
	return true
}

// RateLimit throttles mutating requests only; reads are never limited.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			key := limiter.extractor(r)
			if !limiter.Allow(key) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestID(r.Context()),
					"key", key,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", limiter.retryAfter())
				_ = httputil.WriteError(w, apperrors.New("RATE_LIMITED", "Rate limit exceeded", http.StatusTooManyRequests))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) retryAfter() string {
	return strconv.Itoa(max(1, int(rl.window.Seconds())))
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// PrincipalOrIP keys authenticated callers by user and guests by client address.
// It must run after Authenticate.
func PrincipalOrIP(r *http.Request) string {
	if p := auth.FromContext(r.Context()); !p.IsGuest() {
		return "user:" + p.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
