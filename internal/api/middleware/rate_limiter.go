package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// EndpointRateLimit overrides the global limit for every path under a prefix
type EndpointRateLimit struct {
	Requests int
	Window   time.Duration
}

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	// Max requests per window
	Max int
	// Window duration
	Window time.Duration
	// Key generator function - returns the client key from context
	KeyGenerator func(c *fiber.Ctx) string
	// PerEndpoint limits keyed by path prefix; the longest matching prefix wins
	PerEndpoint map[string]EndpointRateLimit
}

// DefaultRateLimiterConfig returns default configuration
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Max:          600,
		Window:       time.Minute,
		KeyGenerator: clientKey,
	}
}

// EnrollmentRateLimits keeps gallery writes, which call the descriptor source once
// per image, well below the frame traffic budget.
func EnrollmentRateLimits() map[string]EndpointRateLimit {
	return map[string]EndpointRateLimit{
		"/v1/identities": {Requests: 60, Window: time.Minute},
		"/v1/recognize":  {Requests: 300, Window: time.Minute},
	}
}

// clientKey uses the authenticated client when there is one, otherwise the remote IP
func clientKey(c *fiber.Ctx) string {
	if id := GetClientID(c); id != "" {
		return id
	}
	return "ip:" + c.IP()
}

// clientLimiter tracks rate limiting state for a client
type clientLimiter struct {
	count      int
	windowEnd  time.Time
	lastAccess time.Time
	window     time.Duration
}

// RateLimiter implements per-client fixed window rate limiting
type RateLimiter struct {
	config   RateLimiterConfig
	limiters map[string]*clientLimiter
	mu       sync.RWMutex
	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Max == 0 {
		config.Max = 600
	}
	if config.Window == 0 {
		config.Window = time.Minute
	}
	if config.KeyGenerator == nil {
		config.KeyGenerator = DefaultRateLimiterConfig().KeyGenerator
	}

	rl := &RateLimiter{
		config:   config,
		limiters: make(map[string]*clientLimiter),
		done:     make(chan struct{}),
	}

	// Start cleanup goroutine
	go rl.cleanup()

	return rl
}

// Stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.done)
	})
}

// limitFor resolves the limit that applies to path and the bucket suffix for it
func (rl *RateLimiter) limitFor(path string) (int, time.Duration, string) {
	best := ""
	for prefix := range rl.config.PerEndpoint {
		if strings.HasPrefix(path, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return rl.config.Max, rl.config.Window, ""
	}
	limit := rl.config.PerEndpoint[best]
	window := limit.Window
	if window == 0 {
		window = rl.config.Window
	}
	return limit.Requests, window, best
}

// Handler returns the Fiber middleware handler
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := rl.config.KeyGenerator(c)
		if key == "" {
			return c.Next()
		}

		limit, window, bucket := rl.limitFor(c.Path())
		if bucket != "" {
			key += "|" + bucket
		}

		now := time.Now()

		rl.mu.Lock()
		limiter, exists := rl.limiters[key]

		if !exists || now.After(limiter.windowEnd) {
			// Create new window
			newLimiter := &clientLimiter{
				count:      1,
				windowEnd:  now.Add(window),
				lastAccess: now,
				window:     window,
			}
			rl.limiters[key] = newLimiter
			rl.mu.Unlock()

			// Set rate limit headers
			c.Set("X-RateLimit-Limit", intToString(limit))
			c.Set("X-RateLimit-Remaining", intToString(limit-1))
			c.Set("X-RateLimit-Reset", newLimiter.windowEnd.Format(time.RFC3339))

			return c.Next()
		}

		// Increment counter
		limiter.count++
		limiter.lastAccess = now
		count := limiter.count
		remaining := limit - count
		windowEnd := limiter.windowEnd
		rl.mu.Unlock()

		// Set rate limit headers
		c.Set("X-RateLimit-Limit", intToString(limit))
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Remaining", intToString(remaining))
		c.Set("X-RateLimit-Reset", windowEnd.Format(time.RFC3339))

		// Check if rate limit exceeded
		if count > limit {
			c.Set("Retry-After", intToString(int(time.Until(windowEnd).Seconds())))
			return domain.ErrRateLimitExceeded
		}

		return c.Next()
	}
}

// cleanup removes stale entries
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for key, limiter := range rl.limiters {
				// Remove entries that haven't been accessed in 2 windows
				if now.Sub(limiter.lastAccess) > 2*limiter.window {
					delete(rl.limiters, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// intToString converts int to string without fmt
func intToString(n int) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	if negative {
		n = -n
	}

	digits := make([]byte, 0, 10)
	for n > 0 {
		digits = append(digits, byte('0'+n%10))
		n /= 10
	}

	// Reverse
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}

	if negative {
		return "-" + string(digits)
	}
	return string(digits)
}
