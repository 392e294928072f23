package httpapi

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// limiterIdle is how long a client's bucket survives without requests.
const limiterIdle = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	limiters sync.Map // ip -> *clientLimiter
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

// NewIPRateLimiter creates a limiter allowing r requests per second with the given burst.
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		rate:  r,
		burst: burst,
		now:   time.Now,
	}
}

func (i *IPRateLimiter) getLimiter(ip string) *clientLimiter {
	if v, ok := i.limiters.Load(ip); ok {
		return v.(*clientLimiter)
	}
	v, _ := i.limiters.LoadOrStore(ip, &clientLimiter{limiter: rate.NewLimiter(i.rate, i.burst)})
	return v.(*clientLimiter)
}

// Allow reports whether ip may make another request now.
func (i *IPRateLimiter) Allow(ip string) bool {
	cl := i.getLimiter(ip)
	now := i.now()

	cl.mu.Lock()
	cl.lastSeen = now
	cl.mu.Unlock()

	return cl.limiter.AllowN(now, 1)
}

// Sweep drops buckets of clients idle for longer than limiterIdle.
func (i *IPRateLimiter) Sweep() int {
	cutoff := i.now().Add(-limiterIdle)
	n := 0
	i.limiters.Range(func(key, value any) bool {
		cl := value.(*clientLimiter)
		cl.mu.Lock()
		idle := cl.lastSeen.Before(cutoff)
		cl.mu.Unlock()
		if idle {
			i.limiters.Delete(key)
			n++
		}
		return true
	})
	return n
}

// Middleware rejects requests over the limit with 429.
func (i *IPRateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !i.Allow(c.IP()) {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many requests")
		}
		return c.Next()
	}
}
