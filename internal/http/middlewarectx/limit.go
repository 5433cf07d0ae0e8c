package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/juju/clock"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
)

// limiterIdleTTL через это время без запросов limiter клиента удаляется.
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters хранит отдельный token bucket на каждый адрес клиента.
// Неактивные клиенты вычищаются не чаще раза в idleTTL.
type clientLimiters struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	rps       rate.Limit
	burst     int
	clock     clock.Clock
	idleTTL   time.Duration
	lastSweep time.Time
}

func newClientLimiters(rps float64, burst int, clk clock.Clock, idleTTL time.Duration) *clientLimiters {
	return &clientLimiters{
		limiters:  make(map[string]*clientLimiter),
		rps:       rate.Limit(rps),
		burst:     burst,
		clock:     clk,
		idleTTL:   idleTTL,
		lastSweep: clk.Now(),
	}
}

func (c *clientLimiters) get(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if now.Sub(c.lastSweep) >= c.idleTTL {
		for k, l := range c.limiters {
			if now.Sub(l.lastSeen) >= c.idleTTL {
				delete(c.limiters, k)
			}
		}
		c.lastSweep = now
	}

	l, ok := c.limiters[key]
	if !ok {
		l = &clientLimiter{limiter: rate.NewLimiter(c.rps, c.burst)}
		c.limiters[key] = l
	}
	l.lastSeen = now
	return l.limiter
}

func (c *clientLimiters) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.limiters)
}

// RateLimitMiddleware ограничивает частоту запросов с одного адреса:
// rps запросов в секунду с запасом burst.
func RateLimitMiddleware(log *slog.Logger, rps float64, burst int) func(http.Handler) http.Handler {
	return rateLimit(log, newClientLimiters(rps, burst, clock.WallClock, limiterIdleTTL))
}

func rateLimit(log *slog.Logger, c *clientLimiters) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !c.get(ip).Allow() {
				log.Warn("too many requests", slog.String("ip", ip))
				response.Fail(w, r, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
