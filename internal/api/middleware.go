package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

// requestID tags the request with an id (taken from the client when sent)
// and stores a logger carrying it.
func requestID(base *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Set(loggerKey, base.With("request_id", id))
		c.Next()
	}
}

func loggerFrom(c *gin.Context) *log.Logger {
	if l, ok := c.Get(loggerKey); ok {
		if logger, ok := l.(*log.Logger); ok {
			return logger
		}
	}
	return log.Default()
}

// recovered answers a panicking request like any other render failure.
func recovered(c *gin.Context, err any) {
	loggerFrom(c).Error("panic", "err", err)
	c.String(http.StatusInternalServerError, canvasError)
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		loggerFrom(c).Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"duration", time.Since(start).Round(time.Millisecond),
		)
	}
}

// limiterStore keeps one token bucket per client key. Idle buckets are
// dropped lazily on access once cleanupEvery has passed.
type limiterStore struct {
	mu           sync.Mutex
	entries      map[string]*limiterEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
	lastCleanup  time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(rps float64, burst int) *limiterStore {
	return &limiterStore{
		entries:      make(map[string]*limiterEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		lastCleanup:  time.Now(),
	}
}

func (s *limiterStore) allow(key string) bool {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastCleanup) >= s.cleanupEvery {
		s.cleanup(now)
	}

	ent, ok := s.entries[key]
	if !ok {
		ent = &limiterEntry{lim: rate.NewLimiter(s.rps, s.burst)}
		s.entries[key] = ent
	}
	ent.lastSeen = now
	return ent.lim.AllowN(now, 1)
}

// cleanup must be called with mu held.
func (s *limiterStore) cleanup(now time.Time) {
	cutoff := now.Add(-s.idleTTL)
	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
	s.lastCleanup = now
}

func rateLimit(store *limiterStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !store.allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}

// concurrencyLimit caps in-flight requests. Waiters give up when their
// request context ends.
func concurrencyLimit(n int) gin.HandlerFunc {
	sem := make(chan struct{}, n)
	return func(c *gin.Context) {
		select {
		case sem <- struct{}{}:
		case <-c.Request.Context().Done():
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		defer func() { <-sem }()
		c.Next()
	}
}
