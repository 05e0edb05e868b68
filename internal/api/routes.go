package api

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// Options configures the router. Zero RateRPS and MaxConcurrent disable the
// corresponding limits.
type Options struct {
	Renderer      Renderer
	Logger        *log.Logger
	RateRPS       float64
	RateBurst     int
	MaxConcurrent int
	// TrustedProxies may set X-Forwarded-For and X-Real-IP. Nil trusts
	// none and keys clients by their TCP peer address.
	TrustedProxies []string
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(opts Options) (*gin.Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.CustomRecovery(recovered), requestID(logger), accessLog())
	if opts.RateRPS > 0 {
		r.Use(rateLimit(newLimiterStore(opts.RateRPS, opts.RateBurst)))
	}
	RegisterRoutes(r, &Handlers{renderer: opts.Renderer}, opts.MaxConcurrent)
	return r, nil
}

func RegisterRoutes(r *gin.Engine, h *Handlers, maxConcurrent int) {
	r.GET("/health", health)

	canvas := r.Group("/canvas")
	{
		if maxConcurrent > 0 {
			canvas.Use(concurrencyLimit(maxConcurrent))
		}
		canvas.GET("/fakeml", h.fakeML)
	}
}
