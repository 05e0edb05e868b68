package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/youruser/rankcard/internal/api"
)

func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, port)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, port int) error {
	cfg, logger, compositor, err := setup()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Port = port
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := api.NewRouter(api.Options{
		Renderer:       compositor,
		Logger:         logger,
		RateRPS:        cfg.RateRPS,
		RateBurst:      cfg.RateBurst,
		MaxConcurrent:  cfg.MaxConcurrent,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		return err
	}

	// No write timeout: a slow avatar host may hold a request open.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", "http://localhost"+cfg.Addr())
	logger.Info("limits",
		"rate_rps", cfg.RateRPS,
		"rate_burst", cfg.RateBurst,
		"max_concurrent", cfg.MaxConcurrent,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
