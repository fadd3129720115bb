package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Domenick1991/partnerbooking/api"
	"github.com/Domenick1991/partnerbooking/config"
	"github.com/Domenick1991/partnerbooking/internal/service/audit"
	"github.com/Domenick1991/partnerbooking/internal/service/booking"
	"github.com/Domenick1991/partnerbooking/internal/service/catalog"
	"github.com/Domenick1991/partnerbooking/internal/service/verification"
	"github.com/Domenick1991/partnerbooking/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services is everything the HTTP surface exposes.
type Services struct {
	Bookings      booking.BookingUseCase
	Verifications verification.VerificationUseCase
	Audit         audit.AuditUseCase
	Catalog       catalog.PricingLookup
	Gatherer      prometheus.Gatherer
	// Health reports readiness of the backing stores. Nil means always healthy.
	Health func(ctx context.Context) error
}

// Run starts the HTTP server and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services, log logger.Logger) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewHandler(cfg, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "address", cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownTimeoutSec)*time.Second)
		defer cancel()
		log.Info("shutting down http server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

// NewHandler builds the gin engine with all routes and wraps it with CORS.
func NewHandler(cfg *config.Config, svc Services) http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", func(c *gin.Context) {
		if svc.Health != nil {
			if err := svc.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gatherer := svc.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if cfg.Storage.Root != "" {
		engine.Static("/files/invoices", filepath.Join(cfg.Storage.Root, "invoices"))
	}

	v1 := engine.Group("/api/v1")
	api.NewBookingHandler(svc.Bookings).Register(v1.Group("/bookings"))
	api.NewVerificationHandler(svc.Verifications).Register(v1.Group("/verifications"))
	api.NewAuditHandler(svc.Audit).Register(v1.Group("/audit-logs"))
	api.NewPackageHandler(svc.Catalog).Register(v1.Group("/packages"))

	origins := cfg.HTTP.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Actor-ID", "X-Actor-Role"},
		MaxAge:         300,
	})(engine)
}
