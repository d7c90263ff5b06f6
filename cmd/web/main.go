package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"finitefield.org/storefront-web/internal/cart"
	"finitefield.org/storefront-web/internal/catalog"
	"finitefield.org/storefront-web/internal/config"
	"finitefield.org/storefront-web/internal/i18n"
	"finitefield.org/storefront-web/internal/metrics"
	mw "finitefield.org/storefront-web/internal/middleware"
	"finitefield.org/storefront-web/internal/observability"
	"finitefield.org/storefront-web/internal/storage"
)

// app bundles the process-wide dependencies of the storefront handlers.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	slot      storage.Backend
	carts     *cart.Manager
	catalog   *catalog.Catalog
	i18n      *i18n.Bundle
	sessions  *mw.SessionManager
	metrics   *metrics.CartMetrics
	registry  *prometheus.Registry
	templates *templateSet
}

func main() {
	cfg, err := config.Load(envFiles()...)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init app", zap.Error(err))
	}
	defer func() {
		if err := a.slot.Close(); err != nil {
			logger.Warn("close cart storage", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverLogger := logger.Named("http").With(zap.String("addr", srv.Addr))
	go func() {
		serverLogger.Info("storefront listening",
			zap.String("env", cfg.App.Env),
			zap.String("storage", cfg.Storage.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// envFiles returns the .env file to preload when one exists in the working directory.
func envFiles() []string {
	if _, err := os.Stat(".env"); err == nil {
		return []string{".env"}
	}
	return nil
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	slot, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		_ = slot.Close()
		return nil, err
	}
	bundle, err := i18n.Load(cfg.Locales.Dir, cfg.Locales.Default, cfg.Locales.Supported)
	if err != nil {
		_ = slot.Close()
		return nil, err
	}
	sessions, err := mw.NewSessionManager(cfg.Session)
	if err != nil {
		_ = slot.Close()
		return nil, err
	}
	if cfg.Session.HashKey == "" {
		logger.Warn("session keys not configured; cookies will not survive a restart")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	tmpl := newTemplateSet(cfg.Templates.Dir, cfg.App.IsDev(), bundle)
	if !tmpl.dev {
		if _, err := tmpl.load(); err != nil {
			_ = slot.Close()
			return nil, err
		}
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		slot:      slot,
		carts:     cart.NewManager(slot, logger.Named("cart")),
		catalog:   cat,
		i18n:      bundle,
		sessions:  sessions,
		metrics:   metrics.NewCartMetrics(reg),
		registry:  reg,
		templates: tmpl,
	}, nil
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP.
	r.Use(middleware.RealIP)
	r.Use(observability.TraceMiddleware(nil))
	r.Use(mw.HTMX)
	r.Use(mw.Logger(a.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(a.cfg.Server.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	assets := http.StripPrefix("/assets", mw.AssetsWithCache(filepath.Join(a.cfg.Server.PublicDir, "assets")))
	r.Handle("/assets/*", assets)

	r.Group(func(r chi.Router) {
		r.Use(a.sessions.Session)
		r.Use(mw.Locale(a.i18n))
		r.Use(mw.CSRF(a.cfg.Session.Secure))
		r.Use(mw.VaryLocale)

		r.Get("/", a.StorefrontHandler)
		r.Post("/cart/click", a.CartClickHandler)
		r.Post("/cart/clear", a.CartClearHandler)
		r.Get("/cart.json", a.CartJSONHandler)
	})
	return r
}
