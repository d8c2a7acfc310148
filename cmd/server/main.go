package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/weddingplanner/weddingplanner/internal/auth"
	"github.com/weddingplanner/weddingplanner/internal/config"
	"github.com/weddingplanner/weddingplanner/internal/database"
	"github.com/weddingplanner/weddingplanner/internal/email"
	"github.com/weddingplanner/weddingplanner/internal/handler"
	"github.com/weddingplanner/weddingplanner/internal/logger"
	"github.com/weddingplanner/weddingplanner/internal/metrics"
	"github.com/weddingplanner/weddingplanner/internal/middleware"
	"github.com/weddingplanner/weddingplanner/internal/payment"
	"github.com/weddingplanner/weddingplanner/internal/repository"
	"github.com/weddingplanner/weddingplanner/internal/router"
	"github.com/weddingplanner/weddingplanner/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", "0.1.0").Msg("starting Wedding Planner server")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Connect to PostgreSQL
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("connected to PostgreSQL")

	// Connect to Redis
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("connected to Redis")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	clientRepo := repository.NewClientRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	tokenSvc, err := auth.NewTokenService(cfg.Security.Tokens)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token service")
	}

	// Outbound email
	sender, err := email.NewSender(context.Background(), cfg.Email, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize email sender")
	}
	mailer := email.NewMailer(sender, cfg.Email, cfg.Chapa.Currency, log)
	log.Info().Str("provider", cfg.Email.Provider).Msg("email sender initialized")

	// Payment gateway
	chapa := payment.NewClient(cfg.Chapa, cfg.CallbackURL())
	log.Info().Str("callback_url", cfg.CallbackURL()).Msg("payment gateway initialized")

	// Initialize services
	authSvc := service.NewAuthService(userRepo, vendorRepo, clientRepo, auditRepo, tokenSvc, cfg.Security.Password, log)
	vendorSvc := service.NewVendorService(vendorRepo, mailer, auditRepo, log)
	catalogSvc := service.NewCatalogService(serviceRepo, vendorRepo, auditRepo, log)
	bookingSvc := service.NewBookingService(bookingRepo, serviceRepo, vendorRepo, clientRepo, mailer, auditRepo, log)
	paymentSvc := service.NewPaymentService(paymentRepo, bookingRepo, clientRepo, chapa, rdb, mailer, auditRepo, cfg.Chapa, log)

	if cfg.Metrics.Enabled {
		metrics.Register()
	}

	// Initialize handlers
	h := handler.New(log, cfg, map[string]handler.HealthChecker{
		"postgres": db,
		"redis":    rdb,
	}, handler.Services{
		Auth:     authSvc,
		Catalog:  catalogSvc,
		Bookings: bookingSvc,
		Payments: paymentSvc,
		Vendors:  vendorSvc,
		Audit:    auditRepo,
	})

	// Initialize middleware
	mw := middleware.New(rdb, log, cfg)

	// Set up router
	r := router.New(h, mw, cfg, tokenSvc)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
