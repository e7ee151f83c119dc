package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xtrntr/ligabets/internal/api"
	"github.com/xtrntr/ligabets/internal/auth"
	"github.com/xtrntr/ligabets/internal/config"
	"github.com/xtrntr/ligabets/internal/hub"
	"github.com/xtrntr/ligabets/internal/ledger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Main entry point: sets up ledger, auth, websocket hub and HTTP server
func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.ConfigureLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize ledger (users, matches and bets live in memory)
	opts := ledger.DefaultOptions()
	opts.StartingBalance = decimal.NewFromInt(cfg.Ledger.StartingBalance)
	opts.AdminUsername = cfg.Ledger.AdminUsername
	opts.AdminEmail = cfg.Ledger.AdminEmail
	opts.AdminPassword = cfg.Ledger.AdminPassword
	opts.Hasher = auth.NewHasher(cfg.Auth.PasswordSalt)
	opts.Logger = log.WithField("env", cfg.App.Env)
	l, err := ledger.New(opts)
	if err != nil {
		log.Fatalf("Failed to initialize ledger: %v", err)
	}

	// Initialize auth service
	authService := auth.NewAuthService(l, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Initialize websocket hub and API handlers
	h := hub.New(cfg.App.AllowedOrigins)
	defer h.Close()
	handler := api.NewHandler(l, authService, h)

	// Set up HTTP router
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	handler.Routes(r)

	// Start periodic leaderboard broadcast
	go h.Run(ctx, cfg.App.BroadcastInterval, handler.LeaderboardMessage)

	srv := &http.Server{
		Addr:              cfg.App.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("Received shutdown signal, shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Server shutdown failed: %v", err)
		}
	}()

	log.Infof("Starting server on %s (%s mode)", cfg.App.Addr, cfg.App.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	log.Info("Shutdown completed")
}
