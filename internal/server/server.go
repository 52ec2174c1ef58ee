// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware and
// routes, and decides:
// - Which URL patterns map to which handler functions
// - Which routes need a token
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go loads config.Config and a logger and passes them to New, which creates:
//
//	sqlite.DB → Ledger → TokenService
//	          → AuthService / ShoppingListService / ItemService
//	          → AuthHandler / ShoppingListHandler / ItemHandler
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/flacode/shopping-list-api/internal/auth"
	"github.com/flacode/shopping-list-api/internal/config"
	"github.com/flacode/shopping-list-api/internal/handler"
	"github.com/flacode/shopping-list-api/internal/middleware"
	sqliteRepo "github.com/flacode/shopping-list-api/internal/repository/sqlite"
	"github.com/flacode/shopping-list-api/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. Start closes it on the way out;
// callers that never Start (tests) call Close.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	tokens *auth.TokenService
}

// New opens the database, runs migrations and wires every layer.
//
// IMPORT ALIAS:
// repository/sqlite is imported as `sqliteRepo` to avoid confusion with
// the sqlite driver package.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sqliteRepo.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	ledger := auth.NewLedger(db.RevokedTokens())
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.JWTSecret,
		TTL:    cfg.TokenTTL,
		Issuer: cfg.Issuer,
	}, ledger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	passwords, err := auth.NewPasswordService(cfg.BcryptCost)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating password service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		tokens: tokens,
	}

	accounts := service.NewAuthService(db.Users(), tokens, ledger, passwords, logger)
	lists := service.NewShoppingListService(db.ShoppingLists(), logger)
	items := service.NewItemService(db.ShoppingLists(), db.Items(), logger)

	s.setupRoutes(
		handler.NewAuthHandler(accounts, logger),
		handler.NewShoppingListHandler(lists, logger),
		handler.NewItemHandler(items, logger),
	)
	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /auth/register                          → create account
//	POST   /auth/login                             → get access token
//	POST   /auth/reset-password                    → change password
//	POST   /auth/logout                   [token]  → revoke token
//	GET    /auth/users                             → list accounts
//	GET    /auth/user/{id}                         → one account
//	DELETE /auth/user/{id}                         → delete account
//	POST   /shoppinglists                 [token]  → create list
//	GET    /shoppinglists                 [token]  → page of lists (?q&limit&page)
//	GET    /shoppinglists/{id}            [token]
//	PUT    /shoppinglists/{id}            [token]
//	DELETE /shoppinglists/{id}            [token]
//	POST   /shoppinglists/{id}/items      [token]
//	GET    /shoppinglists/{id}/items      [token]
//	PUT    /shoppinglists/{id}/items/{item_id}     [token]
//	DELETE /shoppinglists/{id}/items/{item_id}     [token]
//
// Every path also answers with a trailing slash (StripSlashes).
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (the access log prints it)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. StripSlashes: "/shoppinglists/" routes like "/shoppinglists"
func (s *Server) setupRoutes(authH *handler.AuthHandler, listH *handler.ShoppingListHandler, itemH *handler.ItemHandler) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.StripSlashes)

	requireAuth := auth.RequireAuth(s.tokens, s.logger)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authH.HandleRegister)
		r.Post("/login", authH.HandleLogin)
		r.Post("/reset-password", authH.HandleResetPassword)
		r.With(requireAuth).Post("/logout", authH.HandleLogout)

		// Account admin routes are open, as they always have been.
		r.Get("/users", authH.HandleListUsers)
		r.Get("/user/{id}", authH.HandleGetUser)
		r.Delete("/user/{id}", authH.HandleDeleteUser)
	})

	s.router.Route("/shoppinglists", func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/", listH.HandleCreate)
		r.Get("/", listH.HandleList)
		r.Get("/{id}", listH.HandleGet)
		r.Put("/{id}", listH.HandleUpdate)
		r.Delete("/{id}", listH.HandleDelete)

		r.Post("/{id}/items", itemH.HandleAdd)
		r.Get("/{id}/items", itemH.HandleList)
		r.Put("/{id}/items/{item_id}", itemH.HandleUpdate)
		r.Delete("/{id}/items/{item_id}", itemH.HandleDelete)
	})
}

// Handler returns the fully wired router. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.Duration("tokenTTL", s.config.TokenTTL),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
