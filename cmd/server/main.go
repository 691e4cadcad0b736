package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/catoptric/catoptric/client-go/internal/auth"
	"github.com/catoptric/catoptric/client-go/internal/backend"
	"github.com/catoptric/catoptric/client-go/internal/config"
	"github.com/catoptric/catoptric/client-go/internal/db"
	"github.com/catoptric/catoptric/client-go/internal/export"
	"github.com/catoptric/catoptric/client-go/internal/live"
	mw "github.com/catoptric/catoptric/client-go/internal/middleware"
	"github.com/catoptric/catoptric/client-go/internal/session"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	queries := db.New(pool)

	authService := auth.NewService(queries, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	shareService := session.NewService(queries)
	shareHandler := session.NewHandler(shareService)

	sampler := backend.NewHTTPSampler(cfg.EngineURL)
	exportHandler := export.NewHandler(sampler)

	// Share state loader for the session hub
	stateLoader := func(shareID string) (session.State, error) {
		// Use a background context since this runs in the hub goroutine
		share, err := shareService.Get(context.Background(), shareID)
		if err != nil {
			return session.State{}, err
		}
		return share.State, nil
	}

	hub := live.NewHub(sampler, stateLoader)
	go hub.Run()

	allowedOrigins := strings.Split(cfg.AllowedOrigins, ",")

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(allowedOrigins))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Share endpoints, public: anonymous shares and share-link loads
	r.HandleFunc("/shares", shareHandler.Create).Methods("POST", "OPTIONS")
	r.HandleFunc("/shares/{shareId}", shareHandler.Get).Methods("GET")

	// Export endpoint, public: used by embeds and authenticated users
	r.HandleFunc("/export/frame", exportHandler.ExportFrame).Methods("POST", "OPTIONS")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.RequireViewer)

	api.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/shares", shareHandler.List).Methods("GET")
	api.HandleFunc("/shares", shareHandler.Create).Methods("POST")
	api.HandleFunc("/shares/{shareId}", shareHandler.Delete).Methods("DELETE")

	// WebSocket endpoint
	r.HandleFunc("/ws/session", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, allowedOrigins)
	})

	// Frontend bundle
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir))).Methods("GET")

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *live.Hub, authSvc *auth.Service, allowedOrigins []string) {
	shareID := r.URL.Query().Get("share")

	// Anonymous viewers are welcome; a token upgrades to a named identity.
	userID := "anon-" + uuid.New().String()[:8]
	displayName := "Anonymous"

	if token := auth.TokenFromRequest(r); token != "" {
		viewer, err := authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID = viewer.UserID
		if viewer.DisplayName != "" {
			displayName = viewer.DisplayName
		}
	}

	patterns := make([]string, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		patterns = append(patterns, strings.TrimPrefix(strings.TrimPrefix(o, "http://"), "https://"))
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: patterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := live.NewClient(hub, conn, userID, displayName, shareID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
