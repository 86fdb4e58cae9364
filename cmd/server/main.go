package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/shortcut-sensei/backend/internal/auth"
	"github.com/shortcut-sensei/backend/internal/clock"
	"github.com/shortcut-sensei/backend/internal/config"
	"github.com/shortcut-sensei/backend/internal/database"
	"github.com/shortcut-sensei/backend/internal/gamification"
	"github.com/shortcut-sensei/backend/internal/identity"
	"github.com/shortcut-sensei/backend/internal/middleware"
	"github.com/shortcut-sensei/backend/internal/recommend"
	"github.com/shortcut-sensei/backend/internal/shortcuts"
	"github.com/shortcut-sensei/backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	catalog := shortcuts.NewStore(db)
	if err := catalog.Seed(ctx); err != nil {
		log.Printf("Failed to seed shortcuts: %v", err)
	}

	// Document storage: writes are queued so engines never wait on Postgres.
	docs := storage.NewAsyncWriter(storage.NewPostgres(db), 256)

	c := clock.System{Location: cfg.Location}
	sessions := gamification.NewSessions(c, docs, docs)
	daily := shortcuts.NewDaily(c, storage.NewRouter(docs, docs, identity.NewSession()), catalog)
	recommender := recommend.NewRecommender(c, catalog, daily, sessions, recommend.NewCoach(cfg))

	// Start background workers
	go sessions.StartDailyStreakWorker(ctx, cfg.StreakCheckInterval)

	// Initialize handlers
	authHandler := auth.NewHandler(db, cfg.JWTSecret)
	gamificationHandler := gamification.NewHandler(sessions)
	shortcutsHandler := shortcuts.NewHandler(catalog, daily, sessions)
	recommendHandler := recommend.NewHandler(recommender)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	authHandler.RegisterPublicRoutes(api)

	// Shortcuts are public; a valid token links learning to the caller's progress
	public := api.PathPrefix("").Subrouter()
	public.Use(middleware.OptionalAuth(cfg.JWTSecret))
	shortcutsHandler.RegisterRoutes(public)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	authHandler.RegisterRoutes(protected)
	gamificationHandler.RegisterRoutes(protected)
	recommendHandler.RegisterRoutes(protected)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}

	// Flush queued document writes before the database closes
	docs.Close()
	log.Println("Server stopped")
}
