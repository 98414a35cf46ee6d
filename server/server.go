package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tunecrate/cache"
	"tunecrate/config"
	"tunecrate/core/auth"
	"tunecrate/core/youtube"
	"tunecrate/db"
	"tunecrate/logger"
	"tunecrate/repository"
	"tunecrate/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrate(); err != nil {
		logger.Fatal("Failed to migrate database schema", logger.ErrorField(err))
	}

	// Redis and MinIO are best-effort; the service runs without either.
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, metadata caching disabled", logger.ErrorField(err))
	} else {
		defer db.CloseRedis()
		logger.Info("Successfully connected to Redis")
	}

	if err := storage.InitMinio(cfg); err != nil {
		logger.Warn("MinIO unavailable, thumbnail mirroring disabled", logger.ErrorField(err))
	}

	userRepo := repository.NewGormUserRepository(db.GormDB)
	songRepo := repository.NewGormSongRepository(db.GormDB)
	playlistRepo := repository.NewGormPlaylistRepository(db.GormDB)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	ytClient := youtube.NewClient(cfg.YouTubeAPIKey, cfg.YouTubeAPIBase, nil)
	metadata := cache.NewMetadataCache(db.RedisClient, ytClient)

	apiHandler := NewAPIHandler(userRepo, songRepo, playlistRepo, metadata, tokens, cfg)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      NewRouter(apiHandler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}

// NewRouter builds the route table for the API.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()

	router.Use(corsMiddleware)
	router.Use(requestLogMiddleware)

	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)

	// Auth
	router.HandleFunc("/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/auth/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/auth/me", h.AuthMiddleware(h.MeHandler)).Methods(http.MethodGet)

	// Songs
	router.HandleFunc("/songs", h.AuthMiddleware(h.GetSongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/songs", h.AuthMiddleware(h.CreateSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/songs/{id}", h.AuthMiddleware(h.GetSongHandler)).Methods(http.MethodGet)
	router.HandleFunc("/songs/{id}", h.AuthMiddleware(h.UpdateSongHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/songs/{id}", h.AuthMiddleware(h.DeleteSongHandler)).Methods(http.MethodDelete)

	// Playlists
	router.HandleFunc("/playlists", h.AuthMiddleware(h.GetPlaylistsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/playlists", h.AuthMiddleware(h.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/playlists/{id}", h.AuthMiddleware(h.GetPlaylistHandler)).Methods(http.MethodGet)
	router.HandleFunc("/playlists/{id}", h.AuthMiddleware(h.UpdatePlaylistHandler)).Methods(http.MethodPut)
	router.HandleFunc("/playlists/{id}", h.AuthMiddleware(h.DeletePlaylistHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/playlists/{id}/songs", h.AuthMiddleware(h.GetPlaylistSongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/playlists/{id}/songs", h.AuthMiddleware(h.AddPlaylistSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/playlists/{id}/songs/{songId}", h.AuthMiddleware(h.RemovePlaylistSongHandler)).Methods(http.MethodDelete)

	// Playback session
	router.HandleFunc("/player/ws", h.AuthMiddleware(h.PlayerSessionHandler)).Methods(http.MethodGet)

	// Mirrored thumbnails and other stored media. Served without auth so
	// image tags can load them directly.
	router.PathPrefix("/media/").Handler(NewMediaHandler(h.cfg)).Methods(http.MethodGet)

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("[HTTP] request handled",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Duration("elapsed", time.Since(start)))
	})
}
