package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"dmchat/internal/blob"
	"dmchat/internal/config"
	"dmchat/internal/db"
	"dmchat/internal/message"
	"dmchat/internal/middleware"
	"dmchat/internal/presence"
	"dmchat/internal/relay"
	"dmchat/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// Durable stores: Postgres in production, memory without a DSN.
	var userRepo user.Repository
	var msgStore message.Store
	if cfg.DBDSN != "" {
		database, err := db.NewDatabase(cfg.DBDSN)
		if err != nil {
			logger.Error("postgres connection failed", "err", err)
			os.Exit(1)
		}
		if err := database.AutoMigrate(); err != nil {
			logger.Error("migration failed", "err", err)
			os.Exit(1)
		}
		userRepo = user.NewSQLRepository(database.Conn)
		msgStore = message.NewPostgresStore(database.Conn)
		logger.Info("connected to postgres")
	} else {
		logger.Warn("DB_DSN not set, using in-memory stores; data will not survive a restart")
		userRepo = user.NewMemoryRepository()
		msgStore = message.NewMemoryStore()
	}

	// Sessions and presence: Redis in production, memory without an address.
	var sessions user.Sessions
	var seen presence.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Error("redis connection failed", "err", err)
			os.Exit(1)
		}
		sessions = user.NewRedisSessions(rdb)
		seen = presence.NewRedisStore(rdb)
		logger.Info("connected to redis")
	} else {
		logger.Warn("REDIS_ADDR not set, using in-memory sessions and presence")
		sessions = user.NewMemorySessions()
		seen = presence.NewMemoryStore()
	}

	bdb, err := badger.Open(badger.DefaultOptions(cfg.BlobPath).WithLoggingLevel(badger.ERROR))
	if err != nil {
		logger.Error("blob store open failed", "path", cfg.BlobPath, "err", err)
		os.Exit(1)
	}
	defer bdb.Close()
	blobs := blob.NewStore(bdb)

	// The registry is the single shared live-connection map; everything that
	// needs live push gets this one instance.
	registry := relay.NewRegistry()

	userSvc := user.NewService(userRepo, sessions, blobs, cfg.JWTSecret, cfg.TokenTTL)
	userHandler := user.NewHandler(userSvc, registry, seen, logger)

	msgSvc := message.NewService(msgStore, registry, blobs, logger)
	msgHandler := message.NewHandler(msgSvc, logger)

	relayHandler := relay.NewHandler(registry, msgSvc, seen, logger)
	blobHandler := blob.NewHandler(blobs, logger)

	auth := middleware.NewAuth(userSvc)

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Public routes
	r.Post("/api/auth/signup", userHandler.Signup)
	r.Post("/api/auth/signin", userHandler.Signin)
	r.Get("/blobs/{id}", blobHandler.Serve)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Handle)
		r.Post("/api/auth/logout", userHandler.Logout)
		r.Get("/api/auth/check", userHandler.Check)
		r.Put("/api/auth/profile", userHandler.UpdateProfile)

		r.Get("/api/users", userHandler.Roster)
		r.Get("/api/conversation/{peerID}", msgHandler.GetConversation)
		r.Post("/api/messages/{peerID}", msgHandler.SendMessage)
		r.Put("/api/messages/{peerID}/read", msgHandler.MarkRead)

		r.Get("/ws", relayHandler.ServeWs)
	})

	logger.Info("server starting", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
