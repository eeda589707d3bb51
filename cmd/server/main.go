package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/todolist/backend/internal/auth"
	"github.com/ayush/todolist/backend/internal/config"
	"github.com/ayush/todolist/backend/internal/server"
	"github.com/ayush/todolist/backend/internal/store"
	"github.com/ayush/todolist/backend/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.Printf("starting with %s", cfg)
	ctx := context.Background()

	// ── Redis (optional task cache) ──────────────────────────
	var cache store.TaskCache = store.NoCache{}
	if cfg.CacheEnabled() {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis connect: %v", err)
		}
		defer rdb.Close()
		cache = store.NewRedisCache(rdb)
	} else {
		log.Println("REDIS_URL not set, task cache disabled")
	}

	// ── SQL ──────────────────────────────────────────────────
	db, err := store.Open(ctx, cfg.DBDriver, cfg.DSN(), cache)
	if err != nil {
		log.Fatalf("%s connect: %v", cfg.DBDriver, err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("%s migrate: %v", cfg.DBDriver, err)
	}

	// ── MongoDB (optional activity log) ──────────────────────
	var activity auth.ActivityLog
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("mongo connect: %v", err)
		}
		defer mongoClient.Disconnect(ctx)
		activity = store.NewMongoActivityLog(mongoClient.Database(cfg.MongoDB))
	}

	// ── MinIO (optional task archive) ────────────────────────
	var archive auth.Archive
	if cfg.MinioEndpoint != "" {
		minioArchive, err := store.NewMinioArchive(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			log.Fatalf("minio connect: %v", err)
		}
		archive = minioArchive
	}

	tokens, err := auth.NewIssuer(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	// ── Handlers ─────────────────────────────────────────────
	userHandler := auth.NewHandler(db, tokens, activity, archive)
	taskHandler := tasks.NewHandler(db)

	r := server.NewRouter(server.Options{
		Tokens:         tokens,
		Users:          userHandler,
		Tasks:          taskHandler,
		AllowedOrigins: cfg.CORSOrigins,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("todolist API listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
