package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"journeybot/internal/cache"
	"journeybot/internal/config"
	"journeybot/internal/repository"
	"journeybot/internal/service"
	"journeybot/internal/transport/rest"
	"journeybot/internal/transport/ws"
)

// @title Journey Bot API
// @version 1.0
// @description Guided developmental screening conversation service
// @host localhost:8080
// @BasePath /v1
func main() {
	log.Println("started")
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment directly")
	}

	cfg := config.Load()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	redisAddr := strings.TrimPrefix(cfg.RedisAddr, "redis://")

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	catalogRepo := repository.NewCatalogRepo(db)
	responseRepo := repository.NewResponseRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	childRepo := repository.NewChildRepo(db)

	// Initialize caches
	catalogCache := cache.NewCatalogCache(rdb)
	convCache := cache.NewConversationCache(rdb, cfg.SnapshotTTL)

	// Initialize services
	authSvc := service.NewAuthService(cfg)
	catalogSvc := service.NewCatalogService(catalogRepo, catalogCache)
	personalizer := service.NewPersonalizer()
	convSvc := service.NewConversationService(cfg, catalogSvc, authSvc, childRepo, responseRepo, sessionRepo, convCache, personalizer)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	convSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService:         authSvc,
		CatalogService:      catalogSvc,
		ConversationService: convSvc,
		WSHub:               wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST /v1/conversations/{childId}/start")
		log.Println("  GET  /v1/conversations/state")
		log.Println("  POST /v1/conversations/answer|advance|back|retry|close")
		log.Println("  GET  /v1/catalog/metadata")
		log.Println("  POST/GET /v1/modules")
		log.Println("  POST/GET /v1/children")
		log.Println("  WS  /v1/ws/conversations")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
