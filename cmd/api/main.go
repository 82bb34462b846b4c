package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shop-agent/backend/internal/adapters"
	"github.com/shop-agent/backend/internal/adapters/postgres"
	"github.com/shop-agent/backend/internal/adapters/sqlite"
	"github.com/shop-agent/backend/internal/analytics"
	"github.com/shop-agent/backend/internal/api/handlers"
	"github.com/shop-agent/backend/internal/cache"
	"github.com/shop-agent/backend/internal/chat"
	"github.com/shop-agent/backend/internal/history"
	"github.com/shop-agent/backend/internal/ingestion"
	"github.com/shop-agent/backend/internal/llm"
	"github.com/shop-agent/backend/internal/metrics"
	"github.com/shop-agent/backend/internal/middleware/ratelimit"
	"github.com/shop-agent/backend/internal/middleware/security"
	"github.com/shop-agent/backend/internal/middleware/validation"
	"github.com/shop-agent/backend/internal/retrieval"
	"github.com/shop-agent/backend/internal/vector"
	"github.com/shop-agent/backend/internal/vector/memory"
	"github.com/shop-agent/backend/internal/vector/milvus"
	"github.com/shop-agent/backend/internal/watcher"
	"github.com/shop-agent/backend/pkg/config"
	appLogger "github.com/shop-agent/backend/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting shop agent API server")

	ctx := context.Background()

	// Redis backs both the response cache and session history; without it
	// both fall back to in-process implementations.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			appLogger.Warn("Redis unreachable, using in-process cache and history", zap.Error(err))
			redisClient = nil
		}
	}

	var respCache cache.Cache
	var hist history.Manager
	if redisClient != nil {
		respCache = cache.NewRedisCache(redisClient)
		hist = history.NewRedisManager(redisClient, cfg.Chat.HistoryLimit)
	} else {
		respCache = cache.NewMemoryCache()
		hist = history.NewMemoryManager(cfg.Chat.HistoryLimit)
	}

	var store vector.Store
	switch cfg.Vector.Provider {
	case "milvus":
		milvusClient, err := milvus.NewClient(cfg.Vector.Endpoint, cfg.Vector.APIKey, cfg.Vector.CollectionName, cfg.Vector.Dim)
		if err != nil {
			appLogger.Fatal("Failed to create Milvus client", zap.Error(err))
		}
		defer milvusClient.Close()
		if err := milvusClient.EnsureCollection(ctx); err != nil {
			appLogger.Fatal("Failed to ensure collection", zap.Error(err))
		}
		store = milvusClient
	default:
		store = memory.New()
	}

	var llmClient *llm.Client
	if cfg.LLM.APIKey != "" {
		llmClient = llm.NewClient(
			cfg.LLM.APIKey,
			cfg.LLM.Model,
			cfg.LLM.EmbeddingModel,
			cfg.LLM.Temperature,
			cfg.LLM.MaxTokens,
			cfg.LLM.EmbedBatchSize,
		)
	} else {
		appLogger.Warn("No LLM API key configured, chat degrades to heuristic answers")
	}

	var adapter adapters.DatabaseAdapter
	switch cfg.Database.Driver {
	case "sqlite":
		adapter, err = sqlite.New(cfg.Database.DSN)
	case "postgres":
		adapter, err = postgres.New(ctx, cfg.Database.DSN)
	case "":
		appLogger.Warn("No database driver configured, chat tools disabled")
	default:
		appLogger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		appLogger.Fatal("Failed to create database adapter", zap.Error(err))
	}
	if adapter != nil {
		defer adapter.Close()
	}

	analyticsStore, err := analytics.NewStore(cfg.Analytics.Path)
	if err != nil {
		appLogger.Fatal("Failed to open analytics store", zap.Error(err))
	}
	defer analyticsStore.Close()

	sink := analytics.NewSink(analyticsStore, cfg.Analytics.BufferSize)
	defer sink.Close()

	embedCache := cache.NewEmbeddingCache(respCache, time.Duration(cfg.Chat.EmbedCacheTTLMins)*time.Minute)

	var retriever chat.Retriever
	var ingestor *ingestion.Ingestor
	if llmClient != nil {
		retriever = retrieval.NewRetriever(store, llmClient, embedCache, cfg.Chat.TopK)
		ingestor = ingestion.NewIngestor(store, llmClient, embedCache, cfg.Chat.ChunkSize, cfg.Chat.ChunkOverlap)
	}

	orchestrator := chat.NewOrchestrator(
		modelProvider(llmClient),
		retriever,
		hist,
		respCache,
		adapter,
		chat.Options{
			HighConfidence: cfg.Chat.HighConfidence,
			CacheTTL:       time.Duration(cfg.Chat.CacheTTLSeconds) * time.Second,
			Temperature:    cfg.LLM.Temperature,
		},
	)

	if ingestor != nil {
		seedKnowledge(ctx, cfg, ingestor)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: cfg.RateLimit.RequestsPerMinute})
	defer limiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Session-ID",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))
	app.Use(security.Headers(security.HeadersConfig{IsDevelopment: cfg.Logging.Level == "debug"}))
	app.Use(limiter.Middleware())

	chatHandler := handlers.NewChatHandler(orchestrator, sink)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsStore)
	wsHandler := handlers.NewWebSocketHandler(orchestrator, sink)

	api := app.Group("/api/v1", validation.Middleware(validation.Config{}))

	api.Post("/chat", chatHandler.HandleChat)

	if ingestor != nil {
		faqHandler := handlers.NewFAQHandler(ingestor)
		api.Post("/faq", faqHandler.HandleUpload)
		api.Delete("/faq/:sourceId", faqHandler.HandleDelete)
	}

	api.Get("/analytics/overview", analyticsHandler.HandleOverview)
	api.Get("/analytics/daily", analyticsHandler.HandleDaily)
	api.Get("/analytics/topics", analyticsHandler.HandleTopics)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.Handler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", websocket.New(wsHandler.HandleConnection))

	var knowledgeWatcher *watcher.Watcher
	if ingestor != nil && cfg.Knowledge.WatchDir != "" {
		knowledgeWatcher, err = watcher.New(ingestor, cfg.Knowledge.WatchDir)
		if err != nil {
			appLogger.Warn("Failed to start knowledge watcher", zap.Error(err))
		} else {
			defer knowledgeWatcher.Close()
			if err := knowledgeWatcher.SyncExisting(ctx); err != nil {
				appLogger.Warn("Failed to sync knowledge directory", zap.Error(err))
			}
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

// modelProvider keeps a nil *llm.Client from becoming a non-nil interface.
func modelProvider(c *llm.Client) chat.ModelProvider {
	if c == nil {
		return nil
	}
	return c
}

// seedKnowledge ingests the optional seed document on startup so a fresh
// deployment answers FAQ questions before anything is uploaded.
func seedKnowledge(ctx context.Context, cfg *config.Config, ingestor *ingestion.Ingestor) {
	if cfg.Knowledge.SeedFile == "" {
		return
	}
	content, err := os.ReadFile(cfg.Knowledge.SeedFile)
	if err != nil {
		appLogger.Warn("Failed to read seed file", zap.Error(err))
		return
	}
	chunks, err := ingestor.Ingest(ctx, "seed", string(content))
	if err != nil {
		appLogger.Warn("Failed to ingest seed file", zap.Error(err))
		return
	}
	appLogger.Info("Seed knowledge ingested", zap.Int("chunks", chunks))
}
