package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/devAIAmiable/assubot-v2-sub001/internal/catalog"
	"github.com/devAIAmiable/assubot-v2-sub001/internal/config"
	"github.com/devAIAmiable/assubot-v2-sub001/internal/handler"
	"github.com/devAIAmiable/assubot-v2-sub001/internal/repository"
	"github.com/devAIAmiable/assubot-v2-sub001/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	log.Printf("AssuBot Comparison Engine")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Load the offer catalog
	cat, err := catalog.Load()
	if err != nil {
		log.Fatalf("Failed to load offer catalog: %v", err)
	}
	log.Println("✅ Offer catalog loaded")

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
		cfg.History.EmbeddingDimensions,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}
	log.Println("✅ Connected to PostgreSQL database")

	// Initialize services
	pricing := service.NewPricingEngine(cat, time.Duration(cfg.Comparison.QuoteDelayMs)*time.Millisecond)

	sessions := service.NewSessionStore(time.Duration(cfg.Comparison.SessionTTLMinutes) * time.Minute)
	defer sessions.Close()

	seed := cfg.Comparison.AnalyzerSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rules := service.NewRuleAnalyzer(seed)

	var analyzer service.QuestionAnalyzer = rules
	if cfg.Assistant.Enabled {
		analyzer = service.NewAIAnalyzer(&cfg.Assistant, rules)
		log.Printf("✅ AI question analyzer enabled")
		log.Printf("   - API Base: %s", cfg.Assistant.APIBase)
		log.Printf("   - Model: %s", cfg.Assistant.Model)
	} else {
		log.Println("⚠️  AI question analyzer disabled - rule-based matching only")
		log.Println("   Set OPENAI_API_KEY environment variable to enable it")
	}

	comparisonService := service.NewComparisonService(
		pricing,
		sessions,
		analyzer,
		service.NewAssistant(),
		repo,
		time.Duration(cfg.History.RetentionDays)*24*time.Hour,
	)

	log.Println("✅ Services initialized")

	// Initialize handlers
	comparisonHandler := handler.NewComparisonHandler(comparisonService, cfg.Comparison.DefaultPageSize, cfg.Comparison.MaxPageSize)
	historyHandler := handler.NewHistoryHandler(comparisonService, 20, 100)
	embeddingHandler := handler.NewEmbeddingHandler(comparisonService, cfg.History.EmbeddingDimensions)

	if cfg.Auth.JWTSecret == "" {
		log.Println("⚠️  JWT_SECRET not set - requests are scoped to the anonymous user")
	}

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "assubot-comparison-engine",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	apiV1.Use(handler.UserAuth(cfg.Auth.JWTSecret))
	{
		// Comparison session endpoints
		apiV1.POST("/comparisons", comparisonHandler.Compare)
		apiV1.POST("/comparisons/:id/results", comparisonHandler.Results)
		apiV1.POST("/comparisons/:id/questions", comparisonHandler.AskQuestion)
		apiV1.POST("/comparisons/:id/chat", comparisonHandler.Chat)

		// Comparison history endpoints
		apiV1.GET("/history", historyHandler.List)
		apiV1.GET("/history/:id", historyHandler.Get)
		apiV1.DELETE("/history/:id", historyHandler.Delete)
		apiV1.DELETE("/history", historyHandler.Clear)

		// Question embedding endpoint
		apiV1.POST("/questions/embeddings/batch", embeddingHandler.BatchUpdate)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Starting server on %s", addr)
	log.Printf("📝 API: http://localhost:%d/api/v1", cfg.Server.Port)

	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	log.Println("✅ Server stopped")
}
