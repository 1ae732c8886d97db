package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"property-appraisal/internal/cleanup"
	"property-appraisal/internal/config"
	"property-appraisal/internal/handlers"
	"property-appraisal/internal/history"
	"property-appraisal/internal/inference"
	"property-appraisal/internal/pipeline"
	"property-appraisal/internal/ratelimit"
	"property-appraisal/internal/scheduler"
	"property-appraisal/internal/search"
	"property-appraisal/internal/store"
	"property-appraisal/internal/webcontext"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	appConfig    *config.Config
	appStore     store.Store
	searchClient *search.SearchClient
	rateLimiter  *ratelimit.RateLimiter
	appScheduler *scheduler.Scheduler
)

func main() {
	// Load configuration
	configPath := getEnv("CONFIG_PATH", "/app/config/appraisal_config.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// Initialize database based on configuration
	dbType := appConfig.Database.Type
	if dbType == "" {
		dbType = getEnv("DB_TYPE", "mysql")
	}

	if dbType == "mysql" {
		log.Println("Using MySQL with GORM")
		mysqlCfg := appConfig.Database.MySQL

		gormStore, err := store.NewGormStore(
			getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "mysql"),
			portOrEnv(mysqlCfg.Port, "DB_PORT", 3306),
			getEnvOrConfig(mysqlCfg.User, "DB_USER", "appraisal_user"),
			getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", "appraisal_pass"),
			getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "appraisal_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		defer gormStore.Close()

		if err := gormStore.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		appStore = gormStore
	} else {
		log.Println("Using PostgreSQL")
		pgCfg := appConfig.Database.Postgres

		pgStore, err := store.NewPostgresStore(
			getEnvOrConfig(pgCfg.Host, "DB_HOST", "db"),
			portOrEnv(pgCfg.Port, "DB_PORT", 5432),
			getEnvOrConfig(pgCfg.User, "DB_USER", "appraisal_user"),
			getEnvOrConfig(pgCfg.Password, "DB_PASSWORD", "appraisal_pass"),
			getEnvOrConfig(pgCfg.Database, "DB_NAME", "appraisal_db"),
			pgCfg.SSLMode,
		)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pgStore.Close()

		if err := pgStore.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		appStore = pgStore
	}

	// Initialize Meilisearch using config
	meilisearchHost := appConfig.Search.Meilisearch.Host
	if meilisearchHost == "" {
		meilisearchHost = getEnv("MEILISEARCH_HOST", "http://meilisearch:7700")
	}
	meilisearchKey := appConfig.Search.Meilisearch.APIKey
	if meilisearchKey == "" {
		meilisearchKey = getEnv("MEILISEARCH_KEY", "masterKey123")
	}

	searchClient = search.NewSearchClient(meilisearchHost, meilisearchKey)

	// Wait for Meilisearch to be ready
	time.Sleep(2 * time.Second)

	if err := searchClient.InitIndex(); err != nil {
		log.Printf("Warning: Failed to initialize search index: %v", err)
	}

	// Initialize inference gateway
	apiKey := getEnvOrConfig(appConfig.Inference.APIKey, "GEMINI_API_KEY", "")
	if apiKey == "" {
		log.Fatal("Inference API key is required (set inference.api_key or GEMINI_API_KEY)")
	}
	gemini, err := inference.NewGeminiGateway(context.Background(), apiKey, appConfig.Inference.Model)
	if err != nil {
		log.Fatalf("Failed to initialize inference gateway: %v", err)
	}
	defer gemini.Close()

	breaker := inference.NewCircuitBreaker(
		appConfig.Inference.FailureThreshold,
		appConfig.Inference.GetResetTimeout(),
	)
	gateway := inference.NewBreakerGateway(gemini, breaker)
	log.Printf("Inference gateway initialized (model: %s, breaker threshold: %d)",
		appConfig.Inference.Model, appConfig.Inference.FailureThreshold)

	// Initialize rate limiter
	rateLimiter = ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.RequestsPerDay,
		appConfig.RateLimit.Enabled,
	)
	log.Printf("Rate limiter initialized: %d req/min, %d req/hour, %d req/day (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.RequestsPerDay,
		appConfig.RateLimit.Enabled,
	)

	// Web context fetcher for market-aware insight prompts
	var webFetcher pipeline.WebContextProvider
	if appConfig.Inference.UseWebContext && len(appConfig.WebContext.Sources) > 0 {
		webFetcher = webcontext.NewFetcher(
			appConfig.WebContext.Sources,
			appConfig.WebContext.Selector,
			appConfig.WebContext.MaxSnippets,
			appConfig.WebContext.GetTimeout(),
			appConfig.WebContext.UserAgent,
		)
		log.Printf("Web context fetcher initialized with %d sources", len(appConfig.WebContext.Sources))
	}

	historyService := history.NewService(appStore)
	cleanupService := cleanup.NewService(appStore, searchClient)

	appPipeline := pipeline.New(appStore, gateway, pipeline.Options{
		PhotoFetcher:      inference.NewPhotoFetcher(appConfig.Inference.GetTimeout()),
		WebContext:        webFetcher,
		History:           historyService,
		Search:            searchClient,
		BaselineYearBuilt: appConfig.Pipeline.BaselineYearBuilt,
		UseWebContext:     appConfig.Inference.UseWebContext,
	})

	// Daily orphan sweep
	appScheduler = scheduler.NewScheduler(cleanupService, appConfig)
	if err := appScheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start scheduler: %v", err)
	}
	defer appScheduler.Stop()

	// Setup Gin router
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5176"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	propertyHandler := handlers.NewPropertyHandler(appPipeline, appStore, historyService, searchClient, rateLimiter)
	adminHandler := handlers.NewAdminHandler(appStore, appScheduler, cleanupService, breaker, rateLimiter)

	// Routes
	r.GET("/health", healthCheck)

	r.POST("/api/properties/digitize", propertyHandler.Digitize)
	r.POST("/api/properties/:id/revalue", propertyHandler.Revalue)
	r.GET("/api/properties/:id", propertyHandler.GetProperty)
	r.GET("/api/properties/:id/reports", propertyHandler.GetReports)
	r.GET("/api/properties/:id/reports/:type", propertyHandler.GetReportByType)
	r.GET("/api/properties/:id/history", propertyHandler.GetHistory)
	r.GET("/api/search", propertyHandler.Search)

	// Rate limiter stats endpoint
	r.GET("/api/ratelimit/stats", adminHandler.GetRateLimitStats)

	// Admin API routes (requires authentication in production)
	admin := r.Group("/api/admin")
	{
		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/runs", adminHandler.GetRecentRuns)
		admin.GET("/inference/status", adminHandler.GetInferenceStatus)
		admin.GET("/orphans", adminHandler.GetOrphans)

		// Cleanup operations
		admin.POST("/sweep/trigger", adminHandler.TriggerSweep)
		admin.POST("/cleanup/run", adminHandler.RunCleanup)
		admin.GET("/cleanup/logs", adminHandler.GetDeleteLogs)
	}
	log.Println("Admin API routes registered at /api/admin/*")

	port := getEnv("PORT", "8084")
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "property-appraisal",
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}

// portOrEnv returns the configured port if set, otherwise the environment
// variable, then the default
func portOrEnv(configValue int, envKey string, defaultValue int) int {
	if configValue > 0 {
		return configValue
	}
	if value := os.Getenv(envKey); value != "" {
		if port, err := strconv.Atoi(value); err == nil {
			return port
		}
	}
	return defaultValue
}
