package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"visibility-scan-service/analyzer"
	"visibility-scan-service/anthropic"
	"visibility-scan-service/bulk"
	"visibility-scan-service/config"
	"visibility-scan-service/credits"
	"visibility-scan-service/database"
	"visibility-scan-service/dataforseo"
	"visibility-scan-service/gemini"
	"visibility-scan-service/handlers"
	"visibility-scan-service/metrics"
	"visibility-scan-service/openai"
	"visibility-scan-service/perplexity"
	"visibility-scan-service/provider"
	"visibility-scan-service/rabbitmq"
	"visibility-scan-service/scan"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Info(".env file not found, using system environment variables")
	}

	cfg := config.Load()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	metrics.Register()

	// Initialize database
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}
	if err := db.MigrateTables(); err != nil {
		log.Fatalf("Failed to migrate tables: %v", err)
	}

	// Event publishing is optional; the scanner runs without it.
	var publisher scan.EventPublisher
	if p, err := rabbitmq.NewPublisher(&cfg.RabbitMQ); err != nil {
		log.Warnf("RabbitMQ unavailable, scan events disabled: %v", err)
	} else {
		publisher = p
		defer p.Close()
	}

	registry, err := provider.NewRegistry(
		dataforseo.NewGoogle(cfg.DataForSEOLogin, cfg.DataForSEOPassword),
		dataforseo.NewBing(cfg.DataForSEOLogin, cfg.DataForSEOPassword),
		openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel),
		anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicFallbackModel),
		gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel),
		perplexity.NewClient(cfg.PerplexityAPIKey, cfg.PerplexityModel),
	)
	if err != nil {
		log.Fatalf("Failed to build provider registry: %v", err)
	}

	engine := scan.NewEngine(registry, analyzer.New(cfg.GenericDomains), db, publisher, cfg.ProviderTimeout)
	runner := bulk.NewRunner(engine, cfg.BulkConcurrency)
	ledger := credits.NewLedger(db.GetDB())

	// Setup HTTP server
	router := gin.Default()
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.NewHandlers(engine, runner, db, ledger, cfg.CreditsPerScan).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
