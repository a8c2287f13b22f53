package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"newsgraph/backend/internal/api"
	"newsgraph/backend/internal/constants"
	"newsgraph/backend/internal/explorer"
	"newsgraph/backend/internal/graph"
	"newsgraph/backend/internal/lobsters"
	"newsgraph/backend/internal/metrics"
	"newsgraph/backend/pkg/config"
	"newsgraph/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	// Initialize the article source
	articles, closeSource, err := openSource(cfg)
	if err != nil {
		log.Fatal("Failed to open article source", zap.String("source", cfg.ArticleSource), zap.Error(err))
	}
	defer closeSource()

	// Initialize dependencies
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	sessions := api.NewRegistry(articles, explorer.Options{
		MostRecentLimit: cfg.Explorer.MostRecentLimit,
		ByTagLimit:      cfg.Explorer.ByTagLimit,
		FetchTimeout:    cfg.Explorer.FetchTimeout,
		Strict:          cfg.Explorer.Strict,
	}, cfg.Explorer.SessionTTL, m)
	defer sessions.CloseAll()

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go sessions.RunJanitor(janitorCtx, constants.JanitorInterval)

	router := newRouter(cfg, log, api.NewHandler(articles, sessions, m, cfg.Explorer.MostRecentLimit, cfg.Explorer.ByTagLimit), registry)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("source", cfg.ArticleSource),
		zap.Int("most_recent_limit", cfg.Explorer.MostRecentLimit),
		zap.Int("by_tag_limit", cfg.Explorer.ByTagLimit),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// openSource returns the fetcher exploration sessions read from: the local
// Neo4j graph filled by the importer, or the site itself.
func openSource(cfg *config.Config) (explorer.Fetcher, func(), error) {
	if cfg.ArticleSource == config.SourceLobsters {
		client, err := lobsters.NewClient(cfg.LobstersBaseURL, nil)
		if err != nil {
			return nil, nil, err
		}
		return lobsters.NewLiveFetcher(client), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	driver, err := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		return nil, nil, err
	}
	return graph.NewRepository(driver, cfg.Neo4jDatabase), func() { _ = driver.Close(context.Background()) }, nil
}

func newRouter(cfg *config.Config, log *zap.Logger, handler *api.Handler, gatherer prometheus.Gatherer) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(api.RequestLogger(log))
	router.Use(gin.Recovery())
	router.Use(api.CORS(cfg.AllowedOrigin))

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	handler.Register(router)
	return router
}
