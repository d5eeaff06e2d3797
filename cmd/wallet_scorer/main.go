package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet_scorer/internal/app/port"
	"wallet_scorer/internal/app/service"
	"wallet_scorer/internal/infrastructure/configloader"
	"wallet_scorer/internal/infrastructure/explorer"
	"wallet_scorer/internal/infrastructure/marketplace"
	"wallet_scorer/internal/infrastructure/network/client"
	"wallet_scorer/internal/infrastructure/pricefeed"
	"wallet_scorer/internal/infrastructure/restapi"
	"wallet_scorer/internal/pkg/boundedcache"
	"wallet_scorer/internal/pkg/logger"
	"wallet_scorer/internal/pkg/metrics"
	"wallet_scorer/internal/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

func main() {
	// Bootstrap logger for the config-loading phase; zap takes over once the
	// configuration is known.
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// Route slog through zap so every package logs to the same sink.
	logger.SetHandler(zapslog.NewHandler(zapLogger.Core()))

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yml")
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Warnf("Invalid log level in config: %s. Defaulting to Info.", cfg.Logging.Level)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	chainClient, err := client.NewEVMClient(
		cfg.RPC.URL,
		time.Duration(cfg.RPC.ConnectionTimeoutSeconds)*time.Second,
		time.Duration(cfg.RPC.CallTimeoutSeconds)*time.Second,
		time.Duration(cfg.RPC.BatchTimeoutSeconds)*time.Second,
		cfg.RPC.ProbeBatchSize,
		logger.NewSlogAdapter(),
	)
	if err != nil {
		zapLogger.Fatal("Failed to connect to RPC node", zap.Error(err))
	}
	zapLogger.Info("RPC client initialized", zap.String("url", cfg.RPC.URL))

	explorerClient := explorer.NewExplorerClient(
		cfg.Explorer.BaseURL,
		cfg.Explorer.APIKey,
		time.Duration(cfg.Explorer.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)
	zapLogger.Info("Explorer client initialized")

	// The marketplace source is optional: without it, reports are built in
	// reduced mode from the transfer log.
	var marketplaceClient port.MarketplaceClient
	if cfg.Marketplace.BaseURL != "" {
		marketplaceClient = marketplace.NewMarketplaceClient(
			cfg.Marketplace.BaseURL,
			cfg.Marketplace.APIKey,
			time.Duration(cfg.Marketplace.RequestTimeoutMillis)*time.Millisecond,
			cfg.Marketplace.MaxPages,
			zapLogger,
		)
		zapLogger.Info("Marketplace client initialized")
	} else {
		zapLogger.Warn("No marketplace configured, NFT holdings will be reconstructed from transfers")
	}

	priceClient := pricefeed.NewPriceClient(
		cfg.PriceFeed.BaseURL,
		time.Duration(cfg.PriceFeed.RequestTimeoutMillis)*time.Millisecond,
		time.Duration(cfg.PriceFeed.CacheTTLMinutes)*time.Minute,
		zapLogger,
	)
	zapLogger.Info("Price feed client initialized")

	crawler := service.NewHistoryCrawler(
		explorerClient,
		cfg.Explorer.PageSize,
		cfg.Explorer.BlockRangeSize,
		cfg.Explorer.RequestsPerSecond,
		zapLogger,
	)

	floorCache := boundedcache.New(
		cfg.Holdings.FloorCacheCapacity,
		time.Duration(cfg.Holdings.FloorCacheTTLMinutes)*time.Minute,
	)
	reconciler := service.NewHoldingsReconciler(marketplaceClient, floorCache, cfg.Holdings.EnrichTopN, zapLogger)

	scoreService := service.NewScoreService(
		chainClient,
		marketplaceClient,
		priceClient,
		crawler,
		reconciler,
		cfg,
		zapLogger,
	)
	zapLogger.Info("ScoreService initialized")

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	walletHandler := restapi.NewWalletHandler(scoreService, zapLogger)
	restapi.SetupRouter(router, walletHandler, cfg)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	zapLogger.Info("Prometheus metrics endpoint enabled", zap.String("path", "/metrics"))

	pprofRouter := router.Group("/debug/pprof")
	{
		pprofRouter.GET("/", gin.WrapF(pprof.Index))
		pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
		pprofRouter.POST("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
		pprofRouter.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
		pprofRouter.GET("/block", gin.WrapH(pprof.Handler("block")))
		pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
		pprofRouter.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
		pprofRouter.GET("/threadcreate", gin.WrapH(pprof.Handler("threadcreate")))
	}
	zapLogger.Info("Pprof endpoints enabled under /debug/pprof")

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}
