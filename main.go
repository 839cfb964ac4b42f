package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"circl/config"
	"circl/cron"
	"circl/database"
	connectionRepo "circl/database/repository/connection"
	"circl/handlers"
	"circl/metrics"
	"circl/middleware"
	"circl/routes"
	"circl/services/discovery"
	"circl/services/network"
	"circl/services/session"
	"circl/services/tasks"
	"circl/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync() //nolint:errcheck
	cfg := config.AppConfig

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		redisClients []*redis.Client
		mongoClient  *mongo.Client
	)

	// Network source.
	var source network.Source
	switch cfg.NetworkSource {
	case "mongo":
		if err := database.InitDB(ctx); err != nil {
			logger.Fatal("main: mongo unavailable", zap.Error(err))
		}
		mongoClient = database.MongoClient
		repo, err := connectionRepo.NewMongoConnectionRepo(database.Database())
		if err != nil {
			logger.Fatal("main: failed to prepare connections collection", zap.Error(err))
		}
		source = network.NewMongoSource(repo)
	default:
		source = network.NewRemoteSource(cfg.NetworkAPIURL, cfg.NetworkAPIToken, nil, logger)
	}
	cache := network.NewCache(source, logger)

	// Sign-in refreshes run inline or through the retrying queue.
	onSignedIn := session.SignedInHook(cache.RefreshAsync)
	var (
		queueClient *asynq.Client
		worker      *asynq.Server
		workerMux   *asynq.ServeMux
	)
	if cfg.RefreshQueue == "asynq" {
		redisOpts := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisQueueDB,
		}
		queueClient = asynq.NewClient(redisOpts)
		onSignedIn = tasks.NewRefreshEnqueuer(queueClient, cfg.RefreshMaxRetry, logger).Enqueue
		worker = cron.NewRefreshServer(redisOpts, logger)
		workerMux = cron.NewRefreshMux(cache, logger)
	}

	// Session gate.
	var store session.Store
	switch cfg.SessionBackend {
	case "memory":
		store = session.NewMemoryStore()
	default:
		client := utils.GetSessionClient()
		redisClients = append(redisClients, client)
		store = session.NewRedisStore(client)
	}
	gate := session.NewGate(store, session.GateConfig{
		LogoutDelay: cfg.LogoutDelay,
		OnSignedIn:  onSignedIn,
	}, logger)

	// Discovery.
	fetcher := discovery.NewHTTPFetcher(discovery.FetcherConfig{
		BaseURL: cfg.DiscoveryBaseURL,
		Timeout: cfg.DiscoveryTimeout,
		Paths:   cfg.PathOverrides(),
	}, logger)
	board := discovery.NewBoard()
	discoverySvc := discovery.NewDefaultDiscoveryService(fetcher, board, logger)

	// Create the Gin router.
	router := gin.New()
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(metrics.Middleware())
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	bundle := handlers.NewHandlerBundle(
		handlers.NewDiscoveryHandler(discoverySvc),
		handlers.NewSessionHandler(gate),
		handlers.NewNetworkHandler(cache),
	)
	routes.RegisterRoutes(router, bundle)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	// Actors stop only after the HTTP server has drained.
	actorCtx, stopActors := context.WithCancel(context.Background())
	defer stopActors()
	go board.Run(actorCtx)
	go cache.Run(actorCtx)
	utils.StartHealthMonitor(ctx, 30*time.Second, redisClients, mongoClient)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("main: starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if worker != nil {
		g.Go(func() error {
			return cron.RunRefreshWorker(gctx, worker, workerMux)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("main: server is shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("main: server forced to shutdown", zap.Error(err))
		}
		if err := discoverySvc.Shutdown(shutdownCtx); err != nil {
			logger.Warn("main: discovery fetches still running", zap.Error(err))
		}
		if err := cache.Shutdown(shutdownCtx); err != nil {
			logger.Warn("main: network refreshes still running", zap.Error(err))
		}
		stopActors()
		if queueClient != nil {
			_ = queueClient.Close()
		}
		for _, c := range redisClients {
			_ = c.Close()
		}
		return database.Close(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("main: exited with error", zap.Error(err))
	}
	logger.Info("main: server stopped gracefully")
}
