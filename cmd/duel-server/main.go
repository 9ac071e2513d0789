package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeduel/internal/archive"
	"codeduel/internal/challenge"
	"codeduel/internal/common/cache"
	"codeduel/internal/common/http/middleware"
	"codeduel/internal/common/storage"
	"codeduel/internal/duel"
	"codeduel/internal/judge"
	"codeduel/internal/room"
	"codeduel/internal/runtime"
	"codeduel/internal/sandbox"
	"codeduel/internal/session"
	"codeduel/internal/transport/ws"
	"codeduel/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/duel-server.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() { _ = logger.Sync() }()

	rdb, err := cache.NewRedisClient(&appCfg.Redis)
	if err != nil {
		logger.Error(context.Background(), "init redis failed", zap.Error(err))
		return
	}
	defer func() { _ = rdb.Close() }()

	registry := runtime.NewRegistry()
	for _, lang := range appCfg.Languages {
		registry.Register(lang)
	}

	executor, err := sandbox.NewDockerExecutor(registry, appCfg.Sandbox.DockerConfig)
	if err != nil {
		logger.Error(context.Background(), "init sandbox failed", zap.Error(err))
		return
	}
	if appCfg.Sandbox.PullImagesOnStart {
		pullCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		if err := executor.EnsureImages(pullCtx); err != nil {
			logger.Warn(pullCtx, "runtime image pull failed, first runs will pull lazily", zap.Error(err))
		}
		cancel()
	}

	validator := judge.NewValidator(executor)
	generator := challenge.NewGenerator(appCfg.Generator)
	source := challenge.NewSource(generator, time.Now().UnixNano())
	roomStore := room.NewStore(rdb)

	var archiver *archive.Archiver
	if appCfg.Archive.Bucket != "" {
		objStore, err := storage.NewMinIOStorage(appCfg.MinIO)
		if err != nil {
			logger.Error(context.Background(), "init object storage failed", zap.Error(err))
			return
		}
		archiver, err = archive.NewArchiver(context.Background(), objStore, appCfg.Archive)
		if err != nil {
			logger.Error(context.Background(), "init match archive failed", zap.Error(err))
			return
		}
	}

	hub := ws.NewHub()
	duelService, err := duel.NewService(duel.ServiceConfig{
		Store:    roomStore,
		Source:   source,
		Judge:    validator,
		Notifier: hub,
		Archiver: archiver,
		Config:   appCfg.Duel,
	})
	if err != nil {
		logger.Error(context.Background(), "init duel service failed", zap.Error(err))
		return
	}
	sessionService, err := session.NewService(session.ServiceConfig{
		Executor: executor,
		Source:   source,
		Judge:    validator,
	})
	if err != nil {
		logger.Error(context.Background(), "init session service failed", zap.Error(err))
		return
	}
	wsHandler, err := ws.NewHandler(ws.HandlerConfig{
		Hub:     hub,
		Duel:    duelService,
		Session: sessionService,
	})
	if err != nil {
		logger.Error(context.Background(), "init websocket handler failed", zap.Error(err))
		return
	}

	httpServer := buildHTTPServer(appCfg, wsHandler, registry, duelService)

	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "duel server started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}

func buildHTTPServer(cfg *AppConfig, wsHandler *ws.Handler, registry *runtime.Registry, duelService *duel.Service) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TraceMiddleware())
	router.Use(requestLogger())

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/readyz", func(c *gin.Context) { c.Status(http.StatusOK) })

	wsHandler.Register(router)

	api := router.Group("/api/v1")
	runtime.NewController(registry).RegisterRoutes(api)
	duel.NewController(duelService).RegisterRoutes(api)

	return &http.Server{
		Addr:           cfg.Server.Addr,
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
