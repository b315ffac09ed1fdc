package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jengzang/anchor-locator-go/internal/api"
	"github.com/jengzang/anchor-locator-go/internal/auth"
	"github.com/jengzang/anchor-locator-go/internal/config"
	"github.com/jengzang/anchor-locator-go/internal/database"
	"github.com/jengzang/anchor-locator-go/internal/logging"
	"github.com/jengzang/anchor-locator-go/internal/middleware"
	"github.com/jengzang/anchor-locator-go/internal/observability"
	"github.com/jengzang/anchor-locator-go/internal/repository"
	"github.com/jengzang/anchor-locator-go/internal/scheduler"
	"github.com/jengzang/anchor-locator-go/internal/service"
)

func main() {
	// 加载配置
	cfg := config.Load()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "server exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	// 初始化数据库
	if dir := filepath.Dir(cfg.DBPath); cfg.DBPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		return err
	}
	defer database.Close()
	db := database.GetDB()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewPositioningCollector(reg)
	if err != nil {
		return err
	}

	positioning := service.NewPositioningService(db, service.PositioningOptions{
		Params:  cfg.Engine(),
		Metrics: metrics,
		Logger:  logger,
	})
	mobility := service.NewMobilityClassifier(cfg.MobilityThresholdM, metrics, logger)
	buildings := repository.NewBuildingRepository(db)
	polygons := repository.NewFloorPolygonRepository(db)

	if cfg.JWTSecret == "your-secret-key-change-in-production" {
		logger.Warn(ctx, "JWT_SECRET is the built-in default; set it in production")
	}

	gin.SetMode(cfg.GinMode)
	router := api.SetupRouter(api.Services{
		DB:            db,
		Scans:         service.NewScanService(db, positioning, mobility, cfg.FloorHeightM, logger),
		Anchors:       service.NewAnchorService(db, positioning),
		Buildings:     service.NewBuildingService(buildings, polygons),
		POIs:          service.NewPOIService(repository.NewPOIRepository(db), buildings, polygons, repository.NewAnchorRepository(db), cfg.FloorHeightM),
		Auth:          service.NewAuthService(repository.NewUserRepository(db), auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL), logger),
		Positioning:   positioning,
		Metrics:       metrics,
		Logger:        logger,
		UploadLimiter: middleware.NewRateLimiter(ctx, cfg.UploadRateLimit, time.Minute),
	})

	if cfg.RecomputeEnabled {
		daily, err := scheduler.NewDaily(cfg.RecomputeHour, cfg.RecomputeMinute, func(ctx context.Context) error {
			_, err := positioning.RecalculateAll(ctx, false)
			return err
		}, logger)
		if err != nil {
			return err
		}
		go daily.Run(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		// 启动服务器
		logger.Info(ctx, "server starting", logging.String("addr", cfg.Port), logging.String("db", cfg.DBPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "graceful shutdown failed", logging.Err(err))
	}
	positioning.Wait()
	return nil
}
