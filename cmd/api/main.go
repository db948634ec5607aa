package main

import (
	"Watchtower/internal/api/config"
	"Watchtower/internal/pkg/consts"
	"Watchtower/internal/pkg/cron"
	"Watchtower/internal/pkg/database"
	"Watchtower/internal/pkg/es"
	"Watchtower/internal/pkg/logger"
	"Watchtower/internal/pkg/minio"
	"Watchtower/internal/pkg/mongo"
	"Watchtower/internal/pkg/redis"
	"Watchtower/internal/wire"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 加载配置
	if err := config.LoadConfig(); err != nil {
		log.Error("Fatal error: failed to load configuration", "err", err)
		panic(err)
	}
	cfg := config.Cfg

	// 初始化日志
	logger.InitLogger()

	// 数据库连接
	dbCfg := cfg.DB
	db, err := database.NewGormDB(&dbCfg)
	if err != nil {
		log.Error("Fatal error: failed to create database connection", "err", err)
		panic(err)
	}

	// Redis 连接
	err = redis.InitRedis(cfg.Redis)
	if err != nil {
		log.Error("Fatal error: failed to create redis connection", "err", err)
		panic(err)
	}

	// Mongo 连接
	mongoConn, err := mongo.InitMongo(cfg.Mongo)
	if err != nil {
		log.Error("Fatal error: failed to create mongo connection", "err", err)
		panic(err)
	}

	// MinIO 连接
	err = minio.Init()
	if err != nil {
		log.Error("Fatal error: failed to initialize MinIO", "err", err)
		panic(err)
	}

	// ElasticSearch 连接
	err = es.InitClient()
	if err != nil {
		log.Error("Fatal error: failed to initialize ElasticSearch", "err", err)
		panic(err)
	}

	// 依赖注入
	app, err := wire.BuildApplication(db, mongoConn, cfg)
	if err != nil {
		log.Error("Fatal error: failed to create application", "err", err)
		panic(err)
	}

	// 恢复上次退出时的配额计数，防止重启后窗口/月度记账归零
	restoreQuotaState(app)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// 定时任务
	err = cron.InitCron(app.CronMgr)
	if err != nil {
		log.Error("Fatal error: failed to start cron jobs", "err", err)
		panic(err)
	}
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Cron Jobs stopping...")
		app.CronMgr.Stop()
		return nil
	})

	// HTTP 服务器
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: app.Router,
	}
	g.Go(func() error {
		log.Info("HTTP Server starting...", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("HTTP Server stopping...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	// 信号监听
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-quit:
			log.Info("Received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", "err", err)
	}

	// 退出前把配额计数落盘，Kafka 生产者收尾
	persistQuotaState(app)
	if err := app.Producer.Close(); err != nil {
		log.Warn("close kafka producer failed", "err", err)
	}

	log.Info("Server exited gracefully")
}

func restoreQuotaState(app *wire.ApplicationContainer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := redis.GetValue(ctx, consts.QuotaStateKey)
	if err != nil || data == "" {
		return
	}
	if err := app.Tracker.ImportState([]byte(data)); err != nil {
		log.Warn("restore quota state failed, starting fresh", "err", err)
	} else {
		log.Info("quota state restored")
	}
}

func persistQuotaState(app *wire.ApplicationContainer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := app.Tracker.ExportState()
	if err != nil {
		log.Warn("export quota state failed", "err", err)
		return
	}
	// 月度计数最长一个自然月后失效，多给几天余量
	if err := redis.SetWithExpiration(ctx, consts.QuotaStateKey, string(data), 35*24*time.Hour); err != nil {
		log.Warn("persist quota state failed", "err", err)
	}
}
