package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/approval-desk/internal/handler"
	"github.com/xela07ax/approval-desk/internal/identity"
	"github.com/xela07ax/approval-desk/internal/infra"
	"github.com/xela07ax/approval-desk/internal/infra/auth"
	"github.com/xela07ax/approval-desk/internal/repository/postgres"
	"github.com/xela07ax/approval-desk/internal/server"
	"github.com/xela07ax/approval-desk/internal/service"
	"go.uber.org/zap"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Database.URL == "" {
		logger.Fatal("database.url is required (ENV DATABASE_URL)")
	}
	if cfg.Zitadel.Authority == "" || cfg.Zitadel.Token == "" {
		logger.Fatal("zitadel.authority and service token are required")
	}

	// 2. Ключ проверки входящих токенов
	publicKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("failed to parse auth public key", zap.Error(err))
	}
	validator := auth.NewValidator(publicKey)

	// 3. Хранилище заявок
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	repo, err := postgres.NewApprovalRepo(ctx, cfg.Database)
	if err != nil {
		cancel()
		logger.Fatal("failed to init postgres pool", zap.Error(err))
	}
	if err := repo.Ping(ctx); err != nil {
		cancel()
		logger.Fatal("database unreachable", zap.Error(err))
	}
	cancel()
	defer repo.Close()

	// 4. Метрики
	reg := prometheus.NewRegistry()
	metrics := infra.NewMetrics(reg)

	// 5. Identity Gateway: кэш + клиент Zitadel
	// Без Redis сервис не падает, а живет на in-process кэше
	var cache identity.Cache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = identity.NewRedisCache(rdb, logger)
	} else {
		logger.Warn("redis.addr is empty, falling back to in-memory identity cache")
		cache = identity.NewMemoryCache()
	}

	zitadelClient := identity.NewZitadelClient(cfg.Zitadel, cfg.Identity, logger)
	gateway := identity.NewGateway(cache, zitadelClient, cfg.Identity.CacheTTL, metrics, logger)

	// 6. Сборка слоев (Dependency Injection)
	approvalService := service.NewApprovalService(repo, gateway, metrics, logger)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	srv := server.NewServer(cfg, logger, validator, approvalHandler, metrics)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Экспортируем метрики для Prometheus на отдельном порту
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics endpoint failed", zap.Error(err))
		}
	}()

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("approval API started", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("approval API stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}
	logger.Info("approval API exited properly")
}
