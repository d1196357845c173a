package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/spf13/viper"

	"github.com/pancudaniel7/address-relay-service/internal/adapter/http"
	"github.com/pancudaniel7/address-relay-service/internal/core/port"
	"github.com/pancudaniel7/address-relay-service/internal/core/usecase"
	"github.com/pancudaniel7/address-relay-service/internal/infra"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/applog"
)

var (
	logger applog.AppLogger
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	if err := infra.InitConfig(*configPath); err != nil {
		applog.NewLogger(os.Stderr, "error", "text").Fatal("Failed to load config", "err", err)
	}
	logger = applog.NewAppDefaultLogger()

	v := validator.New()
	wg := &sync.WaitGroup{}

	app := infra.InitHTTPServer()
	infra.InitMetrics(app)

	store, err := infra.InitStore(logger, v)
	if err != nil {
		logger.Fatal("Failed to init store", "err", err)
	}

	registry := usecase.NewSubscriptionRegistry(logger, store)
	supervisor, err := infra.InitFeed(logger, wg, v, registry)
	if err != nil {
		logger.Fatal("Failed to init feed", "err", err)
	}

	webhookClient, err := infra.InitWebhookClient(logger, v)
	if err != nil {
		logger.Fatal("Failed to init webhook client", "err", err)
	}

	kafkaPublisher, err := infra.InitTransactionPublisher(logger, v)
	if err != nil {
		logger.Fatal("Failed to init transaction publisher", "err", err)
	}
	var publisher port.TransactionPublisher
	if kafkaPublisher != nil {
		publisher = kafkaPublisher
	}

	target := usecase.NewWebhookTarget()
	dispatcher := usecase.NewEventDispatcher(logger, registry, store, target, webhookClient, publisher)
	watchService := usecase.NewWatchService(logger, v, registry, supervisor, store, target, viper.GetInt("store.log_retention"))

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = watchService.Bootstrap(bootCtx)
	bootCancel()
	if err != nil {
		logger.Fatal("Failed to load persisted state", "err", err)
	}

	infra.InitRoutes(app, http.NewHandlers(logger, watchService))

	supervisor.SetHandler(dispatcher.HandleFrame)
	if err := supervisor.Start(); err != nil {
		logger.Fatal("Failed to start feed supervisor", "err", err)
	}

	stopPprof := infra.StartPprof(logger, wg)

	addr := viper.GetString("http.addr")
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("HTTP server listening", "addr", addr)
		if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			logger.Error("HTTP server stopped", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("Shutting down...")

	timeout := time.Duration(viper.GetInt("shutdown.timeout_seconds")) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	supervisor.Stop()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown error", "err", err)
	}
	if err := webhookClient.Close(shutdownCtx); err != nil {
		logger.Warn("Webhook deliveries still in flight", "err", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(shutdownCtx); err != nil {
			logger.Warn("Kafka flush failed", "err", err)
		}
	}
	if err := stopPprof(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("pprof shutdown error", "err", err)
	}

	wg.Wait()
	if err := store.Close(); err != nil {
		logger.Warn("Store close error", "err", err)
	}
	logger.Info("Shutdown complete")
}
