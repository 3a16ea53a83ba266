package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/tickethub/internal/api/http"
	"github.com/spec-kit/tickethub/internal/api/http/handlers"
	"github.com/spec-kit/tickethub/internal/config"
	"github.com/spec-kit/tickethub/internal/observability"
	"github.com/spec-kit/tickethub/internal/service"
	"github.com/spec-kit/tickethub/internal/upstream"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := upstream.NewClient(cfg.Upstream, logger)
	defer client.Close()

	resolver, err := service.NewUserResolver(client, cfg.UserCache.Size, logger)
	if err != nil {
		logger.Fatal("failed to create user cache", zap.Error(err))
	}
	if cfg.UserCache.WarmupUsers > 0 {
		warmCtx, warmCancel := context.WithTimeout(ctx, cfg.Upstream.Timeout())
		n, err := resolver.Warm(warmCtx, cfg.UserCache.WarmupUsers)
		warmCancel()
		if err != nil {
			logger.Warn("user cache warm-up failed", zap.Error(err))
		} else {
			logger.Info("user cache warmed", zap.Int("users", n))
		}
	}

	transformer := service.NewTicketTransformer(resolver)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TodoAPI:     client,
		Transformer: transformer,
	})
	statsService := service.NewStatsService(client, transformer)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, client),
		Tickets: handlers.NewTicketsHandler(ticketService, statsService),
		Metrics: handlers.NewMetricsHandler(metrics, resolver),
	})

	go func() {
		logger.Info("starting TicketHub API",
			zap.String("addr", cfg.App.Addr()),
			zap.String("upstream", cfg.Upstream.BaseURL),
			zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
