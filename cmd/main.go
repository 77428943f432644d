package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"restock-service/app/domain"
	handler "restock-service/app/handler/api"
	brokerhandler "restock-service/app/handler/broker"
	"restock-service/app/middleware"
	"restock-service/app/repository/broker"
	"restock-service/app/repository/db"
	"restock-service/app/usecase"
	"restock-service/config"
	"restock-service/pkg/logger"
	"restock-service/pkg/metrics"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogfiber "github.com/samber/slog-fiber"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// init logger
	logger.InitLogger("info")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("restock-service stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// init config
	cfg, err := config.InitConfig(ctx)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		return err
	}
	logger.InitLogger(cfg.LogLevel)

	// init database
	dbConn, err := db.NewPostgres(ctx, cfg.Db)
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		return err
	}
	defer dbConn.Close()

	// Connect to NATS server
	nc, err := nats.Connect(cfg.Nats.Url, nats.Name("restock-service"))
	if err != nil {
		slog.Error("Error connecting to NATS", "error", err)
		return err
	}
	defer nc.Drain()

	js, err := jetstream.New(nc)
	if err != nil {
		slog.Error("Error creating JetStream context", "error", err)
		return err
	}
	if err := broker.EnsureRestockStream(ctx, js, cfg.Nats.StreamName, cfg.Nats.DuplicateWindow); err != nil {
		return err
	}
	if err := broker.EnsureStockStream(ctx, js, cfg.Nats.StockStreamName); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	restockMetrics := metrics.NewRestockMetrics(reg)

	reqValidator := validator.New()
	restockNotificationRepo := db.NewRestockNotificationRepository(dbConn)
	inventoryRepo := db.NewInventoryRepository(dbConn)
	customerRepo := db.NewCustomerRepository(dbConn)
	restockBroker := broker.NewRestockBrokerPublisher(js)

	restockNotificationUsecase := usecase.NewRestockNotificationUsecase(restockNotificationRepo, inventoryRepo, customerRepo, restockMetrics)
	restockTriggerUsecase := usecase.NewRestockTriggerUsecase(restockNotificationRepo, inventoryRepo, restockBroker, restockMetrics, cfg)

	restockNotificationHandler := handler.NewRestockNotificationHandler(restockNotificationUsecase, reqValidator)
	restockHandler := handler.NewRestockHandler(restockTriggerUsecase)

	stockConsumer := brokerhandler.NewConsumer(js, strings.ToUpper(cfg.Nats.StockStreamName), "restock-service-stock",
		[]string{domain.SubjectStockAvailable, domain.SubjectStockLevel},
		brokerhandler.NewStockHandler(restockTriggerUsecase, inventoryRepo).Handle)
	restockConsumer := brokerhandler.NewConsumer(js, strings.ToUpper(cfg.Nats.StreamName), "restock-service-execute",
		[]string{domain.EventRestockExecute},
		brokerhandler.NewRestockHandler(restockTriggerUsecase).Handle)

	// Initialize HTTP web framework
	app := fiber.New()
	app.Use(healthcheck.New(healthcheck.Config{
		LivenessProbe: func(c *fiber.Ctx) bool {
			return true
		},
		LivenessEndpoint: "/live",
		ReadinessProbe: func(c *fiber.Ctx) bool {
			return nc.IsConnected() && dbConn.PingContext(c.UserContext()) == nil
		},
		ReadinessEndpoint: "/ready",
	}))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	webLogger := logger.NewJSONLogger(cfg.LogLevel)
	app.Use(slogfiber.New(webLogger))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(middleware.RequestIDMiddleware())

	handler.SetupRouter(app, restockNotificationHandler, restockHandler, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Failed to listen", "port", cfg.Port, "error", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Gracefully shutdown")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			slog.Warn("Unfortunately the shutdown wasn't smooth", "err", err)
		}
		return nil
	})
	g.Go(func() error {
		return stockConsumer.Run(gctx)
	})
	g.Go(func() error {
		return restockConsumer.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
