package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/observability"
	"storefront/internal/routes"
	"storefront/internal/store"
)

const (
	serviceVersion  = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetry, err := observability.Setup(ctx, observability.Options{
		ServiceName:    config.ServiceName,
		ServiceVersion: serviceVersion,
		Endpoint:       cfg.OtelEndpoint,
		AuthHeader:     cfg.OtelAuthHeader,
	})
	if err != nil {
		log.Println("telemetry partially configured:", err)
	}

	logger := observability.NewLogger(config.ServiceName, cfg.LogLevel, telemetry.Enabled())
	defer func() { _ = logger.Sync() }()

	st, client, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store unavailable", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}

	hub := events.NewHub(cfg.EventBuffer, logger.Named("events"))
	publisher := events.Publisher(hub)

	var mirror *events.KafkaMirror
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic, config.ServiceName, telemetry.TracerProvider)
		if err != nil {
			logger.Fatal("kafka producer", zap.Error(err))
		}
		mirror = events.NewKafkaMirror(producer, cfg.EventBuffer, logger.Named("kafka"))
		publisher = events.Fanout{hub, mirror}
		logger.Info("mirroring events to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}

	svc := checkout.NewService(st, publisher,
		checkout.WithLogger(logger.Named("checkout")),
		checkout.WithTracer(telemetry.Tracer("storefront/checkout")),
		checkout.WithTimeout(cfg.RequestTimeout),
	)

	router := routes.Setup(routes.Deps{
		Store:          st,
		Service:        svc,
		Publisher:      publisher,
		Hub:            hub,
		Logger:         logger,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		Heartbeat:      cfg.HeartbeatInterval,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", server.Addr), zap.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if mirror != nil {
		g.Go(func() error { return mirror.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		// open event streams would otherwise hold Shutdown until the deadline
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if client != nil {
		if err := client.Disconnect(shutdownCtx); err != nil {
			logger.Warn("mongo disconnect", zap.Error(err))
		}
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Store, *mongo.Client, error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		return store.NewMemory(), nil, nil
	}

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}

	db := client.Database(cfg.DBName)
	logger.Info("MongoDB connected", zap.String("db", db.Name()), zap.Bool("transactions", cfg.MongoTransactions))

	if err := database.EnsureIndexes(db, logger); err != nil {
		logger.Warn("index warning", zap.Error(err))
	}

	return database.NewStore(db, cfg.MongoTransactions), client, nil
}
