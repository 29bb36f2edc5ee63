// Command stockwatch follows a storefront server's event stream and logs
// every stock change it applies to its local catalog snapshot.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"storefront/internal/events"
	"storefront/internal/observability"
	"storefront/internal/storefront"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}

	baseURL := strings.TrimSpace(os.Getenv("STOREFRONT_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	logger := observability.NewLogger("stockwatch", os.Getenv("LOG_LEVEL"), false)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := storefront.NewClient(baseURL, storefront.NewCache(),
		storefront.WithToken(os.Getenv("STOREFRONT_TOKEN")),
		storefront.WithLogger(logger),
	)

	logger.Info("watching", zap.String("url", baseURL))
	if err := client.Run(ctx, func(n storefront.Notification) { report(logger, client.Cache(), n) }); err != nil {
		logger.Fatal("event stream", zap.Error(err))
	}
}

func report(logger *zap.Logger, cache *storefront.Cache, n storefront.Notification) {
	switch n.Name {
	case events.StockUpdated:
		var p events.StockPayload
		if err := json.Unmarshal(n.Data, &p); err != nil {
			return
		}
		if !n.Applied {
			logger.Debug("stale stock update ignored", zap.String("product_id", p.ProductID), zap.Int64("version", p.StockVersion))
			return
		}
		logger.Info("stock changed",
			zap.String("product", p.ProductName),
			zap.Int("stock", p.NewStock),
			zap.Int("delta", -p.DeductedQuantity),
			zap.String("reason", p.Reason),
			zap.Int64("version", p.StockVersion),
		)
	case events.OrderCreated, events.OrderError, events.OrderUpdated:
		logger.Info(n.Name, zap.Uint64("seq", n.Seq), zap.ByteString("data", n.Data))
	default:
		logger.Info("catalog reloaded", zap.String("event", n.Name), zap.Int("products", len(cache.Products())))
	}
}
