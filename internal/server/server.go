// Package server boots the whole application: config, datastores,
// queue workers, services, routes, and the HTTP listener.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shashiranjanraj/vyapar/app/controllers"
	"github.com/shashiranjanraj/vyapar/app/routes"
	"github.com/shashiranjanraj/vyapar/config"
	"github.com/shashiranjanraj/vyapar/internal/billing"
	"github.com/shashiranjanraj/vyapar/internal/rating"
	"github.com/shashiranjanraj/vyapar/pkg/cache"
	"github.com/shashiranjanraj/vyapar/pkg/database"
	"github.com/shashiranjanraj/vyapar/pkg/event"
	"github.com/shashiranjanraj/vyapar/pkg/logger"
	"github.com/shashiranjanraj/vyapar/pkg/queue"
	"github.com/shashiranjanraj/vyapar/pkg/router"
	"github.com/shashiranjanraj/vyapar/pkg/ws"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const queueWorkers = 4

// Start boots everything and blocks until SIGINT/SIGTERM, then drains.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}

	setupLogging()

	if err := database.Connect(); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = database.Disconnect(shutdownCtx)
	}()

	if err := cache.Connect(); err != nil {
		// A cold cache only costs latency; queue falls back to memory.
		logger.Warn("redis unavailable, running without cache", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := buildServices()
	startQueue(ctx)
	startStockListener(deps.StockHub)

	r := router.New()
	routes.RegisterAPI(r, deps)

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildServices wires repositories into the billing and rating services
// and returns everything route registration needs.
func buildServices() routes.Deps {
	deps := routes.NewDeps()

	billingSvc := billing.NewService(database.Default(),
		deps.Products, deps.Invoices, deps.Customers, deps.Payments)
	billing.SetDefault(billingSvc)

	deps.Billing = billingSvc

	ratingSvc := rating.NewService(database.Default(), deps.Reviews, deps.Products)
	rating.SetDefault(ratingSvc)
	deps.Rating = ratingSvc
	deps.StockHub = ws.NewHub()
	go deps.StockHub.Run()

	return deps
}

// startQueue selects the configured driver, registers job types and
// starts the worker pool.
func startQueue(ctx context.Context) {
	if config.QueueDriver() == "redis" && cache.RDB != nil {
		queue.SetDriver(queue.NewRedisDriver(cache.RDB))
		logger.Info("queue driver", "driver", "redis")
	} else {
		queue.SetDriver(queue.NewMemoryDriver())
		logger.Info("queue driver", "driver", "memory")
	}

	queue.UseCollection(database.Collection("failed_jobs"))
	billing.RegisterJobs()
	rating.RegisterJobs()
	queue.StartWorkers(ctx, queueWorkers)
}

// startStockListener forwards post-invoice stock changes to connected
// WebSocket clients and drops stale product cache entries.
func startStockListener(hub *ws.Hub) {
	event.Listen(billing.EventStockChanged, func(payload interface{}) {
		change, ok := payload.(billing.StockChanged)
		if !ok {
			return
		}

		if id, err := primitive.ObjectIDFromHex(change.ProductID); err == nil {
			controllers.InvalidateProductCache(id)
		}

		msg, err := json.Marshal(map[string]interface{}{
			"event": billing.EventStockChanged,
			"data":  change,
		})
		if err != nil {
			return
		}
		select {
		case hub.Broadcast <- msg:
		default:
			logger.Warn("stock broadcast dropped, hub backlogged")
		}
	})
}

// setupLogging attaches the async Mongo handler when a log database is
// configured, mirroring application logs into a capped collection.
func setupLogging() {
	logDB := config.MongoLogDB()
	if logDB == "" {
		return
	}

	mh, err := logger.NewMongoHandler(config.MongoURI(), logDB, "app_logs")
	if err != nil {
		logger.Warn("mongo log handler unavailable", "error", err)
		return
	}

	console := slog.NewTextHandler(os.Stdout, nil)
	logger.L = slog.New(logger.NewMultiHandler(console, mh))
	slog.SetDefault(logger.L)
}
