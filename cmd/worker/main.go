package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/jwalitptl/hospital-api/internal/config"
	"github.com/jwalitptl/hospital-api/internal/handler/health"
	"github.com/jwalitptl/hospital-api/internal/repository/postgres"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/messaging"
	"github.com/jwalitptl/hospital-api/pkg/messaging/redis"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
	"github.com/jwalitptl/hospital-api/pkg/worker"
)

const healthAddr = ":8081"

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if cfg.Database.Driver != "postgres" {
		log.Fatal().Str("driver", cfg.Database.Driver).Msg("The outbox worker requires the postgres store")
	}

	appLogger := logger.NewLogger(cfg.ToLoggerConfig()).WithFields(map[string]interface{}{
		"worker_id": workerID(),
	})
	log.Logger = appLogger.ZL

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(ctx, cfg.ToBrokerConfig(), appLogger)
	if err != nil {
		appLogger.Fatal(err, "Failed to create Redis broker")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(postgres.NewBaseRepository(db))
	m := metrics.NewMetrics("outbox_worker", prometheus.DefaultRegisterer)

	processor, err := worker.NewOutboxProcessor(outboxRepo, broker, cfg.ToWorkerConfig(), appLogger, m)
	if err != nil {
		appLogger.Fatal(err, "Invalid outbox configuration")
	}

	scheduler := cron.New()
	retention := worker.NewOutboxRetention(outboxRepo, cfg.Outbox.Retention, appLogger, m)
	if err := retention.Schedule(ctx, scheduler, worker.DefaultRetentionSchedule); err != nil {
		appLogger.Fatal(err, "Failed to schedule outbox retention")
	}
	scheduler.Start()

	srv := healthServer(map[string]health.Check{
		"database": db.PingContext,
		"redis":    broker.Ping,
	})

	var wg conc.WaitGroup
	wg.Go(func() { processor.Start(ctx) })
	wg.Go(func() { tail(ctx, broker, cfg.Redis.Channel, appLogger) })
	wg.Go(func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error(err, "Health check server failed")
			cancel()
		}
	})

	<-ctx.Done()
	appLogger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "Health check server forced to shutdown")
	}
	<-scheduler.Stop().Done()
	wg.Wait()
	appLogger.Info("Worker stopped")
}

func healthServer(checks map[string]health.Check) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(checks, prometheus.DefaultGatherer).RegisterRoutes(engine.Group(""))

	return &http.Server{
		Addr:              healthAddr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// tail logs every event seen on the channel at debug level, which confirms
// end to end delivery when running with log.level=debug.
func tail(ctx context.Context, broker messaging.Broker, channel string, appLogger *logger.Logger) {
	messages, err := broker.Subscribe(ctx, channel)
	if err != nil {
		appLogger.Error(err, "Failed to subscribe", "channel", channel)
		return
	}

	for raw := range messages {
		var msg messaging.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			appLogger.Warn("Undecodable message on channel", "channel", channel, "error", err.Error())
			continue
		}
		appLogger.Debug("Event delivered", "event_id", msg.ID, "event_type", msg.Type)
	}
}

func workerID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("worker-%s-%d", hostname, os.Getpid())
}
