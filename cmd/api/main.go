package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/hospital-api/internal/config"
	"github.com/jwalitptl/hospital-api/internal/handler/appointment"
	authhandler "github.com/jwalitptl/hospital-api/internal/handler/auth"
	"github.com/jwalitptl/hospital-api/internal/handler/department"
	"github.com/jwalitptl/hospital-api/internal/handler/doctor"
	"github.com/jwalitptl/hospital-api/internal/handler/health"
	"github.com/jwalitptl/hospital-api/internal/handler/patient"
	"github.com/jwalitptl/hospital-api/internal/middleware"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/repository/memory"
	"github.com/jwalitptl/hospital-api/internal/repository/postgres"
	"github.com/jwalitptl/hospital-api/internal/router"
	authService "github.com/jwalitptl/hospital-api/internal/service/auth"
	departmentService "github.com/jwalitptl/hospital-api/internal/service/department"
	doctorService "github.com/jwalitptl/hospital-api/internal/service/doctor"
	eventService "github.com/jwalitptl/hospital-api/internal/service/event"
	ledgerService "github.com/jwalitptl/hospital-api/internal/service/ledger"
	patientService "github.com/jwalitptl/hospital-api/internal/service/patient"
	"github.com/jwalitptl/hospital-api/pkg/auth"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/messaging/redis"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
	"github.com/jwalitptl/hospital-api/pkg/security"
	"github.com/jwalitptl/hospital-api/pkg/worker"
)

func main() {
	// A missing .env is fine; real deployments inject the environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(cfg.ToLoggerConfig())
	log.Logger = appLogger.ZL

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, checks, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		appLogger.Fatal(err, "failed to open record store")
	}
	defer closeStore()

	m := metrics.NewMetrics(cfg.Server.MetricsPrefix, prometheus.DefaultRegisterer)

	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	authSvc := authService.NewService(store, hasher, jwtSvc, appLogger)
	if err := authSvc.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		appLogger.Fatal(err, "failed to bootstrap admin account")
	}

	eventSvc := eventService.NewEventService(store.Outbox)
	ledgerSvc := ledgerService.NewService(store, eventSvc, m, appLogger)
	doctorSvc := doctorService.NewService(store, hasher, doctorService.Config{
		CacheTTL:        cfg.Cache.DoctorTTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	}, appLogger)
	patientSvc := patientService.NewService(store, appLogger)
	departmentSvc := departmentService.NewService(store.Departments)

	var background conc.WaitGroup
	if cfg.Outbox.Enabled {
		stop, err := startOutbox(ctx, cfg, store, m, appLogger, checks, &background)
		if err != nil {
			appLogger.Fatal(err, "failed to start outbox relay")
		}
		defer stop()
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(authSvc),
		router.Handlers{
			Health:       health.NewHandler(checks, prometheus.DefaultGatherer),
			Auth:         authhandler.NewHandler(authSvc),
			Appointments: appointment.NewHandler(ledgerSvc),
			Patients:     patient.NewHandler(patientSvc, ledgerSvc),
			Doctors:      doctor.NewHandler(doctorSvc),
			Departments:  department.NewHandler(departmentSvc),
		},
		router.RouterConfig{
			RateLimit:     rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:     cfg.RateLimit.Burst,
			RateLimitOff:  !cfg.RateLimit.Enabled,
			CORSConfig:    corsConfig,
			MetricsPrefix: cfg.Server.MetricsPrefix,
			Registerer:    prometheus.DefaultRegisterer,
		},
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("server listening", "addr", srv.Addr, "store", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(err, "failed to start server")
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "server forced to shutdown")
	}

	background.Wait()
	appLogger.Info("server exited properly")
}

// openStore returns the configured Record Store, the readiness checks that
// go with it and a close function.
func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, map[string]health.Check, func(), error) {
	checks := map[string]health.Check{}

	if cfg.Database.Driver == "memory" {
		return memory.NewStore(), checks, func() {}, nil
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
	}
	checks["database"] = db.PingContext
	return postgres.NewStore(db), checks, func() { db.Close() }, nil
}

// startOutbox runs the outbox relay and its retention job inside the API
// process. The returned function stops both and closes the broker.
func startOutbox(
	ctx context.Context,
	cfg *config.Config,
	store *repository.Store,
	m *metrics.Metrics,
	appLogger *logger.Logger,
	checks map[string]health.Check,
	wg *conc.WaitGroup,
) (func(), error) {
	broker, err := redis.NewRedisBroker(ctx, cfg.ToBrokerConfig(), appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	checks["redis"] = broker.Ping

	processor, err := worker.NewOutboxProcessor(store.Outbox, broker, cfg.ToWorkerConfig(), appLogger, m)
	if err != nil {
		broker.Close()
		return nil, err
	}

	scheduler := cron.New()
	retention := worker.NewOutboxRetention(store.Outbox, cfg.Outbox.Retention, appLogger, m)
	if err := retention.Schedule(ctx, scheduler, worker.DefaultRetentionSchedule); err != nil {
		broker.Close()
		return nil, err
	}
	scheduler.Start()

	wg.Go(func() { processor.Start(ctx) })

	return func() {
		<-scheduler.Stop().Done()
		if err := broker.Close(); err != nil {
			appLogger.Error(err, "failed to close broker")
		}
	}, nil
}
