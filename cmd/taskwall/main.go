package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/taskwall/taskwall/pkg/api"
	"github.com/taskwall/taskwall/pkg/auth"
	"github.com/taskwall/taskwall/pkg/config"
	"github.com/taskwall/taskwall/pkg/observability"
	"github.com/taskwall/taskwall/pkg/provision"
	"github.com/taskwall/taskwall/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	log := observability.NewLogger(observability.ParseLogLevel(cfg.Logging.Level), nil)

	db, err := openDatabase(cfg.Database)
	if err != nil {
		log.WithError(err).Error("failed to open database")
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := storage.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		log.WithError(err).Error("failed to run migrations")
		os.Exit(1)
	}

	store := storage.NewSQLStore(db, cfg.Database.Driver)
	codec := auth.NewTokenCodec(cfg.Auth.BcryptCost)
	authn := auth.NewAuthenticator(store, codec)
	engine := provision.NewEngine(store, log)

	var metrics *observability.Metrics
	if cfg.Logging.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	server := api.NewServer(store, codec, authn, engine, log, metrics)

	sweeper := cron.New()
	_, err = sweeper.AddFunc(cfg.Logging.IntegritySchedule, func() {
		runIntegritySweep(context.Background(), store, log, metrics)
	})
	if err != nil {
		log.WithError(err).Error("invalid integrity sweep schedule")
		os.Exit(1)
	}
	sweeper.Start()
	defer sweeper.Stop()

	apiSrv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.PingContext(context.Background()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler())
	}
	healthSrv := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", apiSrv.Addr).Info("api server listening")
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.WithField("addr", healthSrv.Addr).Info("health server listening")
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := apiSrv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("api server shutdown")
		}
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("health server shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server failed")
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// openDatabase opens and pings the configured database. The sqlite DSN must
// enforce foreign keys or cascade deletes silently stop working.
func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.DSN
	if cfg.Driver == "sqlite3" && !strings.Contains(dsn, "_foreign_keys") {
		if strings.Contains(dsn, "?") {
			dsn += "&_foreign_keys=on"
		} else {
			dsn += "?_foreign_keys=on"
		}
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// runIntegritySweep checks the ownership chain for orphans, logging the
// result and exporting the counts as gauges.
func runIntegritySweep(ctx context.Context, store storage.Store, log *observability.Logger, metrics *observability.Metrics) {
	report, err := store.CheckIntegrity(ctx)
	if err != nil {
		log.WithError(err).Error("integrity sweep failed")
		return
	}

	if metrics != nil {
		metrics.IntegrityOrphans.WithLabelValues("column").Set(float64(report.OrphanColumns))
		metrics.IntegrityOrphans.WithLabelValues("task").Set(float64(report.OrphanTasks))
		metrics.IntegrityOrphans.WithLabelValues("subtask").Set(float64(report.OrphanSubtasks))
	}

	if report.Clean() {
		log.Debug("integrity sweep clean")
		return
	}
	log.WithField("orphan_columns", report.OrphanColumns).
		WithField("orphan_tasks", report.OrphanTasks).
		WithField("orphan_subtasks", report.OrphanSubtasks).
		Warn("integrity sweep found orphans")
}
