// Command server runs the repair-shop appointment API.
//
// @title       Repair Scheduler API
// @version     1.0
// @description Appointment book for a vehicle repair shop.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-repair-scheduler/docs"
	"github.com/tbourn/go-repair-scheduler/internal/backup"
	"github.com/tbourn/go-repair-scheduler/internal/config"
	httpapi "github.com/tbourn/go-repair-scheduler/internal/http"
	"github.com/tbourn/go-repair-scheduler/internal/observability"
	"github.com/tbourn/go-repair-scheduler/internal/repo"
	"github.com/tbourn/go-repair-scheduler/internal/services"
	"github.com/tbourn/go-repair-scheduler/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownGrace = 15 * time.Second

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	closeLog := sysutil.SetupLogger(sysutil.LogOptions{
		Level:      cfg.LogLevel,
		Pretty:     cfg.LogPretty,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Service:    cfg.OTEL.ServiceName,
	})
	os.Exit(finish(run(cfg), closeLog))
}

// finish logs a failed run and closes the log sink before the process exits,
// so rotated log files are flushed. It returns the exit code.
func finish(err error, closeLog func() error) int {
	code := 0
	if err != nil {
		log.Error().Err(err).Msg("server exited")
		code = 1
	}
	if cerr := closeLog(); cerr != nil {
		log.Warn().Err(cerr).Msg("close log")
	}
	return code
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver,
		observability.StorageBackendKey.String(cfg.Storage.Backend))
	if err != nil {
		return err
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(c); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	be, err := openBackend(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.close(); err != nil {
			log.Warn().Err(err).Msg("close storage")
		}
	}()
	log.Info().Str("backend", cfg.Storage.Backend).Str("key", cfg.Storage.Key).Msg("storage ready")

	ids, err := services.NewIDGenerator(cfg.Booking.IDStrategy, cfg.Booking.SnowflakeNode)
	if err != nil {
		return err
	}
	appts := services.NewAppointmentService(be.store,
		services.WithKey(cfg.Storage.Key),
		services.WithIDs(ids),
		services.WithStrictReads(cfg.Storage.StrictReads),
	)

	bookings := services.NewBookingService(appts)
	rules := services.DefaultValidationRules()
	rules.MinClientNameRunes = cfg.Booking.MinClientName
	rules.RequireFuture = cfg.Booking.RequireFuture
	rules.Location = cfg.Booking.Location()
	bookings.Rules = rules

	// Housekeeping
	if err := backup.ValidateSpec(cfg.Backup.Cron); err != nil {
		return err
	}
	sched := backup.NewScheduler(cfg.Booking.Location())
	snap := &backup.Snapshotter{Store: be.store, Key: cfg.Storage.Key, Dir: cfg.Backup.Dir, Keep: cfg.Backup.Keep}
	if err := sched.Add("snapshot", cfg.Backup.Cron, snap.Job()); err != nil {
		return err
	}
	if be.db != nil {
		db := be.db
		if err := sched.Add("idempotency-purge", "@hourly", func(ctx context.Context) error {
			n, err := repo.PurgeExpiredIdempotency(ctx, db, time.Now().UTC())
			if err == nil && n > 0 {
				log.Info().Int64("removed", n).Msg("expired idempotency keys purged")
			}
			return err
		}); err != nil {
			return err
		}
	} else {
		log.Info().Str("backend", cfg.Storage.Backend).Msg("idempotency replay disabled for non-SQL backend")
	}
	if sysutil.IsTruthy(os.Getenv("BACKUP_ON_START")) {
		if err := snap.Job()(ctx); err != nil {
			log.Warn().Err(err).Msg("startup snapshot failed")
		}
	}
	sched.Start()
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := sched.Stop(c); err != nil {
			log.Warn().Err(err).Msg("scheduler stop")
		}
	}()

	// HTTP
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Appointments: appts,
		Bookings:     bookings,
		DB:           be.db,
		Ready: func(ctx context.Context) error {
			return be.ready(ctx, cfg.Storage.Key)
		},
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", ver).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	c, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(c)
}
