package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/directory"
	"github.com/hackgods/clinic-scheduling/internal/logging"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("api-server", "dev", "info")
		boot.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New("api-server", cfg.Env, cfg.LogLevel)
	logger.Info().Str("http_port", cfg.HTTPPort).Str("auth_mode", cfg.AuthMode).Msg("api-server starting up")

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("api-server stopped with error")
		os.Exit(1)
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	rootCtx = logger.WithContext(rootCtx)

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	defer cancelPg()
	pgPool, err := db.Open(pgCtx, cfg.PostgresDSN, db.PoolOptions{})
	if err != nil {
		return err
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	locker := redisclient.NewNoopLocker()
	var redisPing api.Pinger
	if cfg.BookingLock {
		rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing redis")
			}
		}()
		locker = redisclient.NewRedisDoctorLocker(rdb, redisclient.LockOptions{TTL: cfg.LockTTL, Wait: cfg.LockWait})
		redisPing = api.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		logger.Info().Str("addr", cfg.RedisAddr).Dur("lock_ttl", cfg.LockTTL).Dur("lock_wait", cfg.LockWait).Msg("booking lock enabled")
	} else {
		logger.Warn().Msg("booking lock disabled, concurrent bookings for one doctor can race")
	}

	appointments := appointment.NewService(appointment.NewPgRepository(pgPool), locker, cfg)
	dir := directory.NewService(directory.NewPgRepository(pgPool))

	router := api.NewRouter(api.RouterConfig{
		Appointments: appointments,
		Directory:    dir,
		Auth:         newAuthProvider(cfg),
		Logger:       logger,
		Postgres:     pgPool,
		Redis:        redisPing,
		Env:          cfg.Env,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-rootCtx.Done():
	}

	logger.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(rootCtx), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newAuthProvider(cfg config.Config) auth.Provider {
	if cfg.AuthMode == config.AuthModeJWT {
		return auth.NewJWTVerifier(cfg.AuthJWTSecret)
	}
	return auth.NewRemoteClient(cfg.AuthURL, cfg.AuthAPIKey, cfg.AuthTimeout)
}
