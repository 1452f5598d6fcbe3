package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"card-scheduler/api"
	"card-scheduler/appointment"
	"card-scheduler/config"
	"card-scheduler/database"
	"card-scheduler/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load(os.Getenv("SCHEDULER_CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Msg("attempting to connect to database...")
	db, err := database.Connect(cfg.Database.DSN, database.PoolOptions{
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("database connect")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("database migrate")
	}
	logger.Info().Msg("successfully connected to database")

	opts := []api.Option{
		api.WithLogger(&logger),
		api.WithLocation(loc),
		api.WithBookingRateLimit(cfg.Server.BookingsPerSecond),
		api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		api.WithJWTSecret(cfg.Auth.JWTSecret),
	}
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Address).Msg("redis unreachable, continuing without cache and lock")
		} else {
			opts = append(opts, api.WithRedis(rdb, cfg.CacheTTL(), cfg.LockTTL()))
		}
	}

	service := api.NewAPI(db, opts...)
	service.RegisterRoutes()

	if interval := cfg.StaleSweepInterval(); interval > 0 {
		go sweepStale(ctx, service.Appointments(), interval, &logger)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           service.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", cfg.Server.Port).Str("timezone", loc.String()).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("server stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Log.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// sweepStale rejects pending appointments whose slot already started.
func sweepStale(ctx context.Context, appts *appointment.Accessor, interval time.Duration, logger *zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := appts.RejectStale(ctx, time.Now())
			if err != nil {
				logger.Error().Err(err).Msg("stale sweep failed")
				continue
			}
			if n > 0 {
				metrics.AddStaleRejected(n)
				logger.Info().Int64("rejected", n).Msg("stale pending appointments rejected")
			}
		}
	}
}
