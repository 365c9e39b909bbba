package main

import (
	"context"
	"database/sql"
	"errors"
	"ev-trip-planner/internal/adapters/cache"
	"ev-trip-planner/internal/adapters/chargers"
	"ev-trip-planner/internal/adapters/geocode"
	"ev-trip-planner/internal/adapters/repositories"
	"ev-trip-planner/internal/adapters/routing"
	"ev-trip-planner/internal/api"
	"ev-trip-planner/internal/api/handlers"
	"ev-trip-planner/internal/config"
	"ev-trip-planner/internal/platform/db"
	"ev-trip-planner/internal/platform/obs"
	"ev-trip-planner/internal/ports"
	"ev-trip-planner/internal/services"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (OSRM, Overpass, Nominatim, Postgres, Redis)
// behind ports and starts the HTTP server.
func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	slog.SetDefault(obs.NewLogger(os.Stdout, cfg.LogLevel))
	if envErr != nil {
		slog.Info("no .env file found (using environment variables)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	var (
		routeCache    ports.RouteCache
		locationCache ports.LocationCache
	)

	// Postgres is optional; without it route and location lookups are uncached.
	if cfg.DatabaseURL != "" {
		conn, err := openCacheDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		routeCache = cache.NewSQLRouteCache(conn, cfg.CacheTTL)
		locationCache = cache.NewSQLLocationCache(conn, cfg.CacheTTL)
		slog.Info("postgres cache enabled", "ttl", cfg.CacheTTL.String())
	}

	routeOpts := []routing.Option{routing.WithUserAgent(cfg.UserAgent)}
	if routeCache != nil {
		routeOpts = append(routeOpts, routing.WithCache(routeCache))
	}
	routes, err := routing.NewOSRMProvider(cfg.OSRMBaseURL, routeOpts...)
	if err != nil {
		return err
	}

	overpass, err := chargers.NewOverpassFinder(cfg.OverpassURL,
		chargers.WithUserAgent(cfg.UserAgent),
		chargers.WithThrottle(cfg.Throttle),
	)
	if err != nil {
		return err
	}

	var finder ports.ChargerFinder = overpass
	if cfg.RedisURL != "" {
		client, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()

		finder = cache.NewRedisChargerCache(client, overpass, cfg.CacheTTL)
		slog.Info("redis charger cache enabled", "ttl", cfg.CacheTTL.String())
	}

	opts := services.DefaultPlannerOptions()
	opts.MaxStops = cfg.MaxStops
	planner, err := services.NewTripPlanner(routes, finder, opts)
	if err != nil {
		return err
	}

	searcher, err := geocode.NewNominatimSearcher(cfg.NominatimBaseURL, cfg.UserAgent, locationCache)
	if err != nil {
		return err
	}

	router := api.NewRouter(
		&handlers.TripHandler{Session: services.NewPlanSession(planner)},
		&handlers.LocationHandler{Searcher: searcher},
	)

	// Timeouts are tuned for multi-stop plans, each stop paying the POI courtesy delay.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      180 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "osrm", cfg.OSRMBaseURL, "max_stops", cfg.MaxStops)
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

	slog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openCacheDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := repositories.InitSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func openRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
