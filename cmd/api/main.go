package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/auth"
	"github.com/KerenDoz/Event-Planner/internal/cache"
	"github.com/KerenDoz/Event-Planner/internal/config"
	"github.com/KerenDoz/Event-Planner/internal/db"
	httpx "github.com/KerenDoz/Event-Planner/internal/http"
	"github.com/KerenDoz/Event-Planner/internal/http/handlers"
	"github.com/KerenDoz/Event-Planner/internal/identity"
	"github.com/KerenDoz/Event-Planner/internal/observability"
	"github.com/KerenDoz/Event-Planner/internal/redisclient"
	"github.com/KerenDoz/Event-Planner/internal/repo/memory"
	"github.com/KerenDoz/Event-Planner/internal/repo/postgres"
	"github.com/KerenDoz/Event-Planner/internal/service"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type categoryStore interface {
	service.CategoryStore
	db.CategorySeeder
}

type locationStore interface {
	service.LocationStore
	db.LocationSeeder
}

// stores is one persistence backend behind the service interfaces.
type stores struct {
	users      identity.UserStore
	refresh    identity.RefreshTokenStore
	categories categoryStore
	locations  locationStore
	events     service.EventStore
	ping       handlers.Check
	close      func()
}

func main() {
	// a missing .env is fine; real deployments use the environment
	_ = godotenv.Load()

	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env, cfg.OTelServiceName)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: cfg.OTelServiceName,
		Env:         cfg.Env,
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	st, err := openStores(ctx, cfg, prom)
	if err != nil {
		log.Error("store init failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer st.close()

	if cfg.SeedOnStart {
		seedCtx, cancel := config.WithTimeout(ctx, 10*time.Second)
		err := db.SeedReferenceData(seedCtx, st.categories, st.locations, log)
		cancel()
		if err != nil {
			log.Error("seeding failed", "err", err)
			os.Exit(1)
		}
	}

	checks := map[string]handlers.Check{"store": st.ping}

	// list cache: redis when configured, in-process otherwise
	var listStore cache.Store = cache.New(cfg.CacheTTL())
	if cfg.RedisAddr != "" {
		rc, err := redisclient.Open(ctx, redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}, log)
		if err != nil {
			log.Error("redis client", "err", err)
			os.Exit(1)
		}
		defer rc.Close()

		listStore = cache.NewRedis(rc, cfg.CacheTTL())
		checks["redis"] = rc.Ready
	}
	lists := cache.NewLists(listStore, prom, log)

	jwt := auth.NewManager(cfg.SigningSecret(), cfg.AccessTTL(), cfg.RefreshTTL())

	categories := service.NewCategories(st.categories, lists)
	locations := service.NewLocations(st.locations, lists)

	// set up routers with the log
	router := httpx.NewRouter(httpx.Dependencies{
		Config:     cfg,
		Log:        log,
		Prom:       prom,
		Gatherer:   reg,
		Tokens:     jwt,
		Accounts:   service.NewAccounts(identity.NewService(st.users), identity.NewSessions(jwt, st.users, st.refresh), prom),
		Categories: categories,
		Locations:  locations,
		Events:     service.NewEvents(st.events, st.categories, st.locations, prom),
		Checks:     checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	// Graceful shutdown

	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", "err", err)
	}

	log.Info("shutdown complete")
}

func openStores(ctx context.Context, cfg config.Config, prom *observability.Prom) (stores, error) {
	if cfg.StoreDriver == "memory" {
		m := memory.NewStore()
		return stores{
			users:      m.Users(),
			refresh:    m.RefreshTokens(),
			categories: m.Categories(),
			locations:  m.Locations(),
			events:     m.Events(),
			ping:       func(context.Context) error { return nil },
			close:      func() {},
		}, nil
	}

	connectCtx, cancel := config.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(connectCtx, cfg.DBURL, int32(cfg.DBMaxConns))
	if err != nil {
		return stores{}, err
	}

	if err := db.EnsureSchema(connectCtx, pool); err != nil {
		pool.Close()
		return stores{}, err
	}

	return stores{
		users:      postgres.NewUsersRepo(pool, prom),
		refresh:    postgres.NewRefreshTokensRepo(pool, prom),
		categories: postgres.NewCategoriesRepo(pool, prom),
		locations:  postgres.NewLocationsRepo(pool, prom),
		events:     postgres.NewEventsRepo(pool, prom),
		ping:       pool.Ping,
		close:      pool.Close,
	}, nil
}
