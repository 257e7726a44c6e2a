package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/incidash/internal/alerting"
	"github.com/good-yellow-bee/incidash/internal/analytics"
	"github.com/good-yellow-bee/incidash/internal/api"
	"github.com/good-yellow-bee/incidash/internal/api/health"
	"github.com/good-yellow-bee/incidash/internal/clock"
	"github.com/good-yellow-bee/incidash/internal/dashboard"
	"github.com/good-yellow-bee/incidash/internal/metrics"
	"github.com/good-yellow-bee/incidash/internal/models"
	"github.com/good-yellow-bee/incidash/internal/scheduler"
	"github.com/good-yellow-bee/incidash/internal/store"
	"github.com/good-yellow-bee/incidash/pkg/config"
)

// app holds the wired server components.
type app struct {
	cfg     *Config
	logger  *zap.Logger
	store   *store.Store
	sched   *scheduler.Scheduler
	service *dashboard.Service
	api     *api.Server
	metrics *metrics.Server
	watcher *analytics.LookupWatcher
}

func newApp(cfg *Config, clk clock.Clock, logger *zap.Logger) (*app, error) {
	seed := cfg.Data.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	tickets, err := initialTickets(cfg, rng, clk.Now())
	if err != nil {
		return nil, err
	}
	st := store.New(tickets, rng)
	logger.Info("ticket store ready",
		zap.Int("tickets", st.Len()),
		zap.Uint64("seed", seed),
	)

	rules := cfg.Rules
	if cfg.RulesFile != "" {
		rules, err = alerting.LoadRulesFromFile(cfg.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
	}
	engine := alerting.NewEngine(rules, logger.Named("rules"))

	lookup := analytics.NewLookupTable(analytics.DefaultLookup())
	var watcher *analytics.LookupWatcher
	if cfg.Data.LookupFile != "" {
		watcher, err = analytics.NewLookupWatcher(cfg.Data.LookupFile, lookup, logger.Named("lookup"))
		if err != nil {
			return nil, fmt.Errorf("load lookup tables: %w", err)
		}
		watcher.OnReload = func(err error) {
			metrics.LookupReloadsTotal.WithLabelValues(metrics.ReloadResult(err)).Inc()
		}
	}

	sched := scheduler.New(st, clk, scheduler.Config{
		Interval:  cfg.SchedulerInterval(),
		BatchSize: cfg.Scheduler.BatchSize,
	}, logger.Named("scheduler"))

	svc := dashboard.New(st, sched, clk, lookup, engine, dashboard.Options{
		DefaultWindow: models.TimeWindow(cfg.Dashboard.DefaultWindow),
		TicketRows:    cfg.Dashboard.TicketRows,
		TrendDays:     cfg.Dashboard.TrendDays,
	}, logger.Named("dashboard"))
	sched.OnTick(svc.HandleTick)

	apiServer, err := api.New(&api.Config{
		Address:            cfg.Server.HTTPAddress,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		ShutdownTimeout:    cfg.ShutdownTimeout(),
		Verbose:            cfg.Verbose,
	}, svc, logger.Named("api"))
	if err != nil {
		return nil, fmt.Errorf("create api server: %w", err)
	}
	if cfg.SchedulerEnabled() {
		apiServer.RegisterHealthChecker(health.NewSchedulerChecker(sched.Running))
		apiServer.RegisterHealthChecker(health.NewFreshnessChecker(sched.LastUpdated, clk.Now, cfg.StaleAfter()))
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		sched:   sched,
		service: svc,
		api:     apiServer,
		watcher: watcher,
	}
	if cfg.Server.MetricsAddress != "" {
		a.metrics = metrics.NewServer(cfg.Server.MetricsAddress, logger.Named("metrics"))
	}
	return a, nil
}

// initialTickets loads the fixture file or generates a demo set.
func initialTickets(cfg *Config, rng *rand.Rand, now time.Time) ([]models.Ticket, error) {
	if cfg.Data.FixtureFile != "" {
		tickets, err := store.LoadFile(cfg.Data.FixtureFile, now)
		if err != nil {
			return nil, fmt.Errorf("load fixture: %w", err)
		}
		return tickets, nil
	}
	return store.Generate(rng, now, cfg.Data.TicketCount), nil
}

// run starts every component and blocks until ctx is cancelled or one of
// them fails.
func (a *app) run(ctx context.Context) error {
	info := config.GetBuildInfo()
	metrics.BuildInfo.WithLabelValues(info.Version, info.Commit, info.GoVersion).Set(1)
	dashboard.RecordStoreMetrics(a.store.List())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.api.Run(ctx)
	})

	if a.cfg.SchedulerEnabled() {
		g.Go(func() error {
			return a.sched.Run(ctx)
		})
	} else {
		a.logger.Info("refresh scheduler disabled")
	}

	if a.watcher != nil {
		g.Go(func() error {
			return a.watcher.Run(ctx)
		})
	}

	if a.metrics != nil {
		g.Go(func() error {
			return a.metrics.Run(ctx)
		})
	}

	return g.Wait()
}
