package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/sightings/internal/collector"
	"github.com/MrSnakeDoc/sightings/internal/config"
	"github.com/MrSnakeDoc/sightings/internal/domain"
	"github.com/MrSnakeDoc/sightings/internal/httpserver"
	"github.com/MrSnakeDoc/sightings/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sightings/internal/logger"
	"github.com/MrSnakeDoc/sightings/internal/pipeline"
	"github.com/MrSnakeDoc/sightings/internal/redis"
	"github.com/MrSnakeDoc/sightings/internal/scheduler"
	"github.com/MrSnakeDoc/sightings/internal/store"
	"github.com/MrSnakeDoc/sightings/internal/store/file"
	redisstore "github.com/MrSnakeDoc/sightings/internal/store/redis"
	"github.com/MrSnakeDoc/sightings/internal/version"
)

const (
	jobCollect = "collect"
	jobStatus  = "status"
)

// App owns the stats record and drives it through its lifecycle.
type App struct {
	cfg         *config.Config
	logger      logger.Logger
	statusLog   logger.Logger
	stats       *domain.CollectionStats
	store       *store.Store
	runner      *collector.Runner
	scheduler   *scheduler.Scheduler
	server      *httpserver.Server
	redisClient *goredis.Client
	pipeline    string // command line, for logs
	now         func() time.Time

	// Read side for the status server; never aliases stats.
	snapshot atomic.Pointer[domain.CollectionStats]
	ready    atomic.Bool
}

// New wires the service around p. A configured but unreachable Redis mirror
// is logged and skipped; the stats file alone is enough to run.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, p pipeline.Pipeline) (*App, error) {
	if p == nil {
		return nil, errors.New("pipeline is required")
	}

	started := time.Now()
	a := &App{
		cfg:       cfg,
		logger:    log.Named("service"),
		statusLog: log.Named("status"),
		stats:     domain.NewCollectionStats(started),
		scheduler: scheduler.New(log.Named("scheduler")),
		now:       time.Now,
	}
	if s, ok := p.(fmt.Stringer); ok {
		a.pipeline = s.String()
	}

	var backend store.Backend = file.New(cfg.StatsFile)
	if cfg.RedisAddr != "" {
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, log.Named("redis"))
		if err != nil {
			a.logger.Warn("redis stats mirror disabled", logger.Error(err))
		} else {
			a.redisClient = client
			backend = store.NewMirror(backend, redisstore.NewBackend(client, cfg.RedisInstance))
		}
	}

	a.store = store.New(backend, log.Named("store"))
	a.runner = collector.NewRunner(p, a.stats, a.store, log.Named("collector"))

	if cfg.ListenPort != "" {
		a.server = httpserver.New(cfg.ListenPort, log.Named("http"), deps.Deps{
			Logger:       log.Named("http"),
			StartTime:    started,
			Version:      version.Version,
			Commit:       version.Commit,
			BuildDate:    version.BuildDate,
			GoVersion:    version.GoVersion,
			TimeNow:      time.Now,
			AllowedCIDRS: cfg.AllowedCIDRS,
			Snapshot:     a.Snapshot,
			Ready:        a.Ready,
		})
	}

	return a, nil
}

// Snapshot returns the latest published copy of the stats, nil before load.
func (a *App) Snapshot() *domain.CollectionStats { return a.snapshot.Load() }

// Ready reports whether the startup collection has been attempted.
func (a *App) Ready() bool { return a.ready.Load() }

func (a *App) publish() {
	c := a.stats.Clone()
	a.snapshot.Store(&c)
}

func (a *App) load(ctx context.Context) {
	a.store.Load(ctx, a.stats)
	a.publish()
}

// collect runs one cycle. Failures are already logged by the runner and
// never leave this function.
func (a *App) collect(ctx context.Context) {
	_, _ = a.runner.Run(ctx)
	a.publish()
}

func (a *App) reportStatus(context.Context) {
	next, _ := a.scheduler.NextRun()
	collector.ReportStatus(a.statusLog, a.stats, a.now(), next)
}

// RunOnce loads the stats, runs a single collection cycle, reports and
// returns. A failed cycle is not an error.
func (a *App) RunOnce(ctx context.Context) error {
	defer a.close()

	a.logger.Info("running a single collection cycle",
		logger.String("version", version.String()),
		logger.String("pipeline", a.pipeline),
		logger.String("stats_file", a.cfg.StatsFile))

	a.load(ctx)
	a.collect(ctx)
	a.ready.Store(true)
	a.reportStatus(ctx)

	return nil
}

// Run starts the service and blocks until SIGINT/SIGTERM or ctx is
// cancelled, then saves the stats one last time.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("🚀 starting sightings collection service", logger.String("version", version.String()))

	if err := a.start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.scheduler.Run(gctx, a.cfg.PollInterval)
	})
	if a.server != nil {
		g.Go(func() error {
			if err := a.server.Start(); err != nil {
				return fmt.Errorf("status server error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()
			return a.server.Stop(shutdownCtx)
		})
	}

	err := g.Wait()

	a.logger.Info("⏳ shutting down, saving final stats")
	a.store.Save(context.Background(), a.stats)

	if err != nil {
		return err
	}
	a.logger.Info("✅ service stopped cleanly")
	return nil
}

// start loads the stats, registers both jobs and runs the first collection
// right away, independently of the schedule.
func (a *App) start(ctx context.Context) error {
	a.load(ctx)

	if err := a.scheduler.Every(jobCollect, a.cfg.CollectInterval, a.collect); err != nil {
		return fmt.Errorf("failed to schedule collection: %w", err)
	}
	if err := a.scheduler.Every(jobStatus, a.cfg.StatusInterval, a.reportStatus); err != nil {
		return fmt.Errorf("failed to schedule status report: %w", err)
	}

	a.collect(context.WithoutCancel(ctx))
	a.ready.Store(true)

	a.logger.Info("service started",
		logger.Duration("collect_interval", a.cfg.CollectInterval),
		logger.Duration("status_interval", a.cfg.StatusInterval),
		logger.Duration("poll_interval", a.cfg.PollInterval),
		logger.String("stats_file", a.cfg.StatsFile),
		logger.String("pipeline", a.pipeline))
	return nil
}

func (a *App) close() {
	if a.redisClient == nil {
		return
	}
	if err := a.redisClient.Close(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
	} else {
		a.logger.Info("✅ Redis closed cleanly")
	}
}
