package main

import (
	"context"
	"math/rand"
	"path/filepath"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/lib/xlog"
	"github.com/benz9527/xtree/observability"
)

const (
	exporterConsole    = "console"
	exporterPrometheus = "prometheus"
)

type appConfig struct {
	keys      int
	workers   int
	seed      int64
	logLevel  string
	plainText bool
	logFile   string
	exporter  string
	listen    string
	interval  time.Duration
	keepAlive bool
}

type xtreeBanner struct{}

func (xtreeBanner) JSON() string {
	return `{"app":"xtree","desc":"arena backed red-black tree map"}`
}

func (xtreeBanner) PlainText() string {
	return `
__  __  _____  ____   _____  _____
\ \/ / |_   _||  _ \ | ____|| ____|
 \  /    | |  | |_) ||  _|  |  _|
 /  \    | |  |  _ < | |___ | |___
/_/\_\   |_|  |_| \_\|_____||_____|
`
}

func newLogger(cfg *appConfig) xlog.XLogger {
	enc := xlog.JSON
	if cfg.plainText {
		enc = xlog.PlainText
	}
	opts := []xlog.XLoggerOption{
		xlog.WithXLoggerLevel(xlog.ParseLogLevel(cfg.logLevel)),
		xlog.WithXLoggerEncoder(enc),
		xlog.WithXLoggerWriter(xlog.StdOut),
		xlog.WithXLoggerContextFieldExtract("map"),
		xlog.WithXLoggerContextFieldExtract("phase"),
	}
	if cfg.logFile != "" {
		opts = append(opts,
			xlog.WithXLoggerConsoleCore(),
			xlog.WithXLoggerFileCore(&xlog.FileCoreConfig{
				FilePath:       filepath.Dir(cfg.logFile),
				Filename:       filepath.Base(cfg.logFile),
				FileMaxSize:    "64MB",
				FileMaxBackups: 3,
			}),
		)
	}
	logger := xlog.NewXLogger(opts...)
	logger.Banner(xtreeBanner{})
	return logger
}

type sortedMaps struct {
	fx.Out

	Impl *tree.TreeMap[int64, int64]
	Safe tree.SortedMap[int64, int64]
}

func newSortedMaps() sortedMaps {
	impl := tree.NewRBTreeMap[int64, int64]()
	return sortedMaps{
		Impl: impl,
		Safe: tree.NewThreadSafeTreeMap[int64, int64](impl),
	}
}

type meterProviderResult struct {
	fx.Out

	Provider metric.MeterProvider
	Registry *promclient.Registry
}

func newMeterProvider(lc fx.Lifecycle, cfg *appConfig, logger xlog.XLogger) (meterProviderResult, error) {
	var (
		mp  *sdkmetric.MeterProvider
		reg *promclient.Registry
		err error
	)
	switch cfg.exporter {
	case exporterPrometheus:
		reg = promclient.NewRegistry()
		mp, err = observability.NewPrometheusMeterProvider(reg)
	default:
		mp, err = observability.NewConsoleMeterProvider(cfg.interval, cfg.interval)
	}
	if err != nil {
		return meterProviderResult{}, infra.WrapErrorStackWithMessage(err, "init meter provider")
	}
	otel.SetMeterProvider(mp)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("meter provider shutdown", zap.String("exporter", cfg.exporter))
			return mp.Shutdown(ctx)
		},
	})
	return meterProviderResult{Provider: mp, Registry: reg}, nil
}

type statsParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *appConfig
	Logger    xlog.XLogger
	Provider  metric.MeterProvider
	Registry  *promclient.Registry `optional:"true"`
	Map       tree.SortedMap[int64, int64]
}

func registerStats(p statsParams) error {
	// The meter provider shutdown collects the last observation of the map.
	if _, err := observability.RegisterSortedMapStats(p.Provider, "demo", p.Map); err != nil {
		return infra.WrapErrorStackWithMessage(err, "register sorted map stats")
	}
	if err := observability.RegisterRuntimeStats(p.Provider, "demo"); err != nil {
		return infra.WrapErrorStackWithMessage(err, "register runtime stats")
	}
	if p.Registry == nil {
		return nil
	}

	srv, err := observability.NewMetricsServer(p.Config.listen, p.Registry)
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "listen metrics server")
	}
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Serve(); err != nil {
					p.Logger.ErrorStack(infra.WrapErrorStack(err), "metrics server exited")
				}
			}()
			p.Logger.Info("metrics server started", zap.String("addr", srv.Addr()))
			return nil
		},
		OnStop: srv.Shutdown,
	})
	return nil
}

type demoParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Config     *appConfig
	Logger     xlog.XLogger
	Impl       *tree.TreeMap[int64, int64]
	Map        tree.SortedMap[int64, int64]
}

func runDemo(p demoParams) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := demo(ctx, p.Config, p.Logger, p.Impl, p.Map); err != nil {
					p.Logger.ErrorStack(err, "demo failed")
				}
				if p.Config.keepAlive {
					return
				}
				if err := p.Shutdowner.Shutdown(); err != nil {
					p.Logger.Error(err, "shutdown")
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
			return nil
		},
	})
}

func demo(
	ctx context.Context,
	cfg *appConfig,
	logger xlog.XLogger,
	impl *tree.TreeMap[int64, int64],
	m tree.SortedMap[int64, int64],
) error {
	if err := levelOrderScenario(xlog.ContextWithField(ctx, "phase", "scenario"), logger); err != nil {
		return err
	}
	stats, err := loadSortedMap(xlog.ContextWithField(ctx, "phase", "load"), cfg, logger, m)
	if err != nil {
		return err
	}
	logger.InfoContext(xlog.ContextWithField(ctx, "map", "demo"), "load finished",
		zap.Object("stats", stats),
		zap.Int64("len", m.Len()),
		zap.Int("height", m.Height()),
	)
	// The workers are drained, no lock is needed to walk the arena.
	if err = tree.Validate(impl); err != nil {
		return infra.WrapErrorStackWithMessage(err, "validate after load")
	}
	return nil
}

// levelOrderScenario builds a perfect red-black tree and deletes its root.
func levelOrderScenario(ctx context.Context, logger xlog.XLogger) error {
	m := tree.NewRBTreeMap[int, string]()
	for _, k := range []int{10, 5, 20, 3, 7, 15, 25} {
		if err := m.SetIfAbsent(k, "v"); err != nil {
			return infra.WrapErrorStackWithMessage(err, "scenario insert")
		}
	}
	logger.DebugContext(ctx, "scenario built", zap.Ints("inorder", keysOf(m)), zap.Int("height", m.Height()))
	if _, err := m.Delete(10); err != nil {
		return infra.WrapErrorStackWithMessage(err, "scenario delete root")
	}
	root, err := m.Key(m.Root())
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "scenario root")
	}
	logger.InfoContext(ctx, "scenario root deleted",
		zap.Int("newRoot", root),
		zap.Ints("inorder", keysOf(m)),
	)
	return tree.Validate(m)
}

func keysOf[V any](m *tree.TreeMap[int, V]) []int {
	keys := make([]int, 0, m.Len())
	m.Foreach(func(idx int64, key int, val V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

type loadStats struct {
	inserted int64
	deleted  int64
	misses   int64
	elapsed  time.Duration
}

func (s *loadStats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt64("inserted", s.inserted)
	enc.AddInt64("deleted", s.deleted)
	enc.AddInt64("misses", s.misses)
	enc.AddDuration("elapsed", s.elapsed)
	return nil
}

// loadSortedMap runs cfg.workers writers on an ants pool. Every writer
// owns a disjoint key range, inserts cfg.keys shuffled keys and deletes
// every third of them.
func loadSortedMap(ctx context.Context, cfg *appConfig, logger xlog.XLogger, m tree.SortedMap[int64, int64]) (*loadStats, error) {
	pool, err := ants.NewPool(cfg.workers, ants.WithLogger(xlog.NewAntsXLogger(logger)))
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "new ants pool")
	}
	defer pool.Release()

	var (
		lock  sync.Mutex
		stats = &loadStats{}
		wg    sync.WaitGroup
		errs  error
		start = time.Now()
	)
	for w := 0; w < cfg.workers; w++ {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			r := rand.New(rand.NewSource(cfg.seed + int64(w)))
			base := int64(w * cfg.keys)
			keys := lo.Map(lo.Range(cfg.keys), func(i int, _ int) int64 { return base + int64(i) })
			r.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

			var inserted, deleted, misses int64
			for i, k := range keys {
				if ctx.Err() != nil {
					break
				}
				if err := m.SetIfAbsent(k, k*k); err == nil {
					inserted++
				}
				if i%3 == 2 {
					if _, err := m.Delete(keys[i-1]); err != nil {
						misses++
					} else {
						deleted++
					}
				}
			}
			lock.Lock()
			defer lock.Unlock()
			stats.inserted += inserted
			stats.deleted += deleted
			stats.misses += misses
		})
		if submitErr != nil {
			wg.Done()
			errs = multierr.Append(errs, submitErr)
		}
	}
	wg.Wait()
	stats.elapsed = time.Since(start)
	if errs != nil {
		return stats, infra.WrapErrorStackWithMessage(errs, "submit load workers")
	}
	logger.DebugContext(ctx, "load workers drained", zap.Int("workers", cfg.workers))
	return stats, nil
}

func newFxLogger(logger xlog.XLogger) fxevent.Logger {
	return xlog.NewFxXLogger(logger)
}

func appOptions(cfg *appConfig) []fx.Option {
	return []fx.Option{
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			newSortedMaps,
			newMeterProvider,
		),
		fx.WithLogger(newFxLogger),
		fx.Invoke(
			registerStats,
			runDemo,
		),
	}
}
