package main

import (
	"flag"
	"time"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/fx"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/xlog"
)

func main() {
	cfg := &appConfig{}
	flag.IntVar(&cfg.keys, "keys", 1024, "keys inserted by every load worker")
	flag.IntVar(&cfg.workers, "workers", 4, "load workers on the ants pool")
	flag.Int64Var(&cfg.seed, "seed", time.Now().UnixNano(), "shuffle seed of the load workers")
	flag.StringVar(&cfg.logLevel, "log-level", xlog.LogLevelInfo.String(), "DEBUG, INFO, WARN or ERROR")
	flag.BoolVar(&cfg.plainText, "plain", false, "plain text log instead of JSON")
	flag.StringVar(&cfg.logFile, "log-file", "", "also log into this file, rotated at 64MB")
	flag.StringVar(&cfg.exporter, "exporter", exporterConsole, "metrics exporter, console or prometheus")
	flag.StringVar(&cfg.listen, "listen", "127.0.0.1:9464", "prometheus metrics listen address")
	flag.DurationVar(&cfg.interval, "interval", 5*time.Second, "console metrics export interval")
	flag.BoolVar(&cfg.keepAlive, "keep-alive", false, "keep serving metrics after the demo until a signal")
	flag.Parse()

	if cfg.workers <= 0 {
		cfg.workers = 1
	}
	if cfg.keys <= 0 {
		cfg.keys = 1
	}

	app := fx.New(append(appOptions(cfg),
		fx.Invoke(func(logger xlog.XLogger) {
			undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
				logger.Logf(zapcore.InfoLevel, format, args...)
			}))
			if err != nil {
				logger.Error(err, "set GOMAXPROCS")
				undo()
			}
		}),
	)...)
	app.Run()
}
