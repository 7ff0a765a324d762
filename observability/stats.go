package observability

import (
	"context"
	"runtime"
	"strings"

	"github.com/samber/lo"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterNamePrefix = "xtree"

func meterName(kind, name string) string {
	builder := &strings.Builder{}
	builder.WriteString(meterNamePrefix)
	builder.WriteString("/")
	builder.WriteString(kind)
	builder.WriteString("/")
	if len(strings.TrimSpace(name)) > 0 {
		builder.WriteString(name)
	} else {
		builder.WriteString("default")
	}
	return builder.String()
}

// SortedMapSource is the read side of a sorted map observed by the gauges.
// Both calls must be safe for concurrent use with the map writers.
type SortedMapSource interface {
	Len() int64
	Height() int
}

type statsCfg struct {
	attrs []attribute.KeyValue
}

type StatsOption func(*statsCfg)

// WithStatsAttributes attaches attrs to every observation.
func WithStatsAttributes(attrs ...attribute.KeyValue) StatsOption {
	return func(cfg *statsCfg) {
		cfg.attrs = append(cfg.attrs, attrs...)
	}
}

/*
RegisterSortedMapStats registers two observable gauges of src on mp.

	xtree.map.size:   the number of entries
	xtree.map.height: the number of nodes on the longest root to leaf path

Every observation carries the attribute map=name. Unregister the returned
registration to stop observing src.
*/
func RegisterSortedMapStats(mp metric.MeterProvider, name string, src SortedMapSource, opts ...StatsOption) (metric.Registration, error) {
	cfg := &statsCfg{}
	for _, o := range opts {
		o(cfg)
	}
	attrs := metric.WithAttributes(append([]attribute.KeyValue{attribute.String("map", name)}, cfg.attrs...)...)

	meter := mp.Meter(
		meterName("map", name),
		metric.WithInstrumentationVersion(otelruntime.Version()),
	)
	size, err := meter.Int64ObservableGauge(
		"xtree.map.size",
		metric.WithDescription(`The number of entries of the sorted map.`),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}
	height, err := meter.Int64ObservableGauge(
		"xtree.map.height",
		metric.WithDescription(`The height of the sorted map's binary tree.`),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, err
	}
	return meter.RegisterCallback(func(ctx context.Context, ob metric.Observer) error {
		ob.ObserveInt64(size, src.Len(), attrs)
		ob.ObserveInt64(height, int64(src.Height()), attrs)
		return nil
	}, size, height)
}

// RegisterRuntimeStats registers the goroutines and GOMAXPROCS gauges and
// starts the otel runtime instrumentation on mp.
func RegisterRuntimeStats(mp metric.MeterProvider, name string) error {
	meter := mp.Meter(
		meterName("app", name),
		metric.WithInstrumentationVersion(otelruntime.Version()),
	)
	_ = lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
		"app.core.goroutines",
		metric.WithDescription(`The application goroutines' info.`),
		metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
			ob.Observe(int64(runtime.NumGoroutine()))
			return nil
		}),
	))
	_ = lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
		"app.core.processes",
		metric.WithDescription(`The application processes' info.`),
		metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
			ob.Observe(int64(runtime.GOMAXPROCS(0)))
			return nil
		}),
	))
	return otelruntime.Start(otelruntime.WithMeterProvider(mp))
}
