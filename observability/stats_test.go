package observability

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/benz9527/xtree/lib/tree"
)

func collectGauges(t *testing.T, reader sdkmetric.Reader) map[string]metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	res := make(map[string]metricdata.DataPoint[int64])
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if g, ok := m.Data.(metricdata.Gauge[int64]); ok && len(g.DataPoints) > 0 {
				res[m.Name] = g.DataPoints[0]
			}
		}
	}
	return res
}

func TestRegisterSortedMapStats(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() {
		require.NoError(t, mp.Shutdown(context.Background()))
	}()

	m := tree.NewThreadSafeTreeMap[int, int](tree.NewRBTreeMap[int, int]())
	reg, err := RegisterSortedMapStats(mp, "orders", m, WithStatsAttributes(attribute.String("env", "test")))
	require.NoError(t, err)

	gauges := collectGauges(t, reader)
	require.Equal(t, int64(0), gauges["xtree.map.size"].Value)
	require.Equal(t, int64(0), gauges["xtree.map.height"].Value)

	for i := 0; i < 15; i++ {
		m.Set(i, i)
	}
	gauges = collectGauges(t, reader)
	require.Equal(t, int64(15), gauges["xtree.map.size"].Value)
	require.Equal(t, int64(m.Height()), gauges["xtree.map.height"].Value)
	sizePt := gauges["xtree.map.size"]
	v, ok := sizePt.Attributes.Value("map")
	require.True(t, ok)
	require.Equal(t, "orders", v.AsString())
	heightPt := gauges["xtree.map.height"]
	v, ok = heightPt.Attributes.Value("env")
	require.True(t, ok)
	require.Equal(t, "test", v.AsString())

	require.NoError(t, reg.Unregister())
	gauges = collectGauges(t, reader)
	require.NotContains(t, gauges, "xtree.map.size")
}

func TestRegisterRuntimeStats(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() {
		require.NoError(t, mp.Shutdown(context.Background()))
	}()
	require.NoError(t, RegisterRuntimeStats(mp, ""))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	names := make([]string, 0, 16)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names = append(names, m.Name)
		}
	}
	require.Contains(t, names, "app.core.goroutines")
	require.Contains(t, names, "app.core.processes")
}

func TestNewConsoleMeterProvider(t *testing.T) {
	buf := &bytes.Buffer{}
	mp, err := NewConsoleMeterProvider(time.Hour, time.Second, stdoutmetric.WithWriter(buf))
	require.NoError(t, err)

	m := tree.NewRBTreeMap[string, struct{}]()
	m.Set("a", struct{}{})
	_, err = RegisterSortedMapStats(mp, "console", m)
	require.NoError(t, err)

	require.NoError(t, mp.ForceFlush(context.Background()))
	require.NoError(t, mp.Shutdown(context.Background()))
	require.Contains(t, buf.String(), "xtree.map.size")
	require.Contains(t, buf.String(), "xtree.map.height")
}

func TestPrometheusMetricsServer(t *testing.T) {
	reg := promclient.NewRegistry()
	mp, err := NewPrometheusMeterProvider(reg)
	require.NoError(t, err)
	defer func() {
		_ = mp.Shutdown(context.Background())
	}()

	m := tree.NewRBTreeMap[int, string]()
	for i := 0; i < 3; i++ {
		m.Set(i, "v")
	}
	_, err = RegisterSortedMapStats(mp, "prom", m)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "xtree_map_size") {
			found = true
			require.Equal(t, 3.0, f.GetMetric()[0].GetGauge().GetValue())
		}
	}
	require.True(t, found)

	srv, err := NewMetricsServer("127.0.0.1:0", reg)
	require.NoError(t, err)
	go func() {
		_ = srv.Serve()
	}()
	defer func() {
		require.NoError(t, srv.Shutdown(context.Background()))
	}()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "xtree_map_height")
}
