package metrics

import (
	"runtime"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/observe/pkg/observe"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	require.NotNil(t, m.Counter, "expected counter metric to have Counter field")
	return m.GetCounter().GetValue()
}

func TestObserverCountsByOp(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := New(WithRegistry(reg))

	p := observe.Reactive(observe.NewArray(1, 2)).(*observe.Proxy)
	observe.WithObserver(o, func() {
		p.Get(0)
		p.Has(1)
		p.Call("push", 3)
		p.Delete(0)
	})

	assert.Equal(t, 1.0, counterValue(t, o.tracks.WithLabelValues("get")))
	assert.Equal(t, 1.0, counterValue(t, o.tracks.WithLabelValues("has")))
	assert.Equal(t, 0.0, counterValue(t, o.tracks.WithLabelValues("iterate")))
	assert.Equal(t, 1.0, counterValue(t, o.triggers.WithLabelValues("add")))
	assert.Equal(t, 1.0, counterValue(t, o.triggers.WithLabelValues("set")))
	assert.Equal(t, 1.0, counterValue(t, o.triggers.WithLabelValues("delete")))
}

func TestObserverChainsNext(t *testing.T) {
	rec := observe.NewRecorder(0)
	o := New(WithRegistry(prometheus.NewRegistry()), WithNext(rec))

	p := observe.Reactive(observe.NewObject()).(*observe.Proxy)
	observe.WithObserver(o, func() {
		p.Set("a", 1)
		p.Get("a")
	})

	require.Equal(t, 2, rec.Len())
	assert.Equal(t, "trigger add a", rec.Events()[0].String())
	assert.Equal(t, "track get a", rec.Events()[1].String())
}

func TestObserverRegistersNamespacedMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := New(
		WithRegistry(reg),
		WithNamespace("app"),
		WithSubsystem("state"),
		WithConstLabels(prometheus.Labels{"service": "test"}),
	)

	keep := observe.Reactive(observe.NewObject())
	o.Track(observe.NewObject(), observe.TrackGet, observe.Name("x"))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]*dto.MetricFamily{}
	for _, f := range families {
		names[f.GetName()] = f
	}
	assert.Contains(t, names, "app_state_tracks_total")
	require.Contains(t, names, "app_state_live_wrappers")

	wrappers := names["app_state_live_wrappers"]
	require.Len(t, wrappers.GetMetric(), 2)
	for _, m := range wrappers.GetMetric() {
		labels := map[string]string{}
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		assert.Equal(t, "test", labels["service"])
		if labels["mode"] == "reactive" {
			assert.GreaterOrEqual(t, m.GetGauge().GetValue(), 1.0)
		}
	}
	runtime.KeepAlive(keep)
}

func TestNewPanicsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(WithRegistry(reg))
	assert.Panics(t, func() { New(WithRegistry(reg)) })
}
