package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveTick(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m.ObserveTick(2*time.Millisecond, 3, 7, 4, 2)
	m.ObserveTick(time.Millisecond, 3, 5, 1, 2)

	if got := testutil.ToFloat64(m.Ticks); got != 2 {
		t.Errorf("skyfall_ticks_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Enemies); got != 5 {
		t.Errorf("skyfall_enemies = %v, want 5", got)
	}
	if got := testutil.ToFloat64(m.Level); got != 2 {
		t.Errorf("skyfall_level = %v, want 2", got)
	}
	if count := histogramSampleCount(t, reg, "skyfall_tick_duration_seconds"); count != 2 {
		t.Errorf("skyfall_tick_duration_seconds sample_count = %d, want 2", count)
	}
}

func TestRunsAndConnections(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m.RunFinished("game_over")
	m.RunFinished("game_over")
	m.RunFinished("abandoned")
	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.MessageIn()
	m.MessageOut()
	m.MessageOut()
	m.DecodeError()

	if got := testutil.ToFloat64(m.RunsFinished.WithLabelValues("game_over")); got != 2 {
		t.Errorf("runs game_over = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Connections); got != 1 {
		t.Errorf("skyfall_ws_connections = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Messages.WithLabelValues("out")); got != 2 {
		t.Errorf("messages out = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.DecodeErrors); got != 1 {
		t.Errorf("decode errors = %v, want 1", got)
	}
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	second, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("second NewMetrics: %v", err)
	}

	first.ConnectionOpened()
	if got := testutil.ToFloat64(second.Connections); got != 1 {
		t.Errorf("second collector set does not share state: %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveTick(time.Millisecond, 1, 1, 1, 1)
	m.RunFinished("game_over")
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.MessageIn()
	m.MessageOut()
	m.DecodeError()
	if m.Handler() == nil {
		t.Error("nil metrics should still serve a handler")
	}
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.ObserveTick(time.Millisecond, 2, 0, 0, 1)
	m.RunFinished("game_over")
	m.MessageIn()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"skyfall_ticks_total",
		"skyfall_tick_duration_seconds",
		"skyfall_players 2",
		"skyfall_runs_finished_total",
		"skyfall_ws_messages_total",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("expected %q in /metrics output", metric)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if h := histogram(m); h != nil {
				return h.GetSampleCount()
			}
		}
	}
	return 0
}

func histogram(m *dto.Metric) *dto.Histogram {
	return m.GetHistogram()
}
