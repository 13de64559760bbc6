// Package observability exposes Prometheus metrics for the game server.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the server's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	Ticks        prometheus.Counter
	TickDuration prometheus.Histogram
	Players      prometheus.Gauge
	Enemies      prometheus.Gauge
	Bullets      prometheus.Gauge
	Level        prometheus.Gauge
	RunsFinished *prometheus.CounterVec

	Connections  prometheus.Gauge
	Messages     *prometheus.CounterVec
	DecodeErrors prometheus.Counter
}

// NewMetrics registers the collectors against reg, defaulting to the global
// Prometheus registry when nil. Collectors that are already registered are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &Metrics{gatherer: gatherer}
	var err error

	if m.Ticks, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skyfall_ticks_total",
		Help: "Total number of simulation ticks executed.",
	}), "skyfall_ticks_total"); err != nil {
		return nil, err
	}
	if m.TickDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "skyfall_tick_duration_seconds",
		Help:    "Time spent in one room tick, including snapshot and broadcast.",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	}), "skyfall_tick_duration_seconds"); err != nil {
		return nil, err
	}
	if m.Players, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skyfall_players",
		Help: "Current number of players in the run.",
	}), "skyfall_players"); err != nil {
		return nil, err
	}
	if m.Enemies, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skyfall_enemies",
		Help: "Current number of live enemies.",
	}), "skyfall_enemies"); err != nil {
		return nil, err
	}
	if m.Bullets, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skyfall_bullets",
		Help: "Current number of bullets in flight.",
	}), "skyfall_bullets"); err != nil {
		return nil, err
	}
	if m.Level, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skyfall_level",
		Help: "Current level of the run.",
	}), "skyfall_level"); err != nil {
		return nil, err
	}
	if m.RunsFinished, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skyfall_runs_finished_total",
		Help: "Total number of finished runs, labeled by end reason.",
	}, []string{"reason"}), "skyfall_runs_finished_total"); err != nil {
		return nil, err
	}
	if m.Connections, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skyfall_ws_connections",
		Help: "Current number of open WebSocket connections.",
	}), "skyfall_ws_connections"); err != nil {
		return nil, err
	}
	if m.Messages, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skyfall_ws_messages_total",
		Help: "Total number of WebSocket messages, labeled by direction (in, out).",
	}, []string{"direction"}), "skyfall_ws_messages_total"); err != nil {
		return nil, err
	}
	if m.DecodeErrors, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skyfall_ws_decode_errors_total",
		Help: "Total number of client frames dropped because they could not be decoded.",
	}), "skyfall_ws_decode_errors_total"); err != nil {
		return nil, err
	}

	return m, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (m *Metrics) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if m != nil && m.gatherer != nil {
		gatherer = m.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveTick satisfies multiplayer.Recorder.
func (m *Metrics) ObserveTick(d time.Duration, players, enemies, bullets, level int) {
	if m == nil {
		return
	}
	m.Ticks.Inc()
	m.TickDuration.Observe(d.Seconds())
	m.Players.Set(float64(players))
	m.Enemies.Set(float64(enemies))
	m.Bullets.Set(float64(bullets))
	m.Level.Set(float64(level))
}

// RunFinished satisfies multiplayer.Recorder.
func (m *Metrics) RunFinished(reason string) {
	if m == nil {
		return
	}
	m.RunsFinished.WithLabelValues(reason).Inc()
}

// ConnectionOpened records a new WebSocket connection.
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.Connections.Inc()
}

// ConnectionClosed records a closed WebSocket connection.
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.Connections.Dec()
}

// MessageIn records a received frame.
func (m *Metrics) MessageIn() {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues("in").Inc()
}

// MessageOut records a sent frame.
func (m *Metrics) MessageOut() {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues("out").Inc()
}

// DecodeError records a dropped client frame.
func (m *Metrics) DecodeError() {
	if m == nil {
		return
	}
	m.DecodeErrors.Inc()
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("observability: collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, fmt.Errorf("observability: register %s: %w", name, err)
	}
	return c, nil
}
