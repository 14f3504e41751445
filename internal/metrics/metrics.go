// Package metrics собирает Prometheus-метрики пайплайна дайджеста.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsdigest/internal/domain"
)

const namespace = "newsdigest"

// Metrics держит собственный реестр, поэтому несколько экземпляров
// могут сосуществовать в тестах. Методы безопасны для nil.
type Metrics struct {
	registry *prometheus.Registry

	SourceFetches  *prometheus.CounterVec
	CategoryItems  *prometheus.GaugeVec
	Runs           *prometheus.CounterVec
	BookmarkLoads  *prometheus.CounterVec
	LastRunSuccess prometheus.Gauge
}

// New регистрирует метрики пайплайна и стандартные метрики процесса.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SourceFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetch_total",
			Help:      "Feed fetches by category and result (ok, error)",
		}, []string{"category", "result"}),
		CategoryItems: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "category_items",
			Help:      "Items in the last aggregated result per category",
		}, []string{"category"}),
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Digest runs by status (delivered, skipped, failed)",
		}, []string{"status"}),
		BookmarkLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookmark_context_loads_total",
			Help:      "Bookmark context loads by state (loaded, missing, stale, malformed)",
		}, []string{"state"}),
		LastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success_timestamp_seconds",
			Help:      "Unix time of the last run that delivered or skipped cleanly",
		}),
	}
}

// Handler отдает метрики для /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveFetch(category string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SourceFetches.WithLabelValues(category, result).Inc()
}

func (m *Metrics) ObserveCategory(category string, items int) {
	if m == nil {
		return
	}
	m.CategoryItems.WithLabelValues(category).Set(float64(items))
}

func (m *Metrics) ObserveRun(status domain.RunStatus) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(string(status)).Inc()
	if status != domain.RunFailed {
		m.LastRunSuccess.SetToCurrentTime()
	}
}

func (m *Metrics) ObserveBookmarkContext(state string) {
	if m == nil {
		return
	}
	m.BookmarkLoads.WithLabelValues(state).Inc()
}
