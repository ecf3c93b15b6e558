package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the scraper.
type Metrics struct {
	QueriesTotal    prometheus.Counter
	LinksDiscovered prometheus.Counter
	RecordsScraped  prometheus.Counter
	EmailsResolved  prometheus.Counter
	ChunksSubmitted prometheus.Counter
	ChunksDropped   prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		QueriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scraper_queries_processed_total",
			Help: "The total number of search queries processed",
		}),
		LinksDiscovered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scraper_links_discovered_total",
			Help: "The total number of detail links discovered while crawling",
		}),
		RecordsScraped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scraper_records_scraped_total",
			Help: "The total number of viable business records assembled",
		}),
		EmailsResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scraper_emails_resolved_total",
			Help: "The total number of emails recovered from business websites",
		}),
		ChunksSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scraper_chunks_submitted_total",
			Help: "The total number of record chunks acknowledged by the sink",
		}),
		ChunksDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scraper_chunks_dropped_total",
			Help: "The total number of record chunks dropped after exhausting retries",
		}),
		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "The total number of errors encountered",
		}, []string{"type"}), // e.g. 'detail_nav_failed', 'submit_failed'
	}
}

func (m *Metrics) IncErrorsTotal(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
