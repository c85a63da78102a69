package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/VIRTUALGOD325/Grievance-Portal/internal/model/grievance"
)

// StatsSource is the read side of the event log the collector scrapes.
type StatsSource interface {
	Statistics() (grievance.Stats, error)
}

// LogCollector exposes the event-log aggregates as Prometheus metrics. The
// log file is re-scanned on every scrape, so the metrics always reflect the
// durable state rather than an in-memory counter.
type LogCollector struct {
	source StatsSource

	total        *prometheus.Desc
	byDepartment *prometheus.Desc
	bySeverity   *prometheus.Desc
	voiceInputs  *prometheus.Desc
	withLocation *prometheus.Desc
	scrapeErrors prometheus.Counter
}

// NewLogCollector builds the collector for the given stats source.
func NewLogCollector(source StatsSource) *LogCollector {
	return &LogCollector{
		source: source,
		total: prometheus.NewDesc(
			"grievance_records_total",
			"Total grievance records in the event log",
			nil, nil,
		),
		byDepartment: prometheus.NewDesc(
			"grievance_records_by_department",
			"Grievance records per department",
			[]string{"department"}, nil,
		),
		bySeverity: prometheus.NewDesc(
			"grievance_records_by_severity",
			"Grievance records per severity level",
			[]string{"severity"}, nil,
		),
		voiceInputs: prometheus.NewDesc(
			"grievance_voice_inputs_total",
			"Grievance records that came from voice input",
			nil, nil,
		),
		withLocation: prometheus.NewDesc(
			"grievance_with_location_total",
			"Grievance records with an extracted location",
			nil, nil,
		),
		scrapeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grievance_log_scrape_errors_total",
			Help: "Failed scans of the grievance event log",
		}),
	}
}

// Describe implements prometheus.Collector.
func (c *LogCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.byDepartment
	ch <- c.bySeverity
	ch <- c.voiceInputs
	ch <- c.withLocation
	c.scrapeErrors.Describe(ch)
}

// Collect implements prometheus.Collector by scanning the log once.
func (c *LogCollector) Collect(ch chan<- prometheus.Metric) {
	stats, err := c.source.Statistics()
	if err != nil {
		log.Printf("[metrics] log scan failed: %v", err)
		c.scrapeErrors.Inc()
		c.scrapeErrors.Collect(ch)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(stats.Total))
	for _, department := range grievance.Departments() {
		ch <- prometheus.MustNewConstMetric(c.byDepartment, prometheus.GaugeValue,
			float64(stats.Departments[department]), string(department))
	}
	for _, severity := range grievance.Severities() {
		ch <- prometheus.MustNewConstMetric(c.bySeverity, prometheus.GaugeValue,
			float64(stats.Severities[severity]), string(severity))
	}
	ch <- prometheus.MustNewConstMetric(c.voiceInputs, prometheus.GaugeValue, float64(stats.VoiceInputs))
	ch <- prometheus.MustNewConstMetric(c.withLocation, prometheus.GaugeValue, float64(stats.WithLocation))
	c.scrapeErrors.Collect(ch)
}
