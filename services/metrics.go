package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "assetmap_"

// Drop reasons for the decoder/ingest counters.
const (
	DropReasonParse  = "parse"
	DropReasonRecord = "record"
	ResultSuccess    = "success"
	ResultError      = "error"
)

// PipelineMetrics - 수신→저장→렌더 파이프라인 지표. nil이면 아무것도 기록하지 않음
type PipelineMetrics struct {
	EventsReceived  prometheus.Counter
	EventsDropped   *prometheus.CounterVec
	Coalesced       prometheus.Counter
	Ingested        prometheus.Counter
	Repaints        prometheus.Counter
	PaintSeconds    prometheus.Histogram
	Reconnects      prometheus.Counter
	TrackedObjects  prometheus.Gauge
	MetadataRefresh *prometheus.CounterVec
}

// NewPipelineMetrics registers the collectors on reg.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		EventsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "events_received_total",
			Help: "Telemetry events received from the push connection.",
		}),
		EventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "events_dropped_total",
			Help: "Telemetry events dropped before reaching the position store, by reason.",
		}, []string{"reason"}),
		Coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "mailbox_coalesced_total",
			Help: "Wire records superseded in the mailbox by a newer record for the same object.",
		}),
		Ingested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "records_ingested_total",
			Help: "Records accepted by the position store.",
		}),
		Repaints: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "repaints_total",
			Help: "Scene repaints.",
		}),
		PaintSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "paint_seconds",
			Help:    "Time spent painting one frame.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "stream_reconnects_total",
			Help: "Push connection reconnect attempts.",
		}),
		TrackedObjects: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "tracked_objects",
			Help: "Objects with a live position.",
		}),
		MetadataRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "metadata_refresh_total",
			Help: "Metadata cache refreshes by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.EventsReceived, m.EventsDropped, m.Coalesced, m.Ingested,
		m.Repaints, m.PaintSeconds, m.Reconnects, m.TrackedObjects, m.MetadataRefresh,
	)
	return m
}

func (m *PipelineMetrics) received() {
	if m != nil {
		m.EventsReceived.Inc()
	}
}

func (m *PipelineMetrics) dropped(reason string) {
	if m != nil {
		m.EventsDropped.WithLabelValues(reason).Inc()
	}
}

func (m *PipelineMetrics) coalesced() {
	if m != nil {
		m.Coalesced.Inc()
	}
}

func (m *PipelineMetrics) ingested(tracked int) {
	if m != nil {
		m.Ingested.Inc()
		m.TrackedObjects.Set(float64(tracked))
	}
}

func (m *PipelineMetrics) repainted(seconds float64) {
	if m != nil {
		m.Repaints.Inc()
		m.PaintSeconds.Observe(seconds)
	}
}

func (m *PipelineMetrics) reconnecting() {
	if m != nil {
		m.Reconnects.Inc()
	}
}

func (m *PipelineMetrics) metadataRefreshed(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.MetadataRefresh.WithLabelValues(ResultError).Inc()
		return
	}
	m.MetadataRefresh.WithLabelValues(ResultSuccess).Inc()
}
