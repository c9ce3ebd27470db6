package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once

	// Upload metrics
	UploadsTotal      *prometheus.CounterVec
	UploadDuration    prometheus.Histogram
	ChunksSentTotal   prometheus.Counter
	ChunkBytesTotal   prometheus.Counter
	ChunkLatency      prometheus.Histogram
	UploadStepErrors  *prometheus.CounterVec
	UploadsInProgress prometheus.Gauge

	// Live channel metrics
	LiveConnectionEvents *prometheus.CounterVec
	LiveEventsReceived   *prometheus.CounterVec
	LiveFrameParseErrors prometheus.Counter
	LiveChannelsOpen     prometheus.Gauge
)

// Init creates the registry and registers every collector. Safe to call more than once.
func Init(logger *log.Logger) {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()

		UploadsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nanalyzer_uploads_total",
				Help: "Chunked uploads by outcome",
			},
			[]string{"outcome"},
		)
		UploadDuration = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nanalyzer_upload_duration_seconds",
				Help:    "Time from upload init to complete",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			},
		)
		ChunksSentTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nanalyzer_upload_chunks_sent_total",
				Help: "Chunks acknowledged by the backend",
			},
		)
		ChunkBytesTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nanalyzer_upload_chunk_bytes_total",
				Help: "Raw (pre-encoding) bytes acknowledged by the backend",
			},
		)
		ChunkLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nanalyzer_upload_chunk_latency_seconds",
				Help:    "Round trip of a single chunk request",
				Buckets: prometheus.DefBuckets,
			},
		)
		UploadStepErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nanalyzer_upload_step_errors_total",
				Help: "Upload failures by protocol step",
			},
			[]string{"step"},
		)
		UploadsInProgress = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nanalyzer_uploads_in_progress",
				Help: "Uploads currently sending chunks",
			},
		)

		LiveConnectionEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nanalyzer_live_connection_events_total",
				Help: "Live channel lifecycle events (open, close, error, reconnect)",
			},
			[]string{"event"},
		)
		LiveEventsReceived = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nanalyzer_live_events_received_total",
				Help: "Typed events received on live channels",
			},
			[]string{"type"},
		)
		LiveFrameParseErrors = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nanalyzer_live_frame_parse_errors_total",
				Help: "Malformed inbound frames that were dropped",
			},
		)
		LiveChannelsOpen = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nanalyzer_live_channels_open",
				Help: "Live channels with an open connection",
			},
		)

		registry.MustRegister(
			UploadsTotal,
			UploadDuration,
			ChunksSentTotal,
			ChunkBytesTotal,
			ChunkLatency,
			UploadStepErrors,
			UploadsInProgress,
			LiveConnectionEvents,
			LiveEventsReceived,
			LiveFrameParseErrors,
			LiveChannelsOpen,
		)

		if logger != nil {
			logger.Info("Prometheus metrics initialized")
		}
	})
}

func enabled() bool {
	return registry != nil
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	Init(nil)
	return promhttp.HandlerFor(
		registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			Registry:          registry,
		},
	)
}

// RecordUploadStarted marks an upload as sending.
func RecordUploadStarted() {
	if !enabled() {
		return
	}
	UploadsInProgress.Inc()
}

// RecordUploadFinished records the outcome (completed, cancelled, failed) of an upload.
func RecordUploadFinished(outcome string, duration time.Duration) {
	if !enabled() {
		return
	}
	UploadsInProgress.Dec()
	UploadsTotal.WithLabelValues(outcome).Inc()
	if outcome == "completed" {
		UploadDuration.Observe(duration.Seconds())
	}
}

func RecordChunk(bytes int, latency time.Duration) {
	if !enabled() {
		return
	}
	ChunksSentTotal.Inc()
	ChunkBytesTotal.Add(float64(bytes))
	ChunkLatency.Observe(latency.Seconds())
}

func RecordUploadStepError(step string) {
	if !enabled() {
		return
	}
	UploadStepErrors.WithLabelValues(step).Inc()
}

// RecordLiveConnection counts a live channel lifecycle event and tracks open channels.
func RecordLiveConnection(event string) {
	if !enabled() {
		return
	}
	LiveConnectionEvents.WithLabelValues(event).Inc()
	switch event {
	case "open":
		LiveChannelsOpen.Inc()
	case "close":
		LiveChannelsOpen.Dec()
	}
}

func RecordLiveEvent(eventType string) {
	if !enabled() {
		return
	}
	LiveEventsReceived.WithLabelValues(eventType).Inc()
}

func RecordLiveParseError() {
	if !enabled() {
		return
	}
	LiveFrameParseErrors.Inc()
}
