package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the relay exports. Each instance owns its
// registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// voice pipeline
	VoiceRequests         *prometheus.CounterVec
	TranscriptionDuration prometheus.Histogram
	DialogueDuration      prometheus.Histogram
	AudioDuration         prometheus.Histogram
	UploadSize            prometheus.Histogram
	CleanupFailures       prometheus.Counter

	// speech synthesis proxy
	TTSRequests *prometheus.CounterVec

	// echo channel
	EchoConnections prometheus.Gauge
	EchoMessages    prometheus.Counter

	// HTTP API
	HTTPRequests *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		VoiceRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_requests_total",
			Help: "Voice requests by outcome",
		}, []string{"outcome"}),
		TranscriptionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_transcription_duration_seconds",
			Help:    "Time spent waiting for the transcription service",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		}),
		DialogueDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_dialogue_duration_seconds",
			Help:    "Time spent waiting for the chat completion service",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		AudioDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_audio_duration_seconds",
			Help:    "Duration of uploaded WAV recordings",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~1 minute
		}),
		UploadSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_upload_size_bytes",
			Help:    "Size of uploaded audio",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 9), // 1KB to ~64MB
		}),
		CleanupFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "voice_cleanup_failures_total",
			Help: "Temporary audio files that could not be removed",
		}),

		TTSRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tts_requests_total",
			Help: "Speech synthesis proxy requests by outcome",
		}, []string{"outcome"}),

		EchoConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "echo_connections",
			Help: "Currently open echo channel connections",
		}),
		EchoMessages: f.NewCounter(prometheus.CounterOpts{
			Name: "echo_messages_total",
			Help: "Messages received on the echo channel",
		}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method and status",
		}, []string{"method", "status"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
