package speech

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/dustin/go-humanize"

	"github.com/Felipe2109/voice_relay/internal/error_notificator"
	"github.com/Felipe2109/voice_relay/internal/metrics"
)

// Handler serves GET /tts through a Synthesizer.
type Handler struct {
	tts      Synthesizer
	notifier error_notificator.Notificator
	metrics  *metrics.Metrics
	log      *logger.ZapLogger
}

// NewHandler builds the /tts handler. Upstream failures are reported to notifier.
func NewHandler(tts Synthesizer, notifier error_notificator.Notificator, m *metrics.Metrics, log *logger.ZapLogger) *Handler {
	return &Handler{tts: tts, notifier: notifier, metrics: m, log: log}
}

// TTS proxies GET /tts?text=... to the synthesis provider and streams the MP3 back.
func (h *Handler) TTS(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		h.metrics.TTSRequests.WithLabelValues("missing_text").Inc()
		http.Error(w, "Parâmetro 'text' é obrigatório", http.StatusBadRequest)
		return
	}

	audio, err := h.tts.Synthesize(r.Context(), text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer audio.Body.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, audio.Body)
	if err != nil {
		// headers are gone already, nothing to tell the client
		h.metrics.TTSRequests.WithLabelValues("stream_error").Inc()
		h.log.Log(logger.LogEntry{Level: "warn", Message: "[tts] stream interrupted after " + humanize.Bytes(uint64(n)), Error: err})
		return
	}

	h.metrics.TTSRequests.WithLabelValues("ok").Inc()
	h.log.Log(logger.LogEntry{Level: "info", Message: fmt.Sprintf("[tts] streamed %s for %d chars", humanize.Bytes(uint64(n)), len([]rune(text)))})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var upErr *UpstreamError
	switch {
	case errors.Is(err, ErrNotConfigured):
		h.metrics.TTSRequests.WithLabelValues("not_configured").Inc()
		http.Error(w, "VOICERSS_KEY não configurada", http.StatusInternalServerError)

	case errors.As(err, &upErr):
		h.metrics.TTSRequests.WithLabelValues("upstream_error").Inc()
		h.log.Log(logger.LogEntry{Level: "warn", Message: "[tts] upstream failure", Error: err})
		if h.notifier != nil {
			_ = h.notifier.Notify(r.Context(), err, "Falha no TTS (VoiceRSS)")
		}
		http.Error(w, fmt.Sprintf("Falha no TTS: %d %s", upErr.Status, upErr.Body), http.StatusBadGateway)

	default:
		h.metrics.TTSRequests.WithLabelValues("error").Inc()
		h.log.Log(logger.LogEntry{Level: "error", Message: "[tts] synthesis failed", Error: err})
		http.Error(w, "Erro ao gerar TTS", http.StatusInternalServerError)
	}
}
