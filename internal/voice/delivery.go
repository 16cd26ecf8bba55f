package voice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/dustin/go-humanize"

	"github.com/Felipe2109/voice_relay/internal/ingest"
	"github.com/Felipe2109/voice_relay/internal/metrics"
)

type response struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves POST /voice on top of the ingest Decoder and the voice Service.
type Handler struct {
	decoder *ingest.Decoder
	svc     *Service
	metrics *metrics.Metrics
	log     *logger.ZapLogger
}

// NewHandler builds the /voice handler; the Decoder's cap also drives the 413 message.
func NewHandler(decoder *ingest.Decoder, svc *Service, m *metrics.Metrics, log *logger.ZapLogger) *Handler {
	return &Handler{decoder: decoder, svc: svc, metrics: m, log: log}
}

// Voice handles POST /voice with either a multipart "audio" file or a raw audio body.
func (h *Handler) Voice(w http.ResponseWriter, r *http.Request) {
	req, err := h.decoder.Decode(w, r)
	if err != nil {
		h.writeDecodeError(w, err)
		return
	}

	// upstream calls run to completion even if the device hangs up
	ctx := context.WithoutCancel(r.Context())

	text, err := h.svc.Reply(ctx, req)
	switch {
	case errors.Is(err, ErrNoAudioProvided):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Nenhum áudio recebido"})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Erro ao processar áudio"})
	default:
		writeJSON(w, http.StatusOK, response{Text: text})
	}
}

func (h *Handler) writeDecodeError(w http.ResponseWriter, err error) {
	status, msg := http.StatusInternalServerError, "Erro ao processar áudio"
	switch {
	case errors.Is(err, ingest.ErrUnsupportedMediaType):
		status, msg = http.StatusUnsupportedMediaType, "Tipo de conteúdo não suportado"
	case errors.Is(err, ingest.ErrTooLarge):
		status, msg = http.StatusRequestEntityTooLarge, "Áudio excede o limite de "+humanize.IBytes(uint64(h.decoder.MaxBytes()))
	case errors.Is(err, ingest.ErrUnexpectedField):
		status, msg = http.StatusBadRequest, "Campo de arquivo inesperado, use 'audio'"
	case errors.Is(err, ingest.ErrMalformed):
		status, msg = http.StatusBadRequest, "Requisição de áudio malformada"
	}

	level := "warn"
	if status == http.StatusInternalServerError {
		level = "error"
	}
	h.metrics.VoiceRequests.WithLabelValues(OutcomeRejected).Inc()
	h.log.Log(logger.LogEntry{Level: level, Message: "[voice] rejected request", Error: err})

	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
