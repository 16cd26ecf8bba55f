package voice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/dustin/go-humanize"
	"github.com/rs/xid"

	"github.com/Felipe2109/voice_relay/internal/ai"
	"github.com/Felipe2109/voice_relay/internal/audiostore"
	"github.com/Felipe2109/voice_relay/internal/error_notificator"
	"github.com/Felipe2109/voice_relay/internal/ingest"
	"github.com/Felipe2109/voice_relay/internal/metrics"
	"github.com/Felipe2109/voice_relay/internal/ports"
)

// BackgroundTimeout bounds the archive upload and admin alert that run after
// the reply has been handed back.
const BackgroundTimeout = 30 * time.Second

// Service runs one voice request: audio -> transcript -> reply, and always
// removes the scratch recording on the way out. Archiving and admin alerts
// run in the background so they never delay the device's reply.
type Service struct {
	store     audiostore.Store
	stt       ai.Transcriber
	dialogue  Dialogue
	archive   ports.ArchiveService
	exchanges ports.ExchangeService
	notifier  error_notificator.Notificator
	metrics   *metrics.Metrics
	log       *logger.ZapLogger

	bg sync.WaitGroup
}

// NewService wires the pipeline. archive, exchanges and notifier may be nil.
func NewService(
	store audiostore.Store,
	stt ai.Transcriber,
	dialogue Dialogue,
	archive ports.ArchiveService,
	exchanges ports.ExchangeService,
	notifier error_notificator.Notificator,
	m *metrics.Metrics,
	log *logger.ZapLogger,
) *Service {
	return &Service{
		store:     store,
		stt:       stt,
		dialogue:  dialogue,
		archive:   archive,
		exchanges: exchanges,
		notifier:  notifier,
		metrics:   m,
		log:       log,
	}
}

// Reply returns the text to send back to the device. A blank transcript is
// not an error: it yields ClarificationText without consulting Dialogue.
func (s *Service) Reply(ctx context.Context, req ingest.Request) (string, error) {
	id := xid.New().String()
	start := time.Now()
	outcome := OutcomeInternalError

	var file *audiostore.File
	defer func() {
		s.cleanup(ctx, id, file)
		s.metrics.VoiceRequests.WithLabelValues(outcome).Inc()
		s.log.Log(logger.LogEntry{
			Level:   "info",
			Message: fmt.Sprintf("[voice] id=%s source=%s outcome=%s took=%s", id, req.Kind, outcome, time.Since(start).Round(time.Millisecond)),
		})
	}()

	// normalizing
	switch req.Kind {
	case ingest.KindMultipartFile:
		file = &audiostore.File{Path: req.Path, CreatedAt: start}
		if st, err := os.Stat(req.Path); err == nil {
			file.Size = st.Size()
		}
	case ingest.KindRawBytes:
		f, err := s.store.Save(req.Bytes, req.Ext)
		if err != nil {
			s.log.Log(logger.LogEntry{Level: "error", Message: "[voice] id=" + id + " save raw audio", Error: err})
			return "", fmt.Errorf("save raw audio: %w", err)
		}
		file = f
	default:
		outcome = OutcomeNoAudio
		return "", ErrNoAudioProvided
	}

	s.metrics.UploadSize.Observe(float64(file.Size))
	var audioDuration time.Duration
	if d, ok := audiostore.Inspect(file.Path); ok {
		audioDuration = d
		s.metrics.AudioDuration.Observe(d.Seconds())
	}
	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: fmt.Sprintf("[voice] id=%s received %s (%s) duration=%s", id, humanize.Bytes(uint64(file.Size)), filepath.Ext(file.Path), audioDuration),
	})

	// transcribing
	t0 := time.Now()
	transcript, err := s.stt.Transcribe(ctx, file.Path)
	s.metrics.TranscriptionDuration.Observe(time.Since(t0).Seconds())
	if err != nil {
		outcome = OutcomeTranscriptionFailed
		s.report(ctx, id, "transcrição", err)
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		outcome = OutcomeClarification
		s.record(ctx, ports.Exchange{
			ID: id, Source: req.Kind.String(), Reply: ClarificationText, Outcome: outcome,
			AudioBytes: file.Size, AudioDurationMs: audioDuration.Milliseconds(), CreatedAt: start,
		})
		return ClarificationText, nil
	}
	s.log.Log(logger.LogEntry{Level: "debug", Message: fmt.Sprintf("[voice] id=%s transcript: %q", id, transcript)})

	// chatting
	t0 = time.Now()
	reply, err := s.dialogue.Reply(ctx, transcript)
	s.metrics.DialogueDuration.Observe(time.Since(t0).Seconds())
	if err != nil {
		outcome = OutcomeDialogueFailed
		s.report(ctx, id, "resposta do chat", err)
		return "", fmt.Errorf("%w: %v", ErrDialogueFailed, err)
	}

	// responding
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = FallbackReply
	}
	outcome = OutcomeReply
	s.record(ctx, ports.Exchange{
		ID: id, Source: req.Kind.String(), Transcript: transcript, Reply: reply, Outcome: outcome,
		AudioBytes: file.Size, AudioDurationMs: audioDuration.Milliseconds(), CreatedAt: start,
	})
	return reply, nil
}

// Wait blocks until every background archive, delete and alert has finished.
func (s *Service) Wait() {
	s.bg.Wait()
}

func (s *Service) background(ctx context.Context, fn func(ctx context.Context)) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), BackgroundTimeout)
		defer cancel()
		fn(bctx)
	}()
}

// cleanup deletes the recording exactly once. With an archive configured the
// upload and the delete move off the request path.
func (s *Service) cleanup(ctx context.Context, id string, file *audiostore.File) {
	if file == nil {
		return
	}
	if s.archive == nil {
		s.store.Delete(file.Path)
		return
	}
	s.background(ctx, func(ctx context.Context) {
		defer s.store.Delete(file.Path)
		if url, err := s.archive.Archive(ctx, id, file.Path); err != nil {
			s.log.Log(logger.LogEntry{Level: "warn", Message: "[voice] id=" + id + " archive failed", Error: err})
		} else {
			s.log.Log(logger.LogEntry{Level: "debug", Message: "[voice] id=" + id + " archived to " + url})
		}
	})
}

func (s *Service) record(ctx context.Context, e ports.Exchange) {
	if s.exchanges == nil {
		return
	}
	if err := s.exchanges.Record(ctx, e); err != nil {
		s.log.Log(logger.LogEntry{Level: "warn", Message: "[voice] id=" + e.ID + " record exchange", Error: err})
	}
}

func (s *Service) report(ctx context.Context, id, stage string, err error) {
	s.log.Log(logger.LogEntry{Level: "error", Message: "[voice] id=" + id + " " + stage + " failed", Error: err})
	if s.notifier == nil {
		return
	}
	details := fmt.Sprintf("Falha na %s (id=%s)\n%s", stage, id, ai.DescribeError(err))
	s.background(ctx, func(ctx context.Context) {
		_ = s.notifier.Notify(ctx, err, details)
	})
}
