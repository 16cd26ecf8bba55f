package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/dustin/go-humanize"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Felipe2109/voice_relay/internal/ai"
	"github.com/Felipe2109/voice_relay/internal/audiostore"
	"github.com/Felipe2109/voice_relay/internal/config"
	"github.com/Felipe2109/voice_relay/internal/delivery"
	"github.com/Felipe2109/voice_relay/internal/domain"
	"github.com/Felipe2109/voice_relay/internal/echo"
	"github.com/Felipe2109/voice_relay/internal/error_notificator"
	"github.com/Felipe2109/voice_relay/internal/infra"
	"github.com/Felipe2109/voice_relay/internal/ingest"
	"github.com/Felipe2109/voice_relay/internal/metrics"
	"github.com/Felipe2109/voice_relay/internal/ports"
	"github.com/Felipe2109/voice_relay/internal/speech"
	"github.com/Felipe2109/voice_relay/internal/voice"
)

const serviceName = "voice_relay"

func main() {

	// =========================================================================
	// ENV / LOGGER
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// OPTIONAL INFRASTRUCTURE (Postgres / S3 / Telegram)
	// =========================================================================

	var exchanges ports.ExchangeService
	if cfg.DatabaseURL != "" {
		db, err := openDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer db.Close()

		repo := infra.NewExchangeRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("postgres schema: %v", err)
		}
		exchanges = domain.NewExchangeService(repo)
		zl.Log(logger.LogEntry{Level: "info", Message: "exchange history enabled", Service: serviceName})
	}

	var archive ports.ArchiveService
	if cfg.S3.Enabled() {
		s3Client, err := infra.NewS3Client(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("s3: %v", err)
		}
		archive = domain.NewArchiveService(s3Client)
		zl.Log(logger.LogEntry{Level: "info", Message: "audio archive enabled, bucket " + cfg.S3.Bucket, Service: serviceName})
	}

	var notifyInfra error_notificator.Notificator = error_notificator.Nop{}
	if cfg.Telegram.Enabled() {
		tg, err := error_notificator.NewInfra(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID)
		if err != nil {
			// admin alerts are optional, keep serving without them
			zl.Log(logger.LogEntry{Level: "warn", Message: "telegram notifier disabled", Service: serviceName, Error: err})
		} else {
			notifyInfra = tg
		}
	}
	errService := error_notificator.NewService(notifyInfra, zl)

	// =========================================================================
	// AUDIO STORE / CLIENTS
	// =========================================================================

	store, err := audiostore.NewFileStore(cfg.UploadsDir, zl, m.CleanupFailures)
	if err != nil {
		log.Fatalf("uploads dir: %v", err)
	}

	openAIClient := ai.NewOpenAIClient(cfg.OpenAI)
	ttsClient := speech.NewVoiceRSSClient(cfg.VoiceRSSKey, cfg.VoiceRSSURL, nil)
	if cfg.VoiceRSSKey == "" {
		zl.Log(logger.LogEntry{Level: "warn", Message: "VOICERSS_KEY not set, /tts will answer 500", Service: serviceName})
	}

	// =========================================================================
	// SERVICES / HANDLERS
	// =========================================================================

	dialogue := ai.NewDialogueService(openAIClient)
	voiceService := voice.NewService(store, openAIClient, dialogue, archive, exchanges, errService, m, zl)

	handlers := delivery.Handlers{
		Voice:          voice.NewHandler(ingest.NewDecoder(store, cfg.MaxUploadBytes), voiceService, m, zl),
		TTS:            speech.NewHandler(ttsClient, errService, m, zl),
		Echo:           echo.NewHandler(m, zl),
		AdminToken:     cfg.AdminToken,
		VoiceRateLimit: cfg.VoiceRateLimit,
	}
	if exchanges != nil {
		handlers.Exchanges = delivery.NewExchangeHandler(exchanges, zl)
	}

	router := delivery.NewRouter(handlers, m, zl)

	// =========================================================================
	// START SERVERS
	// =========================================================================

	servers := []*http.Server{{Addr: ":" + cfg.Port, Handler: router}}
	if cfg.WSPort != "" {
		servers = append(servers, &http.Server{Addr: ":" + cfg.WSPort, Handler: handlers.Echo})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			zl.Log(logger.LogEntry{Level: "info", Message: "listening at " + srv.Addr, Service: serviceName})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(srv)
	}
	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "uploads in " + store.Dir() + ", limit " + humanize.IBytes(uint64(cfg.MaxUploadBytes)),
		Service: serviceName,
	})

	select {
	case <-ctx.Done():
	case err := <-errCh:
		zl.Log(logger.LogEntry{Level: "error", Message: "server error", Service: serviceName, Error: err})
	}

	// =========================================================================
	// SHUTDOWN
	// =========================================================================

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zl.Log(logger.LogEntry{Level: "warn", Message: "shutdown " + srv.Addr, Service: serviceName, Error: err})
		}
	}
	// let in-flight archive uploads and alerts finish
	voiceService.Wait()
	zl.Log(logger.LogEntry{Level: "info", Message: "stopped", Service: serviceName})
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
