package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/Felipe2109/voice_relay/internal/echo"
	"github.com/Felipe2109/voice_relay/internal/metrics"
	"github.com/Felipe2109/voice_relay/internal/speech"
	"github.com/Felipe2109/voice_relay/internal/voice"
)

const Liveness = "Servidor do Assistente Virtual rodando 🚀"

type Handlers struct {
	Voice *voice.Handler
	TTS   *speech.Handler
	Echo  *echo.Handler
	// Exchanges is optional; /exchanges is mounted only with AdminToken set.
	Exchanges  *ExchangeHandler
	AdminToken string

	// VoiceRateLimit is the per-client request budget for POST /voice per minute.
	// Clients are keyed by True-Client-IP, X-Real-IP or X-Forwarded-For when a
	// proxy sets them, else by the socket address.
	VoiceRateLimit int
}

func NewRouter(h Handlers, m *metrics.Metrics, log *logger.ZapLogger) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Use(RequestLogger(log, m))

	RegisterRoutes(r, h, m)
	return r
}

func RegisterRoutes(r chi.Router, h Handlers, m *metrics.Metrics) {
	// --- liveness / echo ---
	// kept outside the recover group, the upgrade needs the raw writer
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if echo.IsUpgrade(r) {
			h.Echo.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(Liveness))
	})
	r.Get("/ws", h.Echo.ServeHTTP)

	r.Group(func(pr chi.Router) {
		pr.Use(httputil.RecoverMiddleware)

		// --- voice ---
		limit := h.VoiceRateLimit
		if limit <= 0 {
			limit = 30
		}
		pr.With(httprate.LimitByRealIP(limit, time.Minute)).Post("/voice", h.Voice.Voice)

		// --- tts ---
		pr.Get("/tts", h.TTS.TTS)

		pr.Method(http.MethodGet, "/metrics", m.Handler())

		// --- admin ---
		if h.Exchanges != nil && h.AdminToken != "" {
			pr.With(AdminAuth(h.AdminToken)).Get("/exchanges", h.Exchanges.ListRecent)
		}
	})
}
