package echo

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/gorilla/websocket"

	"github.com/Felipe2109/voice_relay/internal/metrics"
)

const Ack = "Servidor recebeu sua mensagem!"

// Handler is the ESP32 echo socket: every inbound message is logged and
// acknowledged with Ack. Nothing is kept between messages.
type Handler struct {
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	log      *logger.ZapLogger
}

func NewHandler(m *metrics.Metrics, log *logger.ZapLogger) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		metrics: m,
		log:     log,
	}
}

// IsUpgrade reports whether r asks for a websocket.
func IsUpgrade(r *http.Request) bool {
	return websocket.IsWebSocketUpgrade(r)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		h.log.Log(logger.LogEntry{Level: "warn", Message: "[echo] upgrade failed", Error: err})
		return
	}
	defer conn.Close()

	h.metrics.EchoConnections.Inc()
	defer h.metrics.EchoConnections.Dec()
	h.log.Log(logger.LogEntry{Level: "info", Message: "[echo] ESP32 conectado " + r.RemoteAddr})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				h.log.Log(logger.LogEntry{Level: "warn", Message: "[echo] read error", Error: err})
			}
			break
		}

		h.metrics.EchoMessages.Inc()
		h.log.Log(logger.LogEntry{Level: "info", Message: "[echo] mensagem do ESP32: " + string(msg)})

		if err := conn.WriteMessage(websocket.TextMessage, []byte(Ack)); err != nil {
			h.log.Log(logger.LogEntry{Level: "warn", Message: "[echo] write error", Error: err})
			break
		}
	}

	h.log.Log(logger.LogEntry{Level: "info", Message: "[echo] ESP32 desconectado " + r.RemoteAddr})
}
