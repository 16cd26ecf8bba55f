package delivery

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Felipe2109/voice_relay/internal/ports"
)

type ExchangeHandler struct {
	exchanges ports.ExchangeService
	log       *logger.ZapLogger
}

func NewExchangeHandler(exchanges ports.ExchangeService, log *logger.ZapLogger) *ExchangeHandler {
	return &ExchangeHandler{exchanges: exchanges, log: log}
}

// ListRecent serves GET /exchanges?limit=N, newest first.
func (h *ExchangeHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	list, err := h.exchanges.ListRecent(r.Context(), limit)
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "[exchanges] list failed", Error: err})
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []ports.Exchange{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "[exchanges] encode response", Error: err})
	}
}
