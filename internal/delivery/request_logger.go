package delivery

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Felipe2109/voice_relay/internal/echo"
	"github.com/Felipe2109/voice_relay/internal/metrics"
)

// RequestLogger logs one line per request and counts it by method and status.
func RequestLogger(log *logger.ZapLogger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				// hijacked or nothing written
				status = http.StatusOK
				if echo.IsUpgrade(r) {
					status = http.StatusSwitchingProtocols
				}
			}
			m.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()

			level := "info"
			if status >= 500 {
				level = "error"
			}
			log.Log(logger.LogEntry{
				Level: level,
				Message: fmt.Sprintf("%s %s %d %s in=%s took=%s",
					r.Method, r.URL.Path, status,
					humanize.Bytes(uint64(ww.BytesWritten())),
					requestSize(r),
					time.Since(start).Round(time.Millisecond)),
				Service: "http",
			})
		})
	}
}

func requestSize(r *http.Request) string {
	if r.ContentLength < 0 {
		return "chunked"
	}
	return humanize.Bytes(uint64(r.ContentLength))
}
