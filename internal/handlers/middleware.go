package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"anagramgame/internal/metrics"
)

// Logging middleware logs HTTP requests and records their latency
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		metrics.ObserveRequest(r.Method, route, ww.Status(), elapsed)

		event := log.Info()
		if ww.Status() >= http.StatusInternalServerError {
			event = log.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", elapsed).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("request")
	})
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	log.Warn().Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("rate limit exceeded")
	respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
}
