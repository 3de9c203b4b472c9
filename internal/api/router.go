// Package api exposes the bot over HTTP for schedulers.
package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vthunder/postbot/internal/bot"
	"github.com/vthunder/postbot/internal/types"
)

// Invoker runs one bot invocation
type Invoker interface {
	Handle(ctx context.Context, req types.Request) (*bot.Result, error)
}

// NewRouter creates and configures the HTTP router
func NewRouter(logger zerolog.Logger, inv Invoker) *chi.Mux {
	r := chi.NewRouter()

	r.Use(countRequests)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", health)

	r.With(maxBodySize(8*1024)).Post("/", invoke(logger, inv))

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"status":"healthy"}`)
}

// invoke accepts the request JSON as application/json or, as sent by
// scheduler jobs, application/octet-stream
func invoke(logger zerolog.Logger, inv Invoker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptedType(r.Header.Get("Content-Type")) {
			http.Error(w, "content-type must be application/json or application/octet-stream", http.StatusUnsupportedMediaType)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}

		req, err := types.ParseRequest(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		res, err := inv.Handle(r.Context(), req)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, types.ErrConfiguration) {
				status = http.StatusBadRequest
			}
			logger.Error().Err(err).
				Str("request_id", chimw.GetReqID(r.Context())).
				Int("status", status).
				Msg("invocation failed")
			http.Error(w, err.Error(), status)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, res.Confirmation())
	}
}

func acceptedType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || mt == "application/octet-stream"
}
