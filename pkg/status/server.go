// Package status implements the local operational HTTP listener: health
// probes, Prometheus metrics, and read-only MDIB/subscription debug
// endpoints, grounded on the teacher's chi router and health handler
// conventions.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/sdcgo/internal/logger"
	"github.com/marmos91/sdcgo/pkg/mdib"
	"github.com/marmos91/sdcgo/pkg/subscription"
)

// MdibView is the read-only surface /debug/mdib renders.
type MdibView interface {
	MdibVersion() mdib.Version
	SequenceId() string
}

// SubscriptionView is the read-only surface /debug/subscriptions renders.
type SubscriptionView interface {
	Snapshot() []subscription.Snapshot
}

// Server is the local status/metrics/debug HTTP listener.
type Server struct {
	httpServer *http.Server
	startedAt  time.Time
}

// New builds the chi router and wraps it in an *http.Server bound to
// addr. mdibView and subs may be nil, in which case their debug
// endpoints report unavailable.
func New(addr string, mdibView MdibView, subs SubscriptionView) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	s := &Server{startedAt: time.Now()}

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/debug/mdib", s.debugMdib(mdibView))
	r.Get("/debug/subscriptions", s.debugSubscriptions(subs))

	s.httpServer = &http.Server{Addr: addr, Handler: r}
	return s
}

// Start runs the listener in a background goroutine; ListenAndServe
// errors other than the expected shutdown error are logged.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("status server failed", logger.Err(err))
		}
	}()
}

// Stop gracefully shuts the listener down within ctx's deadline.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"uptime_sec": int64(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) debugMdib(view MdibView) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if view == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "mdib not wired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"mdib_version": view.MdibVersion(),
			"sequence_id":  view.SequenceId(),
		})
	}
}

func (s *Server) debugSubscriptions(subs SubscriptionView) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if subs == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "subscription manager not wired"})
			return
		}
		writeJSON(w, http.StatusOK, subs.Snapshot())
	}
}
