package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/vsm"
	"github.com/aretw0/vsm/internal/logging"
	"github.com/aretw0/vsm/internal/presentation/graph"
	"github.com/aretw0/vsm/pkg/domain"
	"github.com/aretw0/vsm/pkg/host"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes a host.Manager over HTTP.
type Server struct {
	Manager  *host.Manager
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger

	// PollInterval is how often event streams sample machine snapshots.
	PollInterval time.Duration
}

// Option configures the handler.
type Option func(*Server)

// WithMetrics serves the gatherer on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// WithPollInterval sets how often event streams sample snapshots.
func WithPollInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.PollInterval = d
		}
	}
}

// NewHandler creates a new HTTP handler for the manager.
func NewHandler(mgr *host.Manager, opts ...Option) http.Handler {
	s := &Server{
		Manager:      mgr,
		Logger:       logging.NewNop(),
		PollInterval: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Route("/machines", func(r chi.Router) {
		r.Get("/", s.ListMachines)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.GetMachine)
			r.Get("/graph", s.GetGraph)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/trigger", s.Trigger)
			r.Post("/force", s.Force)
			r.Post("/pause", s.control(func(m *vsm.Machine) bool { m.Pause(); return true }))
			r.Post("/resume", s.control(func(m *vsm.Machine) bool { m.Resume(); return true }))
			r.Post("/restart", s.control(func(m *vsm.Machine) bool { return m.Restart() }))
		})
	})
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TriggerRequest selects a transition. Exactly one field must be set.
type TriggerRequest struct {
	Transition string `json:"transition,omitempty"`
	Label      string `json:"label,omitempty"`
	State      string `json:"state,omitempty"`
}

// ForceRequest names the state to enter.
type ForceRequest struct {
	State string `json:"state"`
}

// ActionResponse reports whether a request was accepted and where the
// machine ended up.
type ActionResponse struct {
	Accepted bool            `json:"accepted"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

// TriggerResponse is ActionResponse for triggers.
type TriggerResponse struct {
	Triggered bool            `json:"triggered"`
	Snapshot  domain.Snapshot `json:"snapshot"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"machines": len(s.Manager.Names()),
		"ticks":    s.Manager.Ticks(),
	})
}

// ListMachines handles GET /machines.
func (s *Server) ListMachines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Manager.Snapshots())
}

// GetMachine handles GET /machines/{name}.
func (s *Server) GetMachine(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Manager.Snapshot(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetGraph handles GET /machines/{name}/graph.
// It returns Mermaid text with the machine's position highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var out string
	err := s.Manager.Do(chi.URLParam(r, "name"), func(m *vsm.Machine) error {
		out = graph.GenerateMermaid(m.Graph(), graph.OverlayFromSnapshot(m.Snapshot()))
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

// Trigger handles POST /machines/{name}/trigger.
func (s *Server) Trigger(w http.ResponseWriter, r *http.Request) {
	var body TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("trigger: invalid request body", "err", err)
		return
	}

	set := 0
	for _, v := range []string{body.Transition, body.Label, body.State} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		http.Error(w, "exactly one of transition, label or state is required", http.StatusBadRequest)
		return
	}

	var resp TriggerResponse
	err := s.Manager.Do(chi.URLParam(r, "name"), func(m *vsm.Machine) error {
		switch {
		case body.Transition != "":
			resp.Triggered = m.TryTrigger(body.Transition)
		case body.Label != "":
			resp.Triggered = m.TryTriggerByLabel(body.Label)
		default:
			resp.Triggered = m.TryTriggerByState(body.State)
		}
		resp.Snapshot = m.Snapshot()
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Force handles POST /machines/{name}/force.
func (s *Server) Force(w http.ResponseWriter, r *http.Request) {
	var body ForceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.State == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.control(func(m *vsm.Machine) bool { return m.ForceEnterState(body.State) })(w, r)
}

func (s *Server) control(fn func(*vsm.Machine) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp ActionResponse
		err := s.Manager.Do(chi.URLParam(r, "name"), func(m *vsm.Machine) error {
			resp.Accepted = fn(m)
			resp.Snapshot = m.Snapshot()
			return nil
		})
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// SubscribeEvents handles GET /machines/{name}/events (SSE).
// Each event is a domain.SnapshotDiff. The optional "watch" query parameter
// (comma-separated: current, previous, paused, transition) filters events.
//
// State entries and transition starts are pushed as they happen, so
// instant round trips are not lost. Pause changes and reloads are picked up
// by polling every PollInterval. Timed transition progress is not streamed;
// read Elapsed from GET /machines/{name}.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	last, err := s.Manager.Snapshot(name)
	if err != nil {
		s.fail(w, err)
		return
	}

	var watch []string
	if v := r.URL.Query().Get("watch"); v != "" {
		watch = strings.Split(v, ",")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func(diff *domain.SnapshotDiff) {
		data, err := json.Marshal(diff)
		if err != nil {
			s.Logger.Error("events: encode failed", "err", err)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	pushed := make(chan domain.Snapshot, eventBuffer)
	stop, err := s.Manager.Watch(name, func(snap domain.Snapshot) {
		select {
		case pushed <- snap:
		default:
			s.Logger.Debug("events: client too slow, dropping update", "machine", name)
		}
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	defer stop()

	s.Logger.Debug("events: client subscribed", "machine", name)
	send(domain.Diff(nil, &last))

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	next := func(snap domain.Snapshot) {
		diff := domain.Diff(&last, &snap)
		last = snap
		if diff != nil && matches(diff, watch) {
			send(diff)
		}
	}

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("events: client disconnected", "machine", name)
			return
		case snap := <-pushed:
			next(snap)
		case <-ticker.C:
			// Queued pushes are older than the poll.
			for drained := false; !drained; {
				select {
				case snap := <-pushed:
					next(snap)
				default:
					drained = true
				}
			}
			snap, err := s.Manager.Snapshot(name)
			if err != nil {
				fmt.Fprintf(w, "event: removed\ndata: %s\n\n", name)
				flusher.Flush()
				return
			}
			next(snap)
		}
	}
}

// eventBuffer bounds the pushed snapshots queued for one event stream.
const eventBuffer = 64

func matches(diff *domain.SnapshotDiff, watch []string) bool {
	if len(watch) == 0 {
		return true
	}
	for _, field := range watch {
		switch strings.TrimSpace(field) {
		case "current":
			if diff.Current != nil {
				return true
			}
		case "previous":
			if diff.Previous != nil {
				return true
			}
		case "paused":
			if diff.Paused != nil {
				return true
			}
		case "transition":
			if diff.Transition != nil {
				return true
			}
		}
	}
	return false
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrMachineNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.Logger.Error("request failed", "err", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
