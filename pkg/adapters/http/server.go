package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/regions"
	"github.com/aretw0/regions/internal/logging"
	"github.com/aretw0/regions/internal/validator"
	"github.com/aretw0/regions/pkg/domain"
	"github.com/aretw0/regions/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const maxBodyBytes = 1 << 20

// Server exposes the session manager over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	logger      *slog.Logger
	corsOrigins []string

	mu    sync.Mutex
	pumps map[string]struct{}
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger for request errors and stream events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCORSOrigins sets the allowed origins. Defaults to "*".
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// NewServer creates a server over sessions.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Sessions:    sessions,
		logger:      logging.NewNop(),
		corsOrigins: []string{"*"},
		pumps:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates a new HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(sessions, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(RawSpec())
	})
	r.Get("/regions", s.ListRegions)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/region", s.SelectRegion)
			r.Post("/country", s.SelectCountry)
			r.Post("/retry", s.Retry)
			r.Post("/reset", s.Reset)
			r.Delete("/error", s.ClearError)
			r.Post("/actions", s.DispatchAction)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

type sessionResponse struct {
	SessionID string             `json:"session_id"`
	State     domain.RegionState `json:"state"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "regions-http",
		"version":     strings.TrimSpace(regions.Version),
		"api_version": apiVersion,
	})
}

// ListRegions handles the GET /regions request.
func (s *Server) ListRegions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"regions": domain.Regions()})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, store, err := s.Sessions.Create(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.ensurePump(id, store)
	s.logger.Info("session created", "session_id", id)
	s.writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id, State: store.State()})
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id, store, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, State: store.State()})
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectRegion handles the POST /sessions/{id}/region request.
func (s *Server) SelectRegion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Region string `json:"region"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	id, store, ok := s.session(w, r)
	if !ok {
		return
	}
	region, err := validator.SanitizeInput(body.Region)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := store.SelectRegion(r.Context(), region); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondAfterFetch(w, r, id, store)
}

// SelectCountry handles the POST /sessions/{id}/country request.
func (s *Server) SelectCountry(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	id, store, ok := s.session(w, r)
	if !ok {
		return
	}
	name, err := validator.SanitizeInput(body.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := store.SelectCountryByName(r.Context(), name); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, State: store.State()})
}

// Retry handles the POST /sessions/{id}/retry request.
func (s *Server) Retry(w http.ResponseWriter, r *http.Request) {
	id, store, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := store.Retry(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondAfterFetch(w, r, id, store)
}

// Reset handles the POST /sessions/{id}/reset request.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	id, store, ok := s.session(w, r)
	if !ok {
		return
	}
	store.Reset()
	s.writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, State: store.State()})
}

// ClearError handles the DELETE /sessions/{id}/error request.
func (s *Server) ClearError(w http.ResponseWriter, r *http.Request) {
	id, store, ok := s.session(w, r)
	if !ok {
		return
	}
	store.ClearError(r.Context())
	s.writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, State: store.State()})
}

// DispatchAction handles the POST /sessions/{id}/actions request.
func (s *Server) DispatchAction(w http.ResponseWriter, r *http.Request) {
	var action domain.Action
	if !s.decode(w, r, &action) {
		return
	}
	if err := action.Validate(); err != nil {
		s.writeStatus(w, http.StatusBadRequest, err)
		return
	}
	switch action.Type {
	case domain.ActionRequestCountries, domain.ActionSetRegion:
		// Validate has already parsed it.
		action.Region, _ = domain.ParseRegion(action.Region)
	}
	id, store, ok := s.session(w, r)
	if !ok {
		return
	}
	state := store.Dispatch(r.Context(), action)
	s.writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, State: state})
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	id, _, ok := s.session(w, r)
	if !ok {
		return
	}

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", id)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				fmt.Fprintf(w, "event: closed\ndata: %s\n\n", id)
				flusher.Flush()
				return
			}
			if len(watchList) > 0 && !watched(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// watched reports whether the diff in msg touches any of fields.
func watched(msg string, fields []string) bool {
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range fields {
		switch strings.TrimSpace(field) {
		case "regionSelected":
			if diff.RegionSelected != nil {
				return true
			}
		case "countries":
			if diff.Countries != nil {
				return true
			}
		case "countrySelected":
			if diff.CountrySelected != nil {
				return true
			}
		case "loading":
			if diff.Loading != nil {
				return true
			}
		case "error":
			if diff.Error != nil || diff.ErrorCleared {
				return true
			}
		}
	}
	return false
}

// ensurePump forwards the diffs of a live session to its SSE listeners.
// It runs until the session's container is closed.
func (s *Server) ensurePump(id string, store *regions.Store) {
	s.mu.Lock()
	if _, running := s.pumps[id]; running {
		s.mu.Unlock()
		return
	}
	s.pumps[id] = struct{}{}
	s.mu.Unlock()

	changes, _ := store.Subscribe(64)
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.pumps, id)
			s.mu.Unlock()
			s.Streams.CloseSession(id)
		}()
		for c := range changes {
			diff := domain.Diff(&c.Previous, &c.Current)
			if diff == nil {
				continue
			}
			diff.SessionID = id
			payload, err := json.Marshal(diff)
			if err != nil {
				s.logger.Error("failed to encode diff", "session_id", id, "err", err)
				continue
			}
			s.Streams.Broadcast(id, string(payload))
		}
	}()
}

// session resolves the {sessionID} of r, writing the error response if it fails.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, *regions.Store, bool) {
	id := chi.URLParam(r, "sessionID")
	store, err := s.Sessions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return "", nil, false
	}
	s.ensurePump(id, store)
	return id, store, true
}

// respondAfterFetch answers 202 with the loading state, or waits for the
// fetch and answers 200 when ?wait=true.
func (s *Server) respondAfterFetch(w http.ResponseWriter, r *http.Request, id string, store *regions.Store) {
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		s.writeJSON(w, http.StatusAccepted, sessionResponse{SessionID: id, State: store.State()})
		return
	}
	store.Wait()
	s.writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, State: store.State()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		s.writeStatus(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// writeError maps domain errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrCountryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownRegion), errors.Is(err, domain.ErrUnknownAction), validator.IsInvalid(err):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNoRegionSelected):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeStatus(w, status, err)
}

func (s *Server) writeStatus(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
