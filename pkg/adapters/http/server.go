package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/aretw0/ingest"
	"github.com/aretw0/ingest/internal/logging"
	"github.com/aretw0/ingest/pkg/domain"
	"github.com/aretw0/ingest/pkg/forms"
)

// Wizard is the part of ingest.Wizard the server drives.
type Wizard interface {
	Start(ctx context.Context, sessionID string, cfg domain.Configuration) (*domain.WizardState, error)
	Render(ctx context.Context, sessionID string, rc domain.RenderContext) (*domain.RenderableStep, error)
	Submit(ctx context.Context, sessionID, control string, values map[string]any) (*ingest.SubmitResult, error)
	State(ctx context.Context, sessionID string) (*domain.WizardState, error)
	Abandon(ctx context.Context, sessionID string) error
	Sessions(ctx context.Context) ([]string, error)
	Steps(ctx context.Context, models []string) ([]domain.Step, error)
}

var _ Wizard = (*ingest.Wizard)(nil)

// Server exposes a Wizard as a JSON API.
type Server struct {
	Wizard  Wizard
	Streams *StreamManager

	logger   *slog.Logger
	metrics  http.Handler
	defaults domain.Configuration
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager with the wizard's change listener.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetrics mounts h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaults fills configuration fields a start request leaves empty.
func WithDefaults(cfg domain.Configuration) Option {
	return func(s *Server) {
		s.defaults = cfg
	}
}

// NewHandler creates a new HTTP handler for the wizard.
func NewHandler(w Wizard, opts ...Option) http.Handler {
	s := &Server{Wizard: w, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	return s.Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(RawSpec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Get("/steps", s.ListSteps)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.StartSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.AbandonSession)
			r.Get("/render", s.RenderSession)
			r.Post("/submit", s.SubmitSession)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Ingest API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// StartRequest is the body of POST /sessions.
type StartRequest struct {
	SessionID string               `json:"session_id,omitempty"`
	Config    domain.Configuration `json:"config"`
}

// SubmitRequest is the body of POST /sessions/{id}/submit.
type SubmitRequest struct {
	Control string         `json:"control"`
	Values  map[string]any `json:"values,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "ingest-http",
		"version":     strings.TrimSpace(ingest.Version),
		"api_version": apiVersion,
	})
}

// ListSteps handles GET /steps.
func (s *Server) ListSteps(w http.ResponseWriter, r *http.Request) {
	steps, err := s.Wizard.Steps(r.Context(), r.URL.Query()["model"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, steps)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Wizard.Sessions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// StartSession handles POST /sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, r, "invalid request body", err)
		return
	}
	if body.SessionID == "" {
		body.SessionID = uuid.NewString()
	}
	cfg := s.withDefaults(body.Config)

	existed := true
	if _, err := s.Wizard.State(r.Context(), body.SessionID); errors.Is(err, domain.ErrSessionNotFound) {
		existed = false
	}

	state, err := s.Wizard.Start(r.Context(), body.SessionID, cfg)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	writeJSON(w, status, state)
}

func (s *Server) withDefaults(cfg domain.Configuration) domain.Configuration {
	if cfg.Namespace == "" && cfg.ID == "" {
		cfg.Namespace = s.defaults.Namespace
	}
	if cfg.Label == "" {
		cfg.Label = s.defaults.Label
	}
	if len(cfg.Models) == 0 {
		cfg.Models = append([]string(nil), s.defaults.Models...)
	}
	return cfg
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.Wizard.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// AbandonSession handles DELETE /sessions/{id}.
func (s *Server) AbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Wizard.Abandon(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenderSession handles GET /sessions/{id}/render.
func (s *Server) RenderSession(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	rc := domain.RenderContext{
		BaseURL: scheme + "://" + r.Host,
		Locale:  r.URL.Query().Get("locale"),
	}
	step, err := s.Wizard.Render(r.Context(), chi.URLParam(r, "id"), rc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// SubmitSession handles POST /sessions/{id}/submit.
func (s *Server) SubmitSession(w http.ResponseWriter, r *http.Request) {
	var body SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, r, "invalid request body", err)
		return
	}
	if body.Control == "" {
		s.badRequest(w, r, "control is required", nil)
		return
	}

	res, err := s.Wizard.Submit(r.Context(), chi.URLParam(r, "id"), body.Control, body.Values)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	sessionID := chi.URLParam(r, "id")
	var watch []string
	if v := r.URL.Query().Get("watch"); v != "" {
		watch = strings.Split(v, ",")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.logger.Info("SSE: subscribing to session updates", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !matchesWatch(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// StatusFor maps wizard errors to HTTP status codes.
func StatusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownControl),
		errors.Is(err, forms.ErrInputTooLarge),
		errors.Is(err, forms.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFinalized):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}

	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
	} else {
		s.logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, resp)
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if err != nil {
		s.logger.WarnContext(r.Context(), msg, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
