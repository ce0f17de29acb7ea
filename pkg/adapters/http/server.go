// Package http exposes the pathway as an OpenAI-compatible chat completions endpoint.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/pathway/internal/logging"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes caps inbound request bodies.
const maxBodyBytes = 4 << 20

// Controller decides the system prompt of a turn.
type Controller interface {
	Decide(ctx context.Context, turn domain.Turn) (*domain.Decision, error)
}

// Upstream is the chat model the rewritten request is sent to.
type Upstream interface {
	Complete(ctx context.Context, body []byte) ([]byte, error)
	Stream(ctx context.Context, body []byte, onChunk func(data []byte) error) error
}

// ResponseMode selects how non-streaming completions are returned.
type ResponseMode string

const (
	// ModePassthrough returns the upstream completion unchanged.
	ModePassthrough ResponseMode = "passthrough"
	// ModeCompact returns {"content": ...} on proceed and {"error": ...} on reject.
	ModeCompact ResponseMode = "compact"
)

// ParseResponseMode validates a mode name. Empty means passthrough.
func ParseResponseMode(s string) (ResponseMode, error) {
	switch ResponseMode(s) {
	case "", ModePassthrough:
		return ModePassthrough, nil
	case ModeCompact:
		return ModeCompact, nil
	}
	return "", errors.New("unknown response mode: " + s)
}

// UpstreamObserver is told about every upstream exchange.
type UpstreamObserver func(stream bool, elapsed time.Duration, err error)

// Server handles completion requests.
type Server struct {
	Controller Controller
	Upstream   Upstream

	mode    ResponseMode
	info    map[string]any
	metrics http.Handler
	observe UpstreamObserver
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithResponseMode sets the non-streaming response shape.
func WithResponseMode(m ResponseMode) Option {
	return func(s *Server) {
		if m != "" {
			s.mode = m
		}
	}
}

// WithInfo sets the fields served on GET /info.
func WithInfo(info map[string]any) Option {
	return func(s *Server) {
		for k, v := range info {
			s.info[k] = v
		}
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithUpstreamObserver registers a callback for upstream latency and failures.
func WithUpstreamObserver(fn UpstreamObserver) Option {
	return func(s *Server) {
		s.observe = fn
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a server without routes. Use Handler to mount it.
func NewServer(ctrl Controller, upstream Upstream, opts ...Option) *Server {
	s := &Server{
		Controller: ctrl,
		Upstream:   upstream,
		mode:       ModePassthrough,
		info:       map[string]any{"app": "pathway-http"},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates the HTTP handler for the pathway proxy.
func NewHandler(ctrl Controller, upstream Upstream, opts ...Option) http.Handler {
	return NewServer(ctrl, upstream, opts...).Handler()
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Post("/chat/completions", s.ChatCompletions)
	r.Post("/v1/chat/completions", s.ChatCompletions)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// ChatCompletions handles POST /chat/completions.
func (s *Server) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		s.logger.Warn("ChatCompletions: Invalid request body", "err", err)
		return
	}

	req, err := parseRequest(raw)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	decision, err := s.Controller.Decide(r.Context(), req.turn)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	body, err := req.upstreamBody(decision.Messages)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to build upstream request")
		s.logger.Error("ChatCompletions: Rewrite failed", "call_id", decision.CallID, "err", err)
		return
	}

	if req.stream {
		s.stream(w, r, decision, body)
		return
	}
	s.complete(w, r, decision, body)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.info)
}

// fail maps domain errors to status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("ChatCompletions failed", "status", status, "err", err,
			"request_id", middleware.GetReqID(r.Context()))
	} else {
		s.logger.Warn("ChatCompletions rejected", "status", status, "err", err)
	}
	s.writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) observeUpstream(stream bool, start time.Time, err error) {
	if s.observe != nil {
		s.observe(stream, time.Since(start), err)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
