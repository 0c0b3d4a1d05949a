// Package api is the public HTTP surface of the form runtime: form fetch,
// render schema, start/view tracking, password verification and submission.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/xordon/webform-go/internal/i18n"
	"github.com/xordon/webform-go/internal/observability"
	"github.com/xordon/webform-go/internal/ratelimit"
	"github.com/xordon/webform-go/internal/storage"
	"github.com/xordon/webform-go/internal/webhook"
)

// Server is the HTTP API server for the public form runtime.
type Server struct {
	store      storage.Store
	msgs       *i18n.Messages
	limiter    *ratelimit.SubmitLimiter
	duplicates *ratelimit.DuplicateWindow
	dispatcher *webhook.Dispatcher
	metrics    *observability.Metrics
	verifier   TokenVerifier
	dupWindow  time.Duration
	now        func() time.Time

	mux     *http.ServeMux
	handler http.Handler
}

// Options tunes server behavior. Zero values get defaults; nil Dispatcher
// disables webhook delivery and nil Verifier makes every visitor anonymous.
type Options struct {
	CORSOrigins     []string
	SubmitRate      float64
	SubmitBurst     int
	DuplicateWindow time.Duration
	Dispatcher      *webhook.Dispatcher
	Metrics         *observability.Metrics
	Verifier        TokenVerifier
	Now             func() time.Time
}

// New creates a Server over the given store.
func New(store storage.Store, msgs *i18n.Messages, opts Options) *Server {
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.SubmitRate <= 0 {
		opts.SubmitRate = 1
	}
	if opts.SubmitBurst <= 0 {
		opts.SubmitBurst = 5
	}
	if opts.DuplicateWindow <= 0 {
		opts.DuplicateWindow = time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		store:      store,
		msgs:       msgs,
		limiter:    ratelimit.NewSubmitLimiter(opts.SubmitRate, opts.SubmitBurst),
		duplicates: ratelimit.NewDuplicateWindow(opts.DuplicateWindow),
		dispatcher: opts.Dispatcher,
		metrics:    opts.Metrics,
		verifier:   opts.Verifier,
		dupWindow:  opts.DuplicateWindow,
		now:        opts.Now,
		mux:        http.NewServeMux(),
	}
	s.routes()
	s.handler = requestID(logging(cors(opts.CORSOrigins, auth(s.verifier, s.mux))))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/forms/{id}", s.handleGetForm)
	s.mux.HandleFunc("GET /api/v1/forms/{id}/ui", s.handleGetFormUI)
	s.mux.HandleFunc("POST /api/v1/forms/{id}/starts", s.handleStart)
	s.mux.HandleFunc("POST /api/v1/forms/{id}/password", s.handleVerifyPassword)
	s.mux.HandleFunc("POST /api/v1/forms/{id}/submissions", s.handleSubmit)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
