// Package api exposes namecheck.NameMatcher over HTTP and WebSocket,
// the way the teacher exposes its game engine over net/http and
// gorilla/websocket.
package api

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/peko-thunder/japanese-name-validator/audit"
	"github.com/peko-thunder/japanese-name-validator/namecheck"
	"github.com/peko-thunder/japanese-name-validator/ratelimit"
)

// Server holds shared state for the HTTP/WebSocket validation API.
type Server struct {
	Matcher *namecheck.NameMatcher
	Audit   *audit.Logger
	DB      *sql.DB
	// Limiters tracks one ClientLimiter per remote address across the
	// separate HTTP requests POST /v1/validate sees from it. A
	// WebSocket connection holds its own ClientLimiter directly since
	// the connection itself is already the long-lived object.
	Limiters *ratelimit.Registry
}

// New creates a Server backed by matcher, with audit entries written to
// the SQLite database at auditDBPath. auditDBPath may be empty, in
// which case audit writes are silently dropped.
func New(matcher *namecheck.NameMatcher, auditDBPath string) (*Server, error) {
	srv := &Server{Matcher: matcher, Limiters: ratelimit.NewRegistry()}
	if auditDBPath == "" {
		srv.Audit = audit.NewLogger(nil)
		return srv, nil
	}
	db, err := audit.Open(auditDBPath)
	if err != nil {
		return nil, err
	}
	srv.DB = db
	srv.Audit = audit.NewLogger(db)
	return srv, nil
}

// validateRequest is the wire shape of POST /v1/validate.
type validateRequest struct {
	KanjiSei  string `json:"kanji_sei"`
	KanjiMei  string `json:"kanji_mei"`
	RomajiSei string `json:"romaji_sei"`
	RomajiMei string `json:"romaji_mei"`
}

func (r validateRequest) validate() error {
	switch {
	case r.KanjiSei == "":
		return errMissingField("kanji_sei")
	case r.KanjiMei == "":
		return errMissingField("kanji_mei")
	case r.RomajiSei == "":
		return errMissingField("romaji_sei")
	case r.RomajiMei == "":
		return errMissingField("romaji_mei")
	}
	return nil
}

type fieldError string

func errMissingField(field string) fieldError {
	return fieldError(field + " is required")
}

func (e fieldError) Error() string { return string(e) }

// clientKey returns the part of r.RemoteAddr that identifies the
// caller across separate connections: the host, with the ephemeral
// source port stripped. Without this, a client that reconnects for
// every request (no keep-alive) would get a fresh, unthrottled
// ClientLimiter each time.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// HandleValidate serves POST /v1/validate.
func (s *Server) HandleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limiter := s.Limiters.Get(clientKey(r))
	if allowed, _ := limiter.Allow(ratelimit.KindValidate); !allowed {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.Matcher.Validate(req.KanjiSei, req.KanjiMei, req.RomajiSei, req.RomajiMei)
	if err != nil {
		slog.Error("validate", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.Audit.Record(req.KanjiSei, req.KanjiMei, req.RomajiSei, req.RomajiMei, r.RemoteAddr, result)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// HandleHealthz serves GET /v1/healthz.
func (s *Server) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	shardCount := s.Matcher.DictionaryStore().ShardCount()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"shard_count": shardCount,
	})
}

// handler builds the route mux. Split out from Serve so tests can
// mount it on an httptest.Server without starting the cleanup
// goroutine or listening on a real port.
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/validate", s.HandleValidate)
	mux.HandleFunc("GET /v1/healthz", s.HandleHealthz)
	mux.HandleFunc("GET /v1/validate/stream", s.HandleValidateStream)
	return mux
}

// Serve starts the HTTP server with the configured routes.
func (s *Server) Serve(addr string) error {
	s.Limiters.StartCleanup()
	slog.Info("starting server", "addr", addr)
	return http.ListenAndServe(addr, s.handler())
}
