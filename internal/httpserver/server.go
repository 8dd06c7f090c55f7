// internal/httpserver/server.go
//
// HTTP server wiring for the NeuroTerm backend.
// Responsibilities:
//   - Router + middleware (request IDs, real IP, panic recovery, timeouts,
//     zerolog access log, JSON + CORS on the API).
//   - Public endpoints: "/" (terminal page), "/health".
//   - Terminal endpoints: GET /api/terminal, POST /api/terminal/submit.
//   - History endpoint: GET /api/history.
//   - Session cookie: an HS256 JWT whose subject is the terminal ID.
//
// Notes:
//   - A missing, forged, expired or unknown session cookie silently gets a
//     fresh terminal, the same way a browser reload gets a fresh page.
//   - Submissions to a busy terminal (riddle request in flight) answer 409.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/neuroterm/assets"
	"github.com/robalobadob/neuroterm/internal/history"
	"github.com/robalobadob/neuroterm/internal/session"
	"github.com/robalobadob/neuroterm/internal/store"
)

const (
	sessionCookieName = "neuroterm_session"
	sessionTTL        = 24 * time.Hour
)

// Config carries the knobs the server reads from the environment.
type Config struct {
	SessionSecret string
	ClientOrigin  string
	SecureCookies bool
	// NewTerminal builds a terminal for a new session.
	NewTerminal func(id string) *session.Terminal
}

// Server bundles router, terminal registry and game history.
type Server struct {
	r       *chi.Mux
	store   store.Store
	history *history.Store
	cfg     Config
}

// New constructs a Server, installs middleware, and registers routes.
// hist may be nil, in which case /api/history reports an empty history.
func New(st store.Store, hist *history.Store, cfg Config) *Server {
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "dev_secret_change_me"
	}
	if cfg.ClientOrigin == "" {
		cfg.ClientOrigin = "http://localhost:5173"
	}
	if cfg.NewTerminal == nil {
		cfg.NewTerminal = func(id string) *session.Terminal { return session.New(id, session.Options{}) }
	}
	s := &Server{r: chi.NewRouter(), store: st, history: hist, cfg: cfg}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))     // request-scoped logger
	s.r.Use(hlog.AccessHandler(accessLog))   // one line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time

	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(assets.IndexHTML)
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Route("/api", func(r chi.Router) {
		r.Use(jsonContentType)
		r.Use(s.cors)
		r.Get("/terminal", s.handleSnapshot)
		r.Post("/terminal/submit", s.handleSubmit)
		r.Get("/history", s.handleHistory)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests and custom listeners).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

func accessLog(r *http.Request, status, size int, d time.Duration) {
	lvl := zerolog.DebugLevel
	if status >= http.StatusInternalServerError {
		lvl = zerolog.WarnLevel
	}
	hlog.FromRequest(r).WithLevel(lvl).
		Str("reqId", chimw.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.ClientOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ----------------------------- terminal ------------------------------------

// handleSnapshot returns the caller's terminal, booting one on first visit.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	t := s.terminalFor(w, r)
	_ = json.NewEncoder(w).Encode(t.Snapshot())
}

type submitReq struct {
	Line string `json:"line"`
}

// handleSubmit feeds one line to the caller's terminal and returns the new view.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	t := s.terminalFor(w, r)
	if err := t.Submit(r.Context(), req.Line); err != nil {
		if errors.Is(err, session.ErrBusy) {
			writeError(w, http.StatusConflict, "busy")
			return
		}
		hlog.FromRequest(r).Error().Err(err).Str("sessionId", t.ID()).Msg("submit")
		writeError(w, http.StatusInternalServerError, "submit_failed")
		return
	}
	_ = json.NewEncoder(w).Encode(t.Snapshot())
}

type historyRes struct {
	Recent  []history.Record      `json:"recent"`
	Summary []history.ModeSummary `json:"summary"`
}

// handleHistory lists recently finished games (?limit=N, default 20) and per-mode totals.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	res := historyRes{Recent: []history.Record{}, Summary: []history.ModeSummary{}}
	if s.history == nil {
		_ = json.NewEncoder(w).Encode(res)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recent, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("history recent")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	sum, err := s.history.Summary(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("history summary")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	res.Recent = append(res.Recent, recent...)
	res.Summary = append(res.Summary, sum...)
	_ = json.NewEncoder(w).Encode(res)
}

// ------------------------------ sessions -----------------------------------

// terminalFor resolves the session cookie to a live terminal or boots a new one.
func (s *Server) terminalFor(w http.ResponseWriter, r *http.Request) *session.Terminal {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		if id, err := s.parseSessionToken(c.Value); err == nil {
			if t, err := s.store.Get(r.Context(), id); err == nil {
				return t
			}
		}
	}

	id := uuid.NewString()
	t := s.cfg.NewTerminal(id)
	if err := s.store.Save(r.Context(), t); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("sessionId", id).Msg("save terminal")
	}
	tok, exp, err := s.signSessionToken(id)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("sign session token")
		return t
	}
	s.setSessionCookie(w, tok, exp)
	hlog.FromRequest(r).Info().Str("sessionId", id).Msg("terminal booted")
	return t
}

// signSessionToken creates an HS256 JWT whose subject is the terminal ID.
func (s *Server) signSessionToken(id string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(sessionTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString([]byte(s.cfg.SessionSecret))
	return ss, exp, err
}

// parseSessionToken validates tok and returns the terminal ID it names.
func (s *Server) parseSessionToken(tok string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SessionSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !t.Valid || claims.Subject == "" {
		return "", errors.New("invalid session token")
	}
	return claims.Subject, nil
}

// setSessionCookie writes the session cookie with appropriate security attributes.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.SecureCookies {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: sameSite,
		Expires:  exp,
	})
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
