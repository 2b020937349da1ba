package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/erazemk/materiais/internal/guard"
	"github.com/erazemk/materiais/internal/session"
)

const (
	cookieName   = "materiais"
	sessionIDKey = "sid"
)

// newCookieStore returns the signed and encrypted cookie store that carries
// the session id and flash notices.
func newCookieStore(hashKey, blockKey []byte, secure bool, maxAge time.Duration) *sessions.CookieStore {
	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(int(maxAge.Seconds()))
	return store
}

// cookie returns the request's cookie session. A cookie that fails to decode
// (rotated keys, tampering) yields a fresh session.
func (s *Server) cookie(r *http.Request) *sessions.Session {
	c, err := s.Cookies.Get(r, cookieName)
	if err != nil {
		slog.Warn("discarding unreadable cookie", "error", err)
	}
	return c
}

// resolveSession restores the session named by the request's cookie.
func (s *Server) resolveSession(r *http.Request) *session.Session {
	sid, _ := s.cookie(r).Values[sessionIDKey].(string)
	if sid == "" {
		return nil
	}
	sess, err := s.Sessions.Restore(r.Context(), sid)
	if err != nil {
		slog.Error("failed to restore session", "error", err)
		return nil
	}
	return sess
}

// setSessionID stores sid in the cookie; an empty sid removes it.
func (s *Server) setSessionID(w http.ResponseWriter, r *http.Request, sid string) {
	c := s.cookie(r)
	if sid == "" {
		delete(c.Values, sessionIDKey)
	} else {
		c.Values[sessionIDKey] = sid
	}
	if err := c.Save(r, w); err != nil {
		slog.Error("failed to save cookie", "error", err)
	}
}

// flash queues a one-shot notice shown on the next rendered page.
func (s *Server) flash(w http.ResponseWriter, r *http.Request, kind, msg string) {
	c := s.cookie(r)
	c.AddFlash(msg, kind)
	if err := c.Save(r, w); err != nil {
		slog.Error("failed to save flash", "error", err)
	}
}

// takeFlashes returns and clears the pending notices.
func (s *Server) takeFlashes(w http.ResponseWriter, r *http.Request) (success, failure string) {
	c := s.cookie(r)
	ok := c.Flashes(flashSuccess)
	bad := c.Flashes(flashError)
	if len(ok) == 0 && len(bad) == 0 {
		return "", ""
	}
	if err := c.Save(r, w); err != nil {
		slog.Error("failed to save cookie", "error", err)
	}
	return lastString(ok), lastString(bad)
}

const (
	flashSuccess = "success"
	flashError   = "error"
)

func lastString(values []any) string {
	for i := len(values) - 1; i >= 0; i-- {
		if s, ok := values[i].(string); ok {
			return s
		}
	}
	return ""
}

// currentSession returns the session stored by the guard middleware.
func currentSession(r *http.Request) *session.Session {
	return guard.FromContext(r.Context())
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
