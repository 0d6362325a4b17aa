// Package middleware holds the browser-facing HTTP middlewares: the session
// cookie, CSRF protection and cached static assets.
package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"finitefield.org/flashcards/internal/session"
)

// SessionCookieName names the cookie holding the signed session id.
const SessionCookieName = "flashcards_session"

// Session is the request-scoped view of a visitor's session.
type Session struct {
	ID   string
	Data *session.Data

	dirty   bool
	fresh   bool
	dropped string
}

func newSession(id string) *Session {
	return &Session{ID: id, Data: session.NewData()}
}

// MarkDirty flags the session to be persisted before the response is sent.
func (s *Session) MarkDirty() { s.dirty = true }

// Reset discards every stored value and rotates the id.
func (s *Session) Reset() {
	if s.dropped == "" && !s.fresh {
		s.dropped = s.ID
	}
	s.ID = session.NewID()
	s.Data = session.NewData()
	s.fresh = true
	s.dirty = true
}

// SessionOptions configures SessionManager.
type SessionOptions struct {
	// SigningKey authenticates the cookie. When empty an ephemeral key is
	// generated and sessions do not survive a restart.
	SigningKey string
	Secure     bool
	TTL        time.Duration
	Logger     *zap.Logger
}

// SessionManager loads the session named by the cookie, exposes it through
// the request context and persists it when handlers change it.
type SessionManager struct {
	store  session.Store
	key    []byte
	secure bool
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionManager constructs a manager backed by store.
func NewSessionManager(store session.Store, opts SessionOptions) *SessionManager {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	key := []byte(opts.SigningKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			logger.Error("session: failed to generate signing key", zap.Error(err))
			key = []byte("insecure-dev-key-please-set-FLASHCARDS_SESSION_SIGNING_KEY")
		}
		logger.Warn("session: using ephemeral signing key; set FLASHCARDS_SESSION_SIGNING_KEY to keep sessions across restarts")
	}
	return &SessionManager{store: store, key: key, secure: opts.Secure, ttl: ttl, logger: logger}
}

// Middleware attaches the session to the request.
func (m *SessionManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.load(r)
		rw := NewResponseRecorder(w)
		rw.SetBeforeWrite(func(w http.ResponseWriter) {
			m.persist(w, r, s)
		})
		next.ServeHTTP(rw, r.WithContext(withSession(r.Context(), s)))
		if !rw.Written() {
			m.persist(w, r, s)
		}
	})
}

func (m *SessionManager) load(r *http.Request) *Session {
	id, ok := m.readCookie(r)
	if !ok {
		s := newSession(session.NewID())
		s.fresh = true
		return s
	}
	data, err := m.store.Load(r.Context(), id)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			m.logger.Warn("session: load failed", zap.String("session_id", id), zap.Error(err))
		}
		s := newSession(session.NewID())
		s.fresh = true
		return s
	}
	return &Session{ID: id, Data: data}
}

// persist runs at most once per request, just before the response starts.
func (m *SessionManager) persist(w http.ResponseWriter, r *http.Request, s *Session) {
	ctx := r.Context()
	if s.dropped != "" {
		if err := m.store.Delete(ctx, s.dropped); err != nil {
			m.logger.Warn("session: delete failed", zap.String("session_id", s.dropped), zap.Error(err))
		}
		s.dropped = ""
	}
	if !s.dirty {
		return
	}
	if err := m.store.Save(ctx, s.ID, s.Data, m.ttl); err != nil {
		m.logger.Error("session: save failed", zap.String("session_id", s.ID), zap.Error(err))
		return
	}
	s.dirty = false
	if s.fresh {
		m.writeCookie(w, s.ID)
		s.fresh = false
	}
}

func (m *SessionManager) sign(id string) string {
	mac := hmac.New(sha256.New, m.key)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *SessionManager) readCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, sig, ok := strings.Cut(c.Value, ".")
	if !ok || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(m.sign(id))) {
		return "", false
	}
	return id, true
}

func (m *SessionManager) writeCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id + "." + m.sign(id),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl / time.Second),
	})
}
