package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	"finitefield.org/flashcards/internal/session"
)

func newManager(store session.Store) *SessionManager {
	return NewSessionManager(store, SessionOptions{SigningKey: "test-key", TTL: time.Hour})
}

func sessionCookie(t *testing.T, res *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range res.Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func TestSessionNotPersistedUntilDirty(t *testing.T) {
	store := session.NewMemoryStore()
	h := newManager(store).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Nil(t, sessionCookie(t, rec.Result()))
	require.Zero(t, store.Len())
}

func TestSessionRoundTrip(t *testing.T) {
	store := session.NewMemoryStore()
	m := newManager(store)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := GetSession(r)
		s.Data.MarkSeen(int64(len(s.Data.SeenIDs) + 1))
		s.MarkDirty()
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := sessionCookie(t, rec.Result())
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Nil(t, sessionCookie(t, rec.Result()), "existing sessions keep their cookie")

	id, _, _ := strings.Cut(cookie.Value, ".")
	data, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, data.SeenIDs)
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), "victim", session.NewData(), time.Hour))

	var seen string
	h := newManager(store).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSession(r).ID
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "victim.forged"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NotEqual(t, "victim", seen)
}

func TestSessionResetDeletesOldRecord(t *testing.T) {
	store := session.NewMemoryStore()
	m := newManager(store)
	set := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := GetSession(r)
		s.Data.Flash = "kept"
		s.MarkDirty()
	}))
	reset := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		GetSession(r).Reset()
		_, _ = w.Write([]byte("reset"))
	}))

	rec := httptest.NewRecorder()
	set.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	first := sessionCookie(t, rec.Result())
	require.NotNil(t, first)

	req := httptest.NewRequest(http.MethodGet, "/reset", nil)
	req.AddCookie(first)
	rec = httptest.NewRecorder()
	reset.ServeHTTP(rec, req)
	second := sessionCookie(t, rec.Result())
	require.NotNil(t, second)
	require.NotEqual(t, first.Value, second.Value)

	oldID, _, _ := strings.Cut(first.Value, ".")
	_, err := store.Load(context.Background(), oldID)
	require.ErrorIs(t, err, session.ErrNotFound)
	require.Equal(t, 1, store.Len())
}

func TestCSRF(t *testing.T) {
	store := session.NewMemoryStore()
	m := newManager(store)
	var token string
	h := m.Middleware(CSRF(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = CSRFToken(r)
		w.WriteHeader(http.StatusOK)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, token, 32)
	cookie := sessionCookie(t, rec.Result())
	require.NotNil(t, cookie)

	post := func(body url.Values, header string) int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if header != "" {
			req.Header.Set(CSRFHeader, header)
		}
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusForbidden, post(url.Values{}, ""))
	require.Equal(t, http.StatusForbidden, post(url.Values{CSRFFormField: {"wrong"}}, ""))
	require.Equal(t, http.StatusOK, post(url.Values{CSRFFormField: {token}}, ""))
	require.Equal(t, http.StatusOK, post(url.Values{}, token))
}

func TestAssetsWithCache(t *testing.T) {
	fsys := fstest.MapFS{
		"css/app.css": {Data: []byte("body{}")},
	}
	h := AssetsWithCache(fsys, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/css/app.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())
	etag := rec.Header().Get("ETag")
	require.True(t, strings.HasPrefix(etag, `W/"`))
	require.Contains(t, rec.Header().Get("Cache-Control"), "max-age=604800")

	req := httptest.NewRequest(http.MethodGet, "/css/app.css", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)
}

func TestResponseRecorderRunsHookOnce(t *testing.T) {
	calls := 0
	rw := NewResponseRecorder(httptest.NewRecorder())
	rw.SetBeforeWrite(func(http.ResponseWriter) { calls++ })
	rw.WriteHeader(http.StatusTeapot)
	_, _ = rw.Write([]byte("x"))
	require.Equal(t, 1, calls)
	require.Equal(t, http.StatusTeapot, rw.Status())
	require.True(t, rw.Written())
}
