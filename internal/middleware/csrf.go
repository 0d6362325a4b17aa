package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"finitefield.org/flashcards/internal/httpx"
)

const (
	// CSRFFormField is the hidden form input carrying the token.
	CSRFFormField = "csrf_token"
	// CSRFHeader is accepted from scripted clients instead of the form field.
	CSRFHeader = "X-CSRF-Token"
)

// CSRF ties a token to the session and rejects unsafe requests that do not
// echo it. It must run after SessionManager.Middleware.
func CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := GetSession(r)
		token := s.Data.CSRFToken
		if token == "" {
			token = newCSRFToken()
			s.Data.CSRFToken = token
			s.MarkDirty()
		}

		if !isSafeMethod(r.Method) {
			got := r.Header.Get(CSRFHeader)
			if got == "" {
				got = r.PostFormValue(CSRFFormField)
			}
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				httpx.WriteError(w, r, httpx.NewError("invalid_csrf_token", "Your form has expired. Please reload the page and try again.", http.StatusForbidden))
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// CSRFToken returns the token to embed in forms rendered for r.
func CSRFToken(r *http.Request) string {
	return GetSession(r).Data.CSRFToken
}

func newCSRFToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
