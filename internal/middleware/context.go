package middleware

import (
	"context"
	"net/http"
)

// context keys are unexported to avoid collisions
type ctxKey string

const ctxKeySession ctxKey = "session"

func withSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, s)
}

// GetSession returns the session attached by SessionManager. Outside the
// middleware it returns a detached session whose changes are discarded.
func GetSession(r *http.Request) *Session {
	if s, ok := r.Context().Value(ctxKeySession).(*Session); ok && s != nil {
		return s
	}
	return newSession("")
}
