// Package httpx renders error responses for browsers and API clients.
package httpx

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Error represents the canonical error envelope.
type Error struct {
	Code      string
	Message   string
	Status    int
	RequestID string
	Details   map[string]any
}

// NewError constructs a new Error with the provided parameters.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    sanitize(code, 80),
		Message: sanitize(message, 512),
		Status:  status,
	}
}

// WithRequestID sets the request identifier on the error payload.
func (e Error) WithRequestID(id string) Error {
	e.RequestID = sanitize(id, 80)
	return e
}

// WithDetails attaches additional JSON-serialisable metadata.
func (e Error) WithDetails(details map[string]any) Error {
	if len(details) == 0 {
		return e
	}
	copyDetails := make(map[string]any, len(details))
	for k, v := range details {
		copyDetails[k] = v
	}
	e.Details = copyDetails
	return e
}

// Error implements the error interface.
func (e Error) Error() string {
	return e.Code + ": " + e.Message
}

var errorPage = template.Must(template.New("error").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Status}} {{.Title}}</title></head>
<body>
<main class="error">
  <h1>{{.Title}}</h1>
  <p>{{.Message}}</p>
  {{if .RequestID}}<p class="request-id">Request ID: {{.RequestID}}</p>{{end}}
  <p><a href="/">Back to start</a></p>
</main>
</body>
</html>
`))

// WriteError writes the error as JSON when the client asks for it and as a
// small HTML page otherwise.
func WriteError(w http.ResponseWriter, r *http.Request, err Error) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	requestID := err.RequestID
	if requestID == "" && r != nil {
		requestID = sanitize(middleware.GetReqID(r.Context()), 80)
	}

	if WantsJSON(r) {
		payload := map[string]any{
			"error":   err.Code,
			"message": err.Message,
			"status":  status,
		}
		if requestID != "" {
			payload["request_id"] = requestID
		}
		for k, v := range err.Details {
			payload[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = errorPage.Execute(w, map[string]any{
		"Status":    status,
		"Title":     http.StatusText(status),
		"Message":   err.Message,
		"RequestID": requestID,
	})
}

// WantsJSON reports whether the request prefers a JSON response.
func WantsJSON(r *http.Request) bool {
	if r == nil {
		return false
	}
	accept := strings.ToLower(r.Header.Get("Accept"))
	if accept == "" {
		return false
	}
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func sanitize(value string, limit int) string {
	if limit <= 0 {
		limit = 256
	}
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
