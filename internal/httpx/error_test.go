package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/practice", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	WriteError(rec, req, NewError("no_cards", "no cards\nmatch", http.StatusNotFound).
		WithRequestID("req-1").
		WithDetails(map[string]any{"deck": "ds"}))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "no_cards", body["error"])
	require.Equal(t, "no cards match", body["message"])
	require.Equal(t, "req-1", body["request_id"])
	require.Equal(t, "ds", body["deck"])
	require.EqualValues(t, http.StatusNotFound, body["status"])
}

func TestWriteErrorHTML(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := httptest.NewRecorder()

	WriteError(rec, req, NewError("bad_request", "<b>broken</b>", http.StatusBadRequest))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	require.Equal(t, "Bad Request", doc.Find("h1").Text())
	require.Equal(t, "<b>broken</b>", doc.Find("main p").First().Text())
	require.Equal(t, 0, doc.Find("main b").Length())
}

func TestNewErrorDefaultsStatus(t *testing.T) {
	require.Equal(t, http.StatusInternalServerError, NewError("x", "y", 0).Status)
	require.False(t, WantsJSON(nil))
}
