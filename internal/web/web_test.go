package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexServesLandingPage(t *testing.T) {
	rr := httptest.NewRecorder()
	Index(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rr.Body.String(), "Exercise tracker")
}

func TestStaticServesStylesheet(t *testing.T) {
	rr := httptest.NewRecorder()
	Static("/public").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/public/style.css", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), ".container")
}

func TestFallbackServesPublicFilesFromRoot(t *testing.T) {
	handler := Fallback()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/style.css", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), ".container")

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/style.css", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing.js", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
