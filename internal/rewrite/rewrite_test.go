package rewrite

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/api", true},
		{"/api/ping", true},
		{"/api/admin/documents/abc", true},
		{"/apix", false},
		{"/", false},
		{"/ping", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Match(tc.path, "/api"), tc.path)
	}
}

func TestTarget(t *testing.T) {
	in, err := url.Parse("/api/ping?x=1")
	require.NoError(t, err)

	out, err := Target(in, "/api", "http://backend:8000")
	require.NoError(t, err)
	assert.Equal(t, "http://backend:8000/ping?x=1", out.String())

	in, _ = url.Parse("/api/admin/documents/a%2Fb")
	out, err = Target(in, "/api", "http://backend:8000/")
	require.NoError(t, err)
	assert.Equal(t, "http://backend:8000/admin/documents/a%2Fb", out.String())
}

func TestNewValidates(t *testing.T) {
	_, err := New("api", "http://backend:8000")
	assert.Error(t, err)
	_, err = New("/api", "backend:8000")
	assert.Error(t, err)
}

func TestRewriterForwardsMethodHeadersAndBody(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "lang=en", r.URL.RawQuery)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		assert.Empty(t, r.Header.Get("X-Forwarded-For"))
		assert.Equal(t, `{"message":"hi"}`, string(body))
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"response":"hello"}`))
	}))
	defer backend.Close()

	rw, err := New("/api", backend.URL)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/chat?lang=en", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	rw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, `{"response":"hello"}`, rec.Body.String())
}

func TestRewriterIgnoresForeignPaths(t *testing.T) {
	rw, err := New("/api", "http://127.0.0.1:1")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	rw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRewriterBackendDown(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	origin := backend.URL
	backend.Close()

	rw, err := New("/api", origin)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	rw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"detail":"Failed to reach backend"}`, rec.Body.String())
}
