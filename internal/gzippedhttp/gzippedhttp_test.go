package gzippedhttp

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipString(t *testing.T, input string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	_, err := gzipWriter.Write([]byte(input))
	require.NoError(t, err)
	require.NoError(t, gzipWriter.Close())

	return buf.Bytes()
}

func TestGzipResponse(t *testing.T) {
	page := GzipResponse(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<h1>Hello!</h1>"))
	}))
	redirect := GzipResponse(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/urls", http.StatusFound)
	}))

	t.Run("html is compressed when accepted", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()
		page.ServeHTTP(w, request)

		assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
		zr, err := gzip.NewReader(w.Body)
		require.NoError(t, err)
		body, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, "<h1>Hello!</h1>", string(body))
	})

	t.Run("plain when not accepted", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		page.ServeHTTP(w, request)

		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, "<h1>Hello!</h1>", w.Body.String())
	})

	t.Run("redirects pass through", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/login", nil)
		request.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()
		redirect.ServeHTTP(w, request)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/urls", w.Header().Get("Location"))
		assert.Empty(t, w.Header().Get("Content-Encoding"))
	})
}

func TestUngzipRequest(t *testing.T) {
	var got url.Values
	handler := UngzipRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r.PostForm
	}))

	body := gzipString(t, "longURL=http%3A%2F%2Fe.com")
	request := httptest.NewRequest(http.MethodPost, "/urls", bytes.NewReader(body))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Content-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, request)

	assert.Equal(t, "http://e.com", got.Get("longURL"))

	broken := httptest.NewRequest(http.MethodPost, "/urls", strings.NewReader("not gzip"))
	broken.Header.Set("Content-Encoding", "gzip")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, broken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
