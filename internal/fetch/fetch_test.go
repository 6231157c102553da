package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(".a{color:red}"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Equal(t, ".a{color:red}", string(result.Body))
	assert.Equal(t, "text/css", result.ContentType)
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "HTTP status 404")
}

func TestClient_FetchSendsHeadersAndCookies(t *testing.T) {
	var gotUA, gotCookie, gotExtra string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			_, _ = w.Write([]byte("<html></html>"))
		case "/site.css":
			gotUA = r.Header.Get("User-Agent")
			gotExtra = r.Header.Get("X-Test")
			if c, err := r.Cookie("session"); err == nil {
				gotCookie = c.Value
			}
			_, _ = w.Write([]byte("body{}"))
		}
	}))
	defer server.Close()

	client := NewClient(&Options{UserAgent: "cloner-test", Headers: map[string]string{"X-Test": "1"}})

	_, err := client.Fetch(context.Background(), server.URL+"/")
	require.NoError(t, err)
	body, err := client.Fetch(context.Background(), server.URL+"/site.css")
	require.NoError(t, err)

	assert.Equal(t, "body{}", string(body))
	assert.Equal(t, "cloner-test", gotUA)
	assert.Equal(t, "1", gotExtra)
	assert.Equal(t, "abc", gotCookie)
}

func TestClient_FetchNonOKIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("oops"))
	}))
	defer server.Close()

	body, err := NewClient(nil).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Nil(t, body)
	assert.Contains(t, err.Error(), "HTTP status 500")
}

func TestClient_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(nil).Fetch(ctx, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBlockPatterns(t *testing.T) {
	assert.Equal(t, []string{"*hotjar.com*", "*cdn.vector.co*"}, BlockPatterns([]string{"hotjar.com", "", "cdn.vector.co"}))
	assert.Empty(t, BlockPatterns(nil))
}

func TestDefaultBrowserOptions(t *testing.T) {
	opts := DefaultBrowserOptions()
	assert.Equal(t, int64(1920), opts.ViewportWidth)
	assert.Equal(t, int64(1080), opts.ViewportHeight)
	assert.Equal(t, 2.0, opts.DeviceScale)
	assert.True(t, opts.Headless)
	assert.Contains(t, DefaultBlockedDomains, "googletagmanager.com")
}
