package remote

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semld/errors"
)

func TestHTTPLoader_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "application/ld+json")
		w.Header().Set("Content-Type", "application/ld+json")
		w.Header().Set("ETag", `"v123"`)
		_, _ = w.Write([]byte(`{"@context": {"name": "http://schema.org/name"}}`))
	}))
	defer srv.Close()

	loader := NewHTTPLoader(DefaultHTTPLoaderConfig())
	doc, err := loader.Load(srv.URL + "/ctx")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/ctx", doc.URL)
	assert.Equal(t, "v123", doc.Tag)
	assert.Empty(t, doc.ContextURL)
	assert.False(t, doc.FetchedAt.IsZero())

	content, ok := doc.Content.(map[string]any)
	require.True(t, ok)
	_, ok = content["@context"]
	assert.True(t, ok)
}

func TestHTTPLoader_LinkHeaderOnPlainJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Add("Link", `<https://example.org/real-context>; rel="http://www.w3.org/ns/json-ld#context"; type="application/ld+json"`)
		_, _ = w.Write([]byte(`{"name": "no context here"}`))
	}))
	defer srv.Close()

	loader := NewHTTPLoader(DefaultHTTPLoaderConfig())
	doc, err := loader.Load(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/real-context", doc.ContextURL)
}

func TestHTTPLoader_LinkHeaderIgnoredOnJSONLD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/ld+json")
		w.Header().Add("Link", `<https://example.org/other>; rel="http://www.w3.org/ns/json-ld#context"`)
		_, _ = w.Write([]byte(`{"@context": {}}`))
	}))
	defer srv.Close()

	loader := NewHTTPLoader(DefaultHTTPLoaderConfig())
	doc, err := loader.Load(srv.URL)
	require.NoError(t, err)
	assert.Empty(t, doc.ContextURL)
}

func TestHTTPLoader_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/garbage":
			w.Header().Set("Content-Type", "application/ld+json")
			_, _ = w.Write([]byte(`{not json`))
		}
	}))
	defer srv.Close()

	loader := NewHTTPLoader(DefaultHTTPLoaderConfig())

	_, err := loader.Load(srv.URL + "/missing")
	assert.True(t, errors.IsCode(err, errors.LoadingRemoteContextFailed))
	assert.True(t, errors.IsTransient(err))

	_, err = loader.Load(srv.URL + "/garbage")
	assert.True(t, errors.IsCode(err, errors.LoadingRemoteContextFailed))

	_, err = loader.Load("http://\x00invalid")
	assert.True(t, errors.IsCode(err, errors.LoadingRemoteContextFailed))
}

func TestHTTPLoader_FollowsRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, srv.URL+"/new", http.StatusMovedPermanently)
			return
		}
		w.Header().Set("Content-Type", "application/ld+json")
		_, _ = w.Write([]byte(`{"@context": {}}`))
	}))
	defer srv.Close()

	loader := NewHTTPLoader(DefaultHTTPLoaderConfig())
	doc, err := loader.Load(srv.URL + "/old")
	require.NoError(t, err)
	// The document URL reflects the redirect target so relative references
	// resolve against the right base.
	assert.Equal(t, srv.URL+"/new", doc.URL)
}

func TestStaticLoader(t *testing.T) {
	loader := NewStaticLoader(map[string]*Document{
		"http://example.org/ctx": testDoc("http://example.org/ctx"),
	})

	doc, err := loader.Load("http://example.org/ctx")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/ctx", doc.URL)

	_, err = loader.Load("http://example.org/absent")
	assert.True(t, errors.IsCode(err, errors.LoadingRemoteContextFailed))
}

func TestContextLink(t *testing.T) {
	tests := []struct {
		name     string
		links    []string
		expected string
	}{
		{
			name:     "single match",
			links:    []string{`<http://example.org/c>; rel="http://www.w3.org/ns/json-ld#context"`},
			expected: "http://example.org/c",
		},
		{
			name:     "other relation ignored",
			links:    []string{`<http://example.org/c>; rel="alternate"`},
			expected: "",
		},
		{
			name: "comma separated list",
			links: []string{
				`<http://example.org/a>; rel="alternate", <http://example.org/b>; rel="http://www.w3.org/ns/json-ld#context"`,
			},
			expected: "http://example.org/b",
		},
		{
			name:     "malformed target skipped",
			links:    []string{`http://no-brackets; rel="http://www.w3.org/ns/json-ld#context"`},
			expected: "",
		},
		{name: "empty", links: nil, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, contextLink(tt.links))
		})
	}
}

func TestIsJSONLDContentType(t *testing.T) {
	assert.True(t, isJSONLDContentType("application/ld+json"))
	assert.True(t, isJSONLDContentType("application/ld+json; charset=utf-8"))
	assert.False(t, isJSONLDContentType("application/json"))
	assert.False(t, isJSONLDContentType(""))
}
