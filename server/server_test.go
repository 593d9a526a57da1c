package server_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/rdp-proxy/internal/config"
	"github.com/jrsteele09/rdp-proxy/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type forwarded struct {
	Method        string
	Path          string
	RawQuery      string
	Host          string
	Authorization string
	ContentType   string
	Custom        string
	Body          string
}

type platform struct {
	*httptest.Server
	mu   sync.Mutex
	seen []forwarded

	status int
	body   string
}

func (p *platform) requests() []forwarded {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]forwarded(nil), p.seen...)
}

func newPlatform(t *testing.T, status int, body string) *platform {
	t.Helper()
	p := &platform{status: status, body: body}
	p.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		p.mu.Lock()
		p.seen = append(p.seen, forwarded{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Host:          r.Host,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Custom:        r.Header.Get("X-Custom"),
			Body:          string(payload),
		})
		p.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Platform", "rdp")
		w.WriteHeader(p.status)
		_, _ = io.WriteString(w, p.body)
	}))
	t.Cleanup(p.Close)
	return p
}

func setupProxy(t *testing.T, baseURL string) *httptest.Server {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("RDP_BASE_URL", baseURL)
	s, err := server.New(config.New())
	require.NoError(t, err)
	front := httptest.NewServer(s)
	t.Cleanup(front.Close)
	return front
}

func send(t *testing.T, method, target, contentType, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestForwardsRoutesUnchanged(t *testing.T) {
	tests := []struct {
		name          string
		method        string
		path          string
		query         string
		contentType   string
		authorization string
		body          string
	}{
		{
			name:        "token",
			method:      http.MethodPost,
			path:        "/auth/oauth2/v1/token",
			contentType: "application/x-www-form-urlencoded",
			body:        "username=u&password=p&client_id=abc&grant_type=password&scope=trapi&takeExclusiveSignOnControl=true",
		},
		{
			name:          "revoke",
			method:        http.MethodPost,
			path:          "/auth/oauth2/v1/revoke",
			contentType:   "application/x-www-form-urlencoded",
			authorization: "Basic YWJjOg==",
			body:          "token=access-1",
		},
		{
			name:          "symbology",
			method:        http.MethodPost,
			path:          "/discovery/symbology/v1/lookup",
			contentType:   "application/json",
			authorization: "Bearer access-1",
			body:          `{"from":[{"identifierTypes":["RIC"],"values":["IBM.N"]}],"type":"auto"}`,
		},
		{
			name:          "esg",
			method:        http.MethodGet,
			path:          "/data/environmental-social-governance/v2/views/basic",
			query:         "universe=IBM.N",
			authorization: "Bearer access-1",
		},
		{
			name:          "news",
			method:        http.MethodGet,
			path:          "/data/news/v1/headlines",
			query:         "query=IBM.N+AND+Language%3ALEN",
			authorization: "Bearer access-1",
		},
		{
			name:          "news trailing slash",
			method:        http.MethodGet,
			path:          "/data/news/v1/headlines/",
			query:         "query=IBM.N",
			authorization: "Bearer access-1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := newPlatform(t, http.StatusOK, `{"ok":true}`)
			front := setupProxy(t, upstream.URL)

			target := front.URL + tt.path
			if tt.query != "" {
				target += "?" + tt.query
			}
			headers := map[string]string{"X-Custom": "kept"}
			if tt.authorization != "" {
				headers["Authorization"] = tt.authorization
			}
			resp := send(t, tt.method, target, tt.contentType, tt.body, headers)

			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Equal(t, `{"ok":true}`, readBody(t, resp))
			require.Equal(t, "rdp", resp.Header.Get("X-Platform"))
			require.NotEmpty(t, resp.Header.Get(server.HeaderRequestID))

			seen := upstream.requests()
			require.Len(t, seen, 1)
			got := seen[0]
			upstreamURL, err := url.Parse(upstream.URL)
			require.NoError(t, err)
			require.Equal(t, tt.method, got.Method)
			require.Equal(t, tt.path, got.Path)
			require.Equal(t, tt.query, got.RawQuery)
			require.Equal(t, upstreamURL.Host, got.Host, "Host is rewritten to the platform")
			require.Equal(t, tt.authorization, got.Authorization)
			require.Equal(t, tt.contentType, got.ContentType)
			require.Equal(t, "kept", got.Custom)
			require.Equal(t, tt.body, got.Body)
		})
	}
}

func TestPlatformErrorsPassThrough(t *testing.T) {
	upstream := newPlatform(t, http.StatusUnauthorized, `{"error":"invalid_grant"}`)
	front := setupProxy(t, upstream.URL)

	resp := send(t, http.MethodPost, front.URL+"/auth/oauth2/v1/token", "application/x-www-form-urlencoded", "grant_type=password", nil)

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, `{"error":"invalid_grant"}`, readBody(t, resp))
}

func TestUnlistedRoutesAreNotForwarded(t *testing.T) {
	upstream := newPlatform(t, http.StatusOK, `{}`)
	front := setupProxy(t, upstream.URL)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/auth/oauth2/v1/token", http.StatusNotFound},
		{http.MethodPost, "/data/news/v1/headlines", http.StatusMethodNotAllowed},
		{http.MethodGet, "/data/news/v1/headlines/extra", http.StatusNotFound},
		{http.MethodGet, "/auth/oauth2/v2/token", http.StatusNotFound},
		{http.MethodDelete, "/discovery/symbology/v1/lookup", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		resp := send(t, tt.method, front.URL+tt.path, "", "", nil)
		require.Equal(t, tt.status, resp.StatusCode, "%s %s", tt.method, tt.path)
	}
	require.Empty(t, upstream.requests())
}

func TestUnreachablePlatformIsBadGateway(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()
	front := setupProxy(t, closedURL)

	resp := send(t, http.MethodGet, front.URL+"/data/news/v1/headlines?query=IBM.N", "", "", nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestIndexAndAssets(t *testing.T) {
	upstream := newPlatform(t, http.StatusOK, `{}`)
	front := setupProxy(t, upstream.URL)

	resp := send(t, http.MethodGet, front.URL+"/", "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, readBody(t, resp), `<script src="/js/app.js">`)
	require.Equal(t, "SAMEORIGIN", resp.Header.Get("X-Frame-Options"))
	require.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	for _, asset := range []string{"/js/app.js", "/css/style.css"} {
		resp := send(t, http.MethodGet, front.URL+asset, "", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, asset)
	}
	require.Empty(t, upstream.requests())
}

func TestPingAndClientConfig(t *testing.T) {
	t.Setenv("RDP_ESG_VIEW", "scores-full")
	upstream := newPlatform(t, http.StatusOK, `{}`)
	front := setupProxy(t, upstream.URL)

	resp := send(t, http.MethodGet, front.URL+server.RoutePing, "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"message":"pong"}`, readBody(t, resp))

	resp = send(t, http.MethodGet, front.URL+server.RouteClientConfig, "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{
		"appName": "RDP Proxy",
		"authVersion": "v1",
		"esgVersion": "v2",
		"esgView": "scores-full",
		"newsVersion": "v1",
		"symbologyVersion": "v1",
		"scope": "trapi"
	}`, readBody(t, resp))
}

func TestCorsPreflight(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com")
	upstream := newPlatform(t, http.StatusOK, `{}`)
	front := setupProxy(t, upstream.URL)
	tokenPath := front.URL + "/auth/oauth2/v1/token"

	resp := send(t, http.MethodOptions, tokenPath, "", "", map[string]string{"Origin": "https://app.example.com"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "GET, POST, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))

	resp = send(t, http.MethodOptions, tokenPath, "", "", map[string]string{"Origin": "https://evil.example.com"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))

	resp = send(t, http.MethodOptions, tokenPath, "", "", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "POST, OPTIONS", resp.Header.Get("Allow"))

	require.Empty(t, upstream.requests(), "preflight is answered locally")
}

func TestRequestIDIsEchoed(t *testing.T) {
	upstream := newPlatform(t, http.StatusOK, `{}`)
	front := setupProxy(t, upstream.URL)

	resp := send(t, http.MethodGet, front.URL+server.RoutePing, "", "", map[string]string{server.HeaderRequestID: "req-42"})
	require.Equal(t, "req-42", resp.Header.Get(server.HeaderRequestID))
}

func TestProxyRoutesFollowConfiguredVersions(t *testing.T) {
	t.Setenv("RDP_AUTH_VERSION", "v2")
	t.Setenv("RDP_ESG_VERSION", "v1")

	var patterns []string
	for _, route := range server.ProxyRoutes(config.RDP{}) {
		patterns = append(patterns, route.Pattern())
	}
	require.Equal(t, []string{
		"POST /auth/oauth2/v2/token",
		"POST /auth/oauth2/v2/revoke",
		"POST /discovery/symbology/v1/lookup",
		"GET /data/environmental-social-governance/v1/views/{view}",
		"GET /data/news/v1/headlines",
		"GET /data/news/v1/headlines/{$}",
	}, patterns)
}

func TestInvalidBaseURL(t *testing.T) {
	t.Setenv("RDP_BASE_URL", "api.refinitiv.com")
	_, err := server.New(config.New())
	require.Error(t, err)
}
