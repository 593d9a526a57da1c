package server

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

func newTransport(timeout time.Duration) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return transport
}

// newReverseProxy forwards to target with method, headers, query and body as
// received. Only the scheme, host and Host header change.
func newReverseProxy(target *url.URL, transport http.RoundTripper) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			// Host is the platform host; Rewrite already cleared inbound X-Forwarded-*.
			r.Out.Host = target.Host
		},
		Transport:    transport,
		ErrorHandler: proxyErrorHandler,
	}
}

func proxyErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().
		Err(err).
		Str("request_id", RequestID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("Platform request failed")
	http.Error(w, "502 - Bad Gateway", http.StatusBadGateway)
}

// proxyHandler forwards one named route.
func (s *Server) proxyHandler(route Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug().
			Str("request_id", RequestID(r.Context())).
			Str("route", route.Name).
			Str("path", r.URL.RequestURI()).
			Msg("Redirecting to RDP")
		s.proxy.ServeHTTP(w, r)
	}
}
