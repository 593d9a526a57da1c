package server

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/jrsteele09/rdp-proxy/internal/config"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	fileServer http.Handler
	config     config.Config
	upstream   *url.URL
	proxy      *httputil.ReverseProxy
}

type Option func(*Server)

// WithTransport replaces the transport used to reach the platform.
func WithTransport(transport http.RoundTripper) Option {
	return func(s *Server) {
		s.proxy.Transport = transport
	}
}

func New(config config.Config, opts ...Option) (*Server, error) {
	upstream, err := url.Parse(config.GetBaseURL())
	if err != nil {
		return nil, fmt.Errorf("[Server New] invalid platform base url: %w", err)
	}
	if upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("[Server New] platform base url %q must be absolute", config.GetBaseURL())
	}

	s := &Server{
		env:        config.GetEnv(),
		mux:        http.NewServeMux(),
		config:     config,
		upstream:   upstream,
		fileServer: FileServerHandler(),
	}
	s.proxy = newReverseProxy(upstream, newTransport(config.GetRequestTimeout()))
	for _, opt := range opts {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered ServeMux patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	log.Info().Str("upstream", s.upstream.String()).Msg("Forwarding platform routes")
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%s] %s", colouredMethod(method), path)
}
