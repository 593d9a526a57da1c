package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RoutePing, ChainMiddleware(s.PingHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteClientConfig, ChainMiddleware(s.ClientConfigHandler(), s.APIMiddleware()...))

	allowed := map[string][]string{}
	var paths []string
	for _, route := range ProxyRoutes(s.config) {
		s.RegisterRouteHandler(route.Pattern(), ChainMiddleware(s.proxyHandler(route), s.APIMiddleware()...))
		if _, ok := allowed[route.Path]; !ok {
			paths = append(paths, route.Path)
		}
		allowed[route.Path] = append(allowed[route.Path], route.Method)
	}
	for _, path := range paths {
		methods := append(allowed[path], http.MethodOptions)
		s.RegisterRouteHandler(http.MethodOptions+" "+path, ChainMiddleware(s.optionsHandler(methods), s.APIMiddleware()...))
	}

	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(s.fileServer.ServeHTTP, s.HTMLMiddleWare(s.CacheMiddleware)...))
}

func (s *Server) PingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"message": "pong"}); err != nil {
			log.Error().Err(err).Msg("Failed to write ping response")
		}
	}
}

// ClientConfig tells the browser client which service versions the proxy forwards.
type ClientConfig struct {
	AppName          string `json:"appName"`
	AuthVersion      string `json:"authVersion"`
	ESGVersion       string `json:"esgVersion"`
	ESGView          string `json:"esgView"`
	NewsVersion      string `json:"newsVersion"`
	SymbologyVersion string `json:"symbologyVersion"`
	Scope            string `json:"scope"`
}

func (s *Server) ClientConfigHandler() http.HandlerFunc {
	cfg := ClientConfig{
		AppName:          s.config.GetAppName(),
		AuthVersion:      s.config.GetAuthVersion(),
		ESGVersion:       s.config.GetESGVersion(),
		ESGView:          s.config.GetESGView(),
		NewsVersion:      s.config.GetNewsVersion(),
		SymbologyVersion: s.config.GetSymbologyVersion(),
		Scope:            s.config.GetScope(),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(cfg); err != nil {
			log.Error().Err(err).Msg("Failed to write client config")
		}
	}
}

// optionsHandler answers same-origin OPTIONS requests locally.
func (s *Server) optionsHandler(methods []string) http.HandlerFunc {
	allow := strings.Join(methods, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		w.WriteHeader(http.StatusNoContent)
	}
}
