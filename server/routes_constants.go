package server

import (
	"net/http"

	"github.com/jrsteele09/rdp-proxy/internal/config"
)

// Local routes served by the proxy itself.
const (
	RouteIndex        = "/"
	RoutePing         = "/ping"
	RouteClientConfig = "/client-config"
)

// Names of the routes forwarded to the platform.
const (
	RouteAuthToken       = "auth-token"
	RouteAuthRevoke      = "auth-revoke"
	RouteSymbologyLookup = "symbology-lookup"
	RouteESGViews        = "esg-views"
	RouteNewsHeadlines   = "news-headlines"
)

// Route is one path the proxy forwards verbatim to the platform. Path is a
// ServeMux path and may contain wildcards.
type Route struct {
	Name   string
	Method string
	Path   string
}

func (r Route) Pattern() string {
	return r.Method + " " + r.Path
}

// ProxyRoutes lists every forwarded route for the configured service versions.
// Anything not listed here is never sent upstream.
func ProxyRoutes(cfg config.RDPConfig) []Route {
	auth := "/auth/oauth2/" + cfg.GetAuthVersion()
	news := "/data/news/" + cfg.GetNewsVersion() + "/headlines"
	return []Route{
		{Name: RouteAuthToken, Method: http.MethodPost, Path: auth + "/token"},
		{Name: RouteAuthRevoke, Method: http.MethodPost, Path: auth + "/revoke"},
		{Name: RouteSymbologyLookup, Method: http.MethodPost, Path: "/discovery/symbology/" + cfg.GetSymbologyVersion() + "/lookup"},
		{Name: RouteESGViews, Method: http.MethodGet, Path: "/data/environmental-social-governance/" + cfg.GetESGVersion() + "/views/{view}"},
		{Name: RouteNewsHeadlines, Method: http.MethodGet, Path: news},
		{Name: RouteNewsHeadlines, Method: http.MethodGet, Path: news + "/{$}"},
	}
}
