package config

type RDPConfig interface {
	GetBaseURL() string
	GetProxyURL() string
	GetAuthVersion() string
	GetESGVersion() string
	GetESGView() string
	GetNewsVersion() string
	GetSymbologyVersion() string
	GetScope() string
}

// RDP holds the upstream platform settings. Service versions are part of the
// path contract shared by the proxy route table and the clients.
type RDP struct{}

var _ RDPConfig = RDP{}

// GetBaseURL is the upstream the proxy forwards to.
func (RDP) GetBaseURL() string {
	return GetEnv("RDP_BASE_URL", "https://api.refinitiv.com")
}

// GetProxyURL is where the terminal client sends its requests.
func (RDP) GetProxyURL() string {
	return GetEnv("RDP_PROXY_URL", "http://localhost:8080")
}

func (RDP) GetAuthVersion() string {
	return GetEnv("RDP_AUTH_VERSION", "v1")
}

func (RDP) GetESGVersion() string {
	return GetEnv("RDP_ESG_VERSION", "v2")
}

func (RDP) GetESGView() string {
	return GetEnv("RDP_ESG_VIEW", "basic")
}

func (RDP) GetNewsVersion() string {
	return GetEnv("RDP_NEWS_VERSION", "v1")
}

func (RDP) GetSymbologyVersion() string {
	return GetEnv("RDP_SYMBOLOGY_VERSION", "v1")
}

func (RDP) GetScope() string {
	return GetEnv("RDP_SCOPE", "trapi")
}
