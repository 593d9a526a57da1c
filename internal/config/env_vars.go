package config

import (
	"os"
	"strings"
	"time"
)

const (
	portEnvVar           = "PORT"
	appNameVar           = "APP_NAME"
	envVar               = "ENV"
	logLevelVar          = "LOG_LEVEL"
	requestTimeoutEnvVar = "REQUEST_TIMEOUT"

	defaultRequestTimeout = 30 * time.Second
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

// GetPort returns the listen address in ":port" form.
func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "RDP Proxy")
}

func (EnvVars) GetEnv() string {
	return GetEnv(envVar, "DEV")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// GetRequestTimeout bounds every outbound HTTP call. Values that do not parse as a
// Go duration fall back to the default.
func (EnvVars) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(GetEnv(requestTimeoutEnvVar, ""))
	if err != nil || d <= 0 {
		return defaultRequestTimeout
	}
	return d
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
