package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	CorsConfig
	RDPConfig
	CLIConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetRequestTimeout() time.Duration
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	RDP
	CLI
}

func New() Config {
	return mainConfig{}
}

// Load reads the given dotenv files into the process environment and returns the
// environment backed Config. Files that do not exist are skipped, and variables
// already present in the environment win over file values.
func Load(files ...string) (Config, error) {
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("[config Load] failed to load %s: %w", file, err)
		}
	}
	return New(), nil
}
