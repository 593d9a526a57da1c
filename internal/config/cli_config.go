package config

type CLIConfig interface {
	GetUsername() string
	GetAppKey() string
}

// CLI holds the defaults for the terminal client flags. The password is never
// read from the environment.
type CLI struct{}

var _ CLIConfig = CLI{}

func (CLI) GetUsername() string {
	return GetEnv("RDP_USERNAME", "")
}

func (CLI) GetAppKey() string {
	return GetEnv("RDP_APP_KEY", "")
}
