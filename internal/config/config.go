// internal/config/config.go
package config

import (
	"os"
	"strings"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort    string
	LogLevel      string
	CardAllowList []string // Card numbers accepted by AddCreditCard
}

// LoadConfig loads configuration from environment variables, applying
// defaults for anything unset. CARD_ALLOW_LIST is a comma-separated list of
// card numbers; when empty the processor's default allow-list is used.
func LoadConfig() (*AppConfig, error) {
	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080" // Default port
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	var allowList []string
	if raw := os.Getenv("CARD_ALLOW_LIST"); raw != "" {
		for _, number := range strings.Split(raw, ",") {
			number = strings.TrimSpace(number)
			if number != "" {
				allowList = append(allowList, number)
			}
		}
	}

	return &AppConfig{
		ServerPort:    serverPort,
		LogLevel:      logLevel,
		CardAllowList: allowList,
	}, nil
}
