package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	envVar         = "ENV"
	logLevelVar    = "LOG_LEVEL"
	baseURLVar     = "BASE_URL"
	currencyEnvVar = "CURRENCY"
)

// EnvVars resolves settings from the process environment, falling back to values
// loaded from a config file and then to defaults.
type EnvVars struct {
	file map[string]string
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.get(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.get(appNameVar, "Counterparties")
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.get(envVar, "DEV"))
}

func (e EnvVars) GetLogLevel() string {
	return e.get(logLevelVar, "info")
}

// GetBaseURL returns the externally visible URL of the local client (e.g., "http://localhost:8080").
// It is used to build the OIDC redirect URI.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimRight(e.get(baseURLVar, "http://localhost"+e.GetPort()), "/")
}

func (e EnvVars) GetCurrency() string {
	return strings.ToUpper(e.get(currencyEnvVar, "EUR"))
}

func (e EnvVars) get(name, defaultValue string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	if value, ok := e.file[name]; ok && value != "" {
		return value
	}
	return defaultValue
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
