package config

import (
	"strconv"
	"time"
)

const setupTimeoutVar = "SETUP_TIMEOUT_MS"

// DefaultSetupTimeout bounds how long a navigation waits for the identity handshake.
const DefaultSetupTimeout = 8000 * time.Millisecond

type Guard struct {
	env EnvVars
}

var _ GuardConfig = Guard{}

func (g Guard) GetSetupTimeout() time.Duration {
	ms, err := strconv.Atoi(g.env.get(setupTimeoutVar, ""))
	if err != nil || ms <= 0 {
		return DefaultSetupTimeout
	}
	return time.Duration(ms) * time.Millisecond
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
