package config

import "time"

type Config interface {
	EnvConfig
	IdentityConfig
	GuardConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetBaseURL() string
	GetCurrency() string
}

type IdentityConfig interface {
	GetKeycloakURL() string
	GetKeycloakRealm() string
	GetKeycloakClientID() string
	GetRedirectURL() string
	GetLoginTimeout() time.Duration
	GetTokenStoreKey() string
}

type GuardConfig interface {
	GetSetupTimeout() time.Duration
}

type StorageConfig interface {
	GetDataFolder() string
	GetDatabasePath() string
}

type mainConfig struct {
	EnvVars
	Identity
	Guard
	Storage
}

// New returns a Config backed by environment variables only.
func New() Config {
	return newConfig(EnvVars{})
}

func newConfig(env EnvVars) Config {
	return mainConfig{
		EnvVars:  env,
		Identity: Identity{env: env},
		Guard:    Guard{env: env},
		Storage:  Storage{env: env},
	}
}
