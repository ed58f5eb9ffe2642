package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const configFileVar = "CONFIG_FILE"

// Load reads an optional YAML file of environment variable names to values, e.g.
//
//	KEYCLOAK_URL: https://sso.example.com
//	KEYCLOAK_REALM: payments
//
// Variables set in the real environment take precedence over the file.
// An empty path falls back to CONFIG_FILE; with neither set Load behaves like New.
func Load(path string) (Config, error) {
	if path == "" {
		path = GetEnv(configFileVar, "")
	}
	if path == "" {
		return New(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[config Load] failed to read %s: %w", path, err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(content, &values); err != nil {
		return nil, fmt.Errorf("[config Load] failed to parse %s: %w", path, err)
	}
	return newConfig(EnvVars{file: values}), nil
}
