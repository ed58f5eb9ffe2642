package config

import "path/filepath"

const (
	folderEnvVar   = "FOLDER"
	databaseEnvVar = "DATABASE"
)

type Storage struct {
	env EnvVars
}

var _ StorageConfig = Storage{}

func (s Storage) GetDataFolder() string {
	return s.env.get(folderEnvVar, "./data")
}

// GetDatabasePath returns the sqlite file holding every persisted collection.
func (s Storage) GetDatabasePath() string {
	return filepath.Join(s.GetDataFolder(), s.env.get(databaseEnvVar, "client.db"))
}
