package config

import (
	"fmt"
	"os"

	"github.com/quillchain/quill-go/pkg/core/storage/dbconfig"
	"gopkg.in/yaml.v3"
)

// StateSync is the state synchronization service configuration.
type StateSync struct {
	// CodeHashCacheSize is the size of the recently requested contract
	// code hashes cache.
	CodeHashCacheSize int `yaml:"CodeHashCacheSize"`
}

// Config is the top-level application configuration.
type Config struct {
	DB        dbconfig.DBConfiguration `yaml:"DB"`
	StateSync StateSync                `yaml:"StateSync"`
}

// LoadFile loads the config from the given path and returns it with the
// defaults filled in.
func LoadFile(configPath string) (Config, error) {
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	config := Config{
		DB: dbconfig.DBConfiguration{
			Type: dbconfig.LevelDB,
		},
	}
	if err := yaml.Unmarshal(configData, &config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	return config, nil
}
