package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed traits.yaml
var traitsYAML []byte

type Config struct {
	Database DatabaseConfig
	Snapshot SnapshotConfig
	Traits   TraitsConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type SnapshotConfig struct {
	// DatabaseURL is the MySQL/MariaDB DSN of a legacy phenotyping
	// snapshot database (e.g. phenodb:phenodb@tcp(db:3306)/snapshots).
	DatabaseURL string
}

type TraitsConfig struct {
	Variables map[string]Trait `yaml:"variables"`
}

// Trait is the default metadata recorded for a known variable.
type Trait struct {
	Trait string `yaml:"trait"`
	Scale string `yaml:"scale"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func Load() *Config {
	var traits TraitsConfig
	if err := yaml.Unmarshal(traitsYAML, &traits); err != nil {
		// This is an embedded file, so failing to parse it is a build
		// defect rather than a runtime condition.
		panic("failed to unmarshal embedded traits.yaml: " + err.Error())
	}

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Snapshot: SnapshotConfig{
			DatabaseURL: os.Getenv("SNAPSHOT_DATABASE_URL"),
		},
		Traits: traits,
	}
}

// TraitFor returns the default trait metadata for a variable name, falling
// back to the variable name itself with an empty scale.
func (c *Config) TraitFor(variable string) Trait {
	if t, ok := c.Traits.Variables[variable]; ok {
		return t
	}
	return Trait{Trait: variable}
}
