package chromem

import (
	"fmt"

	"github.com/flemzord/memagent/internal/memory"
)

// Config holds the chromem memory module configuration.
type Config struct {
	// Path persists collections under this directory. Empty keeps
	// everything in memory.
	Path string `yaml:"path"`

	// Compress gzips the persisted documents.
	Compress bool `yaml:"compress"`

	// Dimensions is the embedding size. Defaults to 384.
	Dimensions int `yaml:"dimensions"`
}

func (c *Config) defaults() {
	if c.Dimensions == 0 {
		c.Dimensions = memory.DefaultEmbeddingDims
	}
}

func (c *Config) validate() error {
	if c.Dimensions < 8 {
		return fmt.Errorf("chromem: dimensions must be at least 8, got %d", c.Dimensions)
	}
	if c.Compress && c.Path == "" {
		return fmt.Errorf("chromem: compress requires a path")
	}
	return nil
}
