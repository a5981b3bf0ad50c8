package vector

import (
	"fmt"

	"github.com/flemzord/memagent/internal/memory"
)

const (
	defaultM        = 16
	defaultEfSearch = 32
)

// Config holds the vector memory module configuration.
type Config struct {
	// Dimensions is the embedding size. Defaults to 384.
	Dimensions int `yaml:"dimensions"`

	// M is the maximum number of neighbors per graph node.
	M int `yaml:"m"`

	// EfSearch is the candidate list size used while searching.
	EfSearch int `yaml:"ef_search"`
}

func (c *Config) defaults() {
	if c.Dimensions == 0 {
		c.Dimensions = memory.DefaultEmbeddingDims
	}
	if c.M == 0 {
		c.M = defaultM
	}
	if c.EfSearch == 0 {
		c.EfSearch = defaultEfSearch
	}
}

func (c *Config) validate() error {
	if c.Dimensions < 8 {
		return fmt.Errorf("vector: dimensions must be at least 8, got %d", c.Dimensions)
	}
	if c.M < 2 {
		return fmt.Errorf("vector: m must be at least 2, got %d", c.M)
	}
	if c.EfSearch < 1 {
		return fmt.Errorf("vector: ef_search must be positive, got %d", c.EfSearch)
	}
	return nil
}
