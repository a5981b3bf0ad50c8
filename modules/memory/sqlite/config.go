package sqlite

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	defaultDBFile      = "memory.db"
	defaultBusyTimeout = 5 * time.Second
)

// synchronousModes are the accepted values of PRAGMA synchronous.
var synchronousModes = []string{"OFF", "NORMAL", "FULL", "EXTRA"}

// Config is the memory.sqlite module configuration.
//
//	memory.sqlite:
//	  path: /var/lib/memagent/memory.db
//	  wal: true
//	  busy_timeout: 5s
//	  synchronous: normal
type Config struct {
	// Path of the fact database. Empty means {data_dir}/memory.db.
	Path string `yaml:"path"`

	// WAL turns on write-ahead logging. Nil means true.
	WAL *bool `yaml:"wal"`

	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// Synchronous sets PRAGMA synchronous. Empty keeps NORMAL under WAL and
	// the SQLite default otherwise.
	Synchronous string `yaml:"synchronous"`
}

func (c *Config) defaults() {
	if c.BusyTimeout == 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
	c.Synchronous = strings.ToUpper(strings.TrimSpace(c.Synchronous))
	if c.Synchronous == "" && c.walEnabled() {
		c.Synchronous = "NORMAL"
	}
}

func (c *Config) walEnabled() bool {
	return c.WAL == nil || *c.WAL
}

func (c *Config) validate() error {
	if c.BusyTimeout < 0 {
		return fmt.Errorf("sqlite: busy_timeout must be non-negative, got %s", c.BusyTimeout)
	}
	if c.Synchronous != "" && !slices.Contains(synchronousModes, c.Synchronous) {
		return fmt.Errorf("sqlite: synchronous must be one of %v, got %q", synchronousModes, c.Synchronous)
	}
	return nil
}
