package main

import (
	"time"

	"github.com/genie-oss/agent/pkg/log"
)

type Config struct {
	// Filesystem path to the cache directory. Must reside on a
	// single filesystem.
	CacheDir string `mapstructure:"cache_dir"`

	// Maximum number of resources fetched concurrently.
	Concurrency int `mapstructure:"concurrency"`

	// Timeout applied to HTTP requests. Zero disables the timeout.
	Timeout time.Duration `mapstructure:"timeout"`

	// Log verbosity level: 0 = info, 1 = debug, 2 = trace
	Verbosity int `mapstructure:"verbosity"`
}

func (c *Config) Log() {
	log.Debug("Fetch configuration:")
	log.Debugf("  cache_dir = %s", c.CacheDir)
	log.Debugf("  concurrency = %d", c.Concurrency)
	log.Debugf("  timeout = %s", c.Timeout)
}
