package fetcher

import (
	"time"
)

// Config holds the configuration for the fetch collaborator
type Config struct {
	DefaultTimeout time.Duration // Default timeout for requests
	MaxConcurrency int           // Maximum number of concurrent fetch workers
	RateLimit      int           // Maximum requests per second across the run
	UserAgent      string        // User agent string for requests
	MaxBodyBytes   int64         // Cap on response body size
}

// DefaultConfig returns a Config instance with default values
func DefaultConfig() *Config {
	return &Config{
		DefaultTimeout: 30 * time.Second,
		MaxConcurrency: 10,
		RateLimit:      5,
		UserAgent:      "Mozilla/4.0 (compatible; MSIE 7.0; Windows NT 5.1)",
		MaxBodyBytes:   5 * 1024 * 1024,
	}
}
