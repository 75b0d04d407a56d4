package spider

import "fmt"

// Config holds the per-run traversal options. Constructed once at run
// start and treated as immutable afterwards.
type Config struct {
	DepthLimit      int      // Hard ceiling on traversal depth
	PatchLimit      int      // Caps total patches collected in a run
	DenyDomains     []string // Hostnames excluded from traversal
	PriorityDomains []string // Hostnames whose links are dispatched first
}

// DefaultConfig returns a Config instance with default values
func DefaultConfig() *Config {
	return &Config{
		DepthLimit:  1,
		PatchLimit:  100,
		DenyDomains: []string{"facebook.com", "twitter.com"},
	}
}

// Validate checks the configuration for values that would make a run
// meaningless.
func (c *Config) Validate() error {
	if c.DepthLimit < 0 {
		return fmt.Errorf("depth limit must not be negative, got %d", c.DepthLimit)
	}
	if c.PatchLimit <= 0 {
		return fmt.Errorf("patch limit must be positive, got %d", c.PatchLimit)
	}
	return nil
}
