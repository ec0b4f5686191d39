package confluence

import (
	"strings"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// Config holds the parsed configuration for a Confluence source.
type Config struct {
	// BaseURL is the Confluence site URL, e.g. "https://acme.atlassian.net/wiki".
	BaseURL string

	// Spaces lists the space keys to sync.
	Spaces []string
}

// ParseConfig parses a source's config map into a Config struct.
//
// Config keys:
//   - "url": the Confluence site URL (required)
//   - "spaces": comma-separated space keys (required), e.g. "ENG,OPS"
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := &Config{
		BaseURL: strings.TrimRight(strings.TrimSpace(source.ConfigValue("url")), "/"),
	}
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}

	for _, key := range strings.Split(source.ConfigValue("spaces"), ",") {
		key = strings.TrimSpace(key)
		if key != "" {
			cfg.Spaces = append(cfg.Spaces, key)
		}
	}
	if len(cfg.Spaces) == 0 {
		return nil, ErrMissingSpaces
	}

	return cfg, nil
}

// HasSpace reports whether the config includes the given space key.
func (c *Config) HasSpace(key string) bool {
	for _, s := range c.Spaces {
		if s == key {
			return true
		}
	}
	return false
}
