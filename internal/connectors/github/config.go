package github

import (
	"fmt"
	"strings"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// ContentType represents the type of content to index.
type ContentType string

const (
	ContentFiles ContentType = "files"
	ContentWikis ContentType = "wikis"
)

// AllContentTypes returns all supported content types.
func AllContentTypes() []ContentType {
	return []ContentType{ContentFiles, ContentWikis}
}

// DefaultFilePatterns matches documentation files. Sources that want
// other file kinds indexed override this with the file_patterns key.
var DefaultFilePatterns = []string{"*.md", "*.markdown", "*.mdx", "*.rst", "*.adoc", "*.txt"}

// Config holds the parsed configuration for a GitHub source.
type Config struct {
	// ContentTypes specifies what content to index.
	// Default: all types (files, wikis)
	ContentTypes []ContentType

	// FilePatterns are glob patterns for file filtering.
	// Default: documentation files (DefaultFilePatterns)
	FilePatterns []string

	// Repos limits syncing to the listed "owner/name" repositories.
	// Default: every repository the token can access
	Repos []string
}

// ParseConfig parses a source's config map into a Config struct.
// All fields are optional. By default every accessible repository is
// indexed with all content types and documentation file patterns.
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := &Config{
		ContentTypes: AllContentTypes(),
		FilePatterns: DefaultFilePatterns,
	}

	// Parse content_types (optional)
	if contentTypes, ok := source.Config["content_types"]; ok && contentTypes != "" {
		types, err := parseContentTypes(contentTypes)
		if err != nil {
			return nil, err
		}
		cfg.ContentTypes = types
	}

	// Parse file_patterns (optional)
	if patterns, ok := source.Config["file_patterns"]; ok && patterns != "" {
		cfg.FilePatterns = parseList(patterns)
	}

	// Parse repos (optional)
	if repos, ok := source.Config["repos"]; ok && repos != "" {
		list, err := parseRepos(repos)
		if err != nil {
			return nil, err
		}
		cfg.Repos = list
	}

	return cfg, nil
}

// parseContentTypes parses a comma-separated content types string.
func parseContentTypes(s string) ([]ContentType, error) {
	parts := strings.Split(s, ",")
	types := make([]ContentType, 0, len(parts))
	valid := map[string]ContentType{
		"files": ContentFiles,
		"wikis": ContentWikis,
	}

	for _, part := range parts {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		ct, ok := valid[part]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrConfigInvalidContentType, part)
		}
		types = append(types, ct)
	}

	if len(types) == 0 {
		return AllContentTypes(), nil
	}
	return types, nil
}

// parseRepos parses a comma-separated "owner/name" repository list.
func parseRepos(s string) ([]string, error) {
	repos := parseList(s)
	for _, repo := range repos {
		owner, name, ok := strings.Cut(repo, "/")
		if !ok || owner == "" || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrConfigInvalidRepo, repo)
		}
	}
	return repos, nil
}

// parseList parses a comma-separated string into trimmed parts.
func parseList(s string) []string {
	parts := strings.Split(s, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			list = append(list, part)
		}
	}
	return list
}

// HasContentType checks if a content type is enabled.
func (c *Config) HasContentType(ct ContentType) bool {
	for _, t := range c.ContentTypes {
		if t == ct {
			return true
		}
	}
	return false
}
