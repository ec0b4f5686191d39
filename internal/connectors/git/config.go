package git

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// DefaultDocsPath is the repository subdirectory scanned for documents
// when the source does not configure one.
const DefaultDocsPath = "docs"

// Config holds the parsed configuration for a git source.
type Config struct {
	// URL is the clone URL of the repository (http, https or ssh).
	URL string

	// Branch is the branch to sync. Empty means the remote default.
	Branch string

	// DocsPath is the repository subdirectory to scan for markdown
	// files, relative to the repository root. "." scans the whole
	// repository.
	DocsPath string

	// CacheDir is the local directory the repository is cloned into.
	CacheDir string
}

// ParseConfig parses a source's config map into a Config struct.
// Only the repository URL is required.
func ParseConfig(source domain.Source) (*Config, error) {
	cfg := &Config{
		URL:      strings.TrimSpace(source.ConfigValue("url")),
		Branch:   strings.TrimSpace(source.ConfigValue("branch")),
		DocsPath: normalizeDocsPath(source.ConfigValue("docs_path")),
		CacheDir: strings.TrimSpace(source.ConfigValue("cache_dir")),
	}

	if cfg.URL == "" {
		return nil, ErrMissingURL
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = defaultCacheDir(source.ID)
	}

	return cfg, nil
}

// normalizeDocsPath cleans the configured docs path into a slash
// separated path relative to the repository root.
func normalizeDocsPath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return DefaultDocsPath
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return "."
	}
	return cleaned
}

// defaultCacheDir places repository clones under the user cache
// directory, keyed by source ID so sources never collide.
func defaultCacheDir(sourceID string) string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "docseek", "git", sourceID)
}
