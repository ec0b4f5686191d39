package connectors

import "github.com/corpora-labs/docseek/internal/core/domain"

// Types describes the built-in connector types and the configuration
// each expects. The source add flow uses this to prompt for and check
// config before a connector is ever built; the keys mirror what each
// connector's ParseConfig reads.
func Types() []domain.ConnectorType {
	return []domain.ConnectorType{
		{
			ID:          domain.SourceTypeLocal,
			Name:        "Local Directory",
			Description: "Index markdown and text files from a local directory",
			ConfigKeys: []domain.ConfigKey{
				{
					Key:         "path",
					Label:       "Directory Path",
					Description: "Absolute path of the directory to index",
					Required:    true,
				},
			},
		},
		{
			ID:          domain.SourceTypeGit,
			Name:        "Git Repository",
			Description: "Clone a git repository and index its documentation tree",
			ConfigKeys: []domain.ConfigKey{
				{
					Key:         "url",
					Label:       "Clone URL",
					Description: "Repository clone URL (http, https or ssh)",
					Required:    true,
				},
				{
					Key:         "branch",
					Label:       "Branch",
					Description: "Branch to sync; empty uses the remote default",
				},
				{
					Key:         "docs_path",
					Label:       "Docs Path",
					Description: "Subdirectory to scan for markdown files; \".\" scans the whole repository",
					Default:     "docs",
				},
				{
					Key:         "cache_dir",
					Label:       "Cache Directory",
					Description: "Local clone location; defaults to the user cache directory",
				},
			},
		},
		{
			ID:           domain.SourceTypeGitHub,
			Name:         "GitHub",
			Description:  "Index documentation files and wiki pages from GitHub repositories",
			RequiresAuth: true,
			ConfigKeys: []domain.ConfigKey{
				{
					Key:         "repos",
					Label:       "Repositories",
					Description: "Comma-separated owner/name list; empty syncs every accessible repository",
				},
				{
					Key:         "file_patterns",
					Label:       "File Patterns",
					Description: "Comma-separated glob patterns for files to index",
					Default:     "*.md,*.markdown,*.mdx,*.rst,*.adoc,*.txt",
				},
				{
					Key:         "content_types",
					Label:       "Content Types",
					Description: "Comma-separated subset of: files, wikis",
					Default:     "files,wikis",
				},
			},
		},
		{
			ID:           domain.SourceTypeConfluence,
			Name:         "Confluence",
			Description:  "Index wiki pages from Confluence spaces",
			RequiresAuth: true,
			ConfigKeys: []domain.ConfigKey{
				{
					Key:         "url",
					Label:       "Site URL",
					Description: "Confluence site URL; empty uses the global confluence.url setting",
				},
				{
					Key:         "spaces",
					Label:       "Space Keys",
					Description: "Comma-separated space keys to sync, e.g. \"ENG,OPS\"",
					Required:    true,
				},
			},
		},
	}
}

// TypeByID returns the descriptor for a connector type, or nil when the
// type is unknown.
func TypeByID(id string) *domain.ConnectorType {
	for _, t := range Types() {
		if t.ID == id {
			return &t
		}
	}
	return nil
}
