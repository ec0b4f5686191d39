package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v80/github"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// FetchWikiPages retrieves wiki pages from a repository.
// GitHub has no REST API for wikis; each wiki is a separate git
// repository addressed as {owner}/{repo}.wiki, so pages are read
// through the git tree and blob endpoints of that repository.
func FetchWikiPages(ctx context.Context, client *Client, repo *gh.Repository) ([]domain.RawDocument, string, error) {
	if !repo.GetHasWiki() {
		return nil, "", ErrWikiDisabled
	}

	owner := repo.GetOwner().GetLogin()
	name := repo.GetName()
	wikiRepoName := name + ".wiki"

	tree, err := client.GetTree(ctx, owner, wikiRepoName, "master")
	if err != nil {
		// Wiki might be enabled but have no pages yet
		if IsNotFound(err) || IsForbidden(err) {
			return nil, "", ErrWikiDisabled
		}
		return nil, "", err
	}

	docs := make([]domain.RawDocument, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}

		path := entry.GetPath()

		// Only process .md files
		if !strings.HasSuffix(path, ".md") {
			continue
		}

		content, err := fetchWikiBlobContent(ctx, client, owner, wikiRepoName, entry.GetSHA())
		if err != nil {
			continue
		}

		// Page title is the filename without the .md extension
		title := strings.TrimSuffix(path, ".md")

		doc := domain.RawDocument{
			SourceID:   "", // Will be set by connector
			URI:        buildWikiURI(owner, name, title),
			MIMEType:   "text/markdown",
			Content:    content,
			ModifiedAt: repo.GetPushedAt().Time,
			Metadata: map[string]any{
				"type":     "wiki",
				"owner":    owner,
				"repo":     name,
				"title":    title,
				"sha":      entry.GetSHA(),
				"html_url": fmt.Sprintf("https://github.com/%s/%s/wiki/%s", owner, name, title),
			},
		}
		docs = append(docs, doc)
	}

	return docs, tree.GetSHA(), nil
}

// fetchWikiBlobContent fetches the content of a wiki blob and decodes it.
func fetchWikiBlobContent(ctx context.Context, client *Client, owner, repo, sha string) ([]byte, error) {
	blob, err := client.GetBlob(ctx, owner, repo, sha)
	if err != nil {
		return nil, err
	}

	// Decode base64 content
	if blob.GetEncoding() == "base64" {
		// Remove any whitespace from base64 content
		content := strings.ReplaceAll(blob.GetContent(), "\n", "")
		content = strings.ReplaceAll(content, "\r", "")
		return base64.StdEncoding.DecodeString(content)
	}

	return []byte(blob.GetContent()), nil
}

// buildWikiURI creates a URI for a wiki page.
func buildWikiURI(owner, repo, title string) string {
	return fmt.Sprintf("github://%s/%s/wiki/%s", owner, repo, title)
}
