package git

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// ensureRepo returns an up to date clone of the repository. A cache
// that cannot be opened or updated is wiped and cloned from scratch.
func (c *Connector) ensureRepo(ctx context.Context) (*gogit.Repository, error) {
	repo, err := c.openAndUpdate(ctx)
	if err == nil {
		return repo, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	if err := os.RemoveAll(c.config.CacheDir); err != nil {
		return nil, fmt.Errorf("reset repository cache: %w", err)
	}
	return c.clone(ctx)
}

// openAndUpdate opens the cached clone, checks out the configured
// branch and pulls from origin.
func (c *Connector) openAndUpdate(ctx context.Context) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(c.config.CacheDir)
	if err != nil {
		return nil, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, err
	}

	if c.config.Branch != "" {
		branch := plumbing.NewBranchReferenceName(c.config.Branch)
		if err := worktree.Checkout(&gogit.CheckoutOptions{Branch: branch, Force: true}); err != nil {
			return nil, err
		}
	}

	pullOpts := &gogit.PullOptions{
		RemoteName: "origin",
		Auth:       c.auth(),
		Force:      true,
	}
	if c.config.Branch != "" {
		pullOpts.ReferenceName = plumbing.NewBranchReferenceName(c.config.Branch)
	}

	err = worktree.PullContext(ctx, pullOpts)
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil, err
	}
	return repo, nil
}

// clone creates a fresh clone in the cache directory.
func (c *Connector) clone(ctx context.Context) (*gogit.Repository, error) {
	opts := &gogit.CloneOptions{
		URL:  c.config.URL,
		Auth: c.auth(),
	}
	if c.config.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(c.config.Branch)
		opts.SingleBranch = true
	}

	repo, err := gogit.PlainCloneContext(ctx, c.config.CacheDir, false, opts)
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", c.config.URL, err)
	}
	return repo, nil
}

// walkDocs visits every markdown file under the docs path and calls fn
// with its slash separated path relative to the repository root.
func (c *Connector) walkDocs(fn func(relPath string) error) error {
	root := c.config.CacheDir
	if c.config.DocsPath != "." {
		root = filepath.Join(root, filepath.FromSlash(c.config.DocsPath))
	}

	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrDocsPathNotFound, c.config.DocsPath)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDocsPathNotFound, c.config.DocsPath)
	}

	return filepath.WalkDir(root, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			// The .git directory and other hidden trees never
			// hold documents.
			if strings.HasPrefix(d.Name(), ".") && walkPath != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(c.config.CacheDir, walkPath)
		if err != nil {
			return nil
		}
		relPath := filepath.ToSlash(rel)
		if !c.isDocument(relPath) {
			return nil
		}
		return fn(relPath)
	})
}

// isDocument reports whether a repository relative path is a markdown
// file inside the configured docs path.
func (c *Connector) isDocument(relPath string) bool {
	if relPath == "" {
		return false
	}
	if !isMarkdown(relPath) {
		return false
	}
	if c.config.DocsPath == "." {
		return true
	}
	return relPath == c.config.DocsPath || strings.HasPrefix(relPath, c.config.DocsPath+"/")
}

func isMarkdown(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// readDocument builds a RawDocument for a repository relative path,
// carrying the last commit that touched the file.
func (c *Connector) readDocument(repo *gogit.Repository, head plumbing.Hash, relPath string) (*domain.RawDocument, error) {
	fullPath := filepath.Join(c.config.CacheDir, filepath.FromSlash(relPath))

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, err
	}

	doc := &domain.RawDocument{
		SourceID:  c.sourceID,
		URI:       relPath,
		MIMEType:  "text/markdown",
		Content:   content,
		ParentURI: parentURI(relPath),
		Metadata: map[string]any{
			"repository": c.config.URL,
			"branch":     c.config.Branch,
			"filename":   path.Base(relPath),
			"extension":  strings.TrimPrefix(path.Ext(relPath), "."),
		},
	}

	if commit := c.lastCommit(repo, head, relPath); commit != nil {
		doc.Author = commit.Author.Name
		doc.ModifiedAt = commit.Committer.When
		doc.Metadata["commit"] = commit.Hash.String()
		doc.Metadata["version"] = shortHash(commit.Hash)
	} else if info, err := os.Stat(fullPath); err == nil {
		// Checkout time is a weak fallback when history is missing.
		doc.ModifiedAt = info.ModTime()
	}

	if url := ResolveWebURL(relPath, doc.Metadata); url != "" {
		doc.Metadata["source_url"] = url
	}

	return doc, nil
}

// lastCommit returns the most recent commit touching the file, or nil
// when history is unavailable.
func (c *Connector) lastCommit(repo *gogit.Repository, head plumbing.Hash, relPath string) *object.Commit {
	iter, err := repo.Log(&gogit.LogOptions{
		From:     head,
		FileName: &relPath,
	})
	if err != nil {
		return nil
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err != nil {
		return nil
	}
	return commit
}

// parentURI returns the containing directory, or nil for files at the
// repository root.
func parentURI(relPath string) *string {
	parent := path.Dir(relPath)
	if parent == "." || parent == "/" {
		return nil
	}
	return &parent
}

// shortHash abbreviates a commit hash for display, mirroring the short
// SHA git tooling prints.
func shortHash(h plumbing.Hash) string {
	s := h.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
