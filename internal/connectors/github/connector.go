package github

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector fetches documents from GitHub repositories.
type Connector struct {
	sourceID string
	config   *Config
	creds    driven.Credentials
	client   *Client
	mu       sync.Mutex
	closed   bool
}

// New creates a new GitHub connector.
func New(sourceID string, cfg *Config, creds driven.Credentials) *Connector {
	return &Connector{
		sourceID: sourceID,
		config:   cfg,
		creds:    creds,
		client:   NewClient(creds.Token),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return domain.SourceTypeGitHub
}

// SourceID returns the source identifier.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Capabilities returns the connector's capabilities.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsIncremental:  true,
		SupportsWatch:        false, // No webhooks in CLI
		SupportsHierarchy:    true,  // Files have directories
		RequiresAuth:         true,
		SupportsCursorReturn: true,
		SupportsRateLimiting: true,
		SupportsPagination:   true,
	}
}

// Validate checks if the GitHub connector is properly configured.
func (c *Connector) Validate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrConnectorClosed
	}

	// Check context cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if c.creds.Token == "" {
		return domain.ErrAuthRequired
	}

	// Validate credentials by making an API call
	if err := c.client.ValidateCredentials(ctx); err != nil {
		if IsUnauthorized(err) {
			return fmt.Errorf("%w: %w", domain.ErrAuthInvalid, err)
		}
		return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
	}

	return nil
}

// FullSync fetches all documents from GitHub.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docsChan := make(chan domain.RawDocument)
	errsChan := make(chan error, 1)

	go func() {
		defer close(docsChan)
		defer close(errsChan)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			errsChan <- domain.ErrConnectorClosed
			return
		}
		c.mu.Unlock()

		// Create new cursor for full sync
		cursor := NewCursor()

		repos, err := resolveRepos(ctx, c.client, c.config)
		if err != nil {
			errsChan <- fmt.Errorf("list repos: %w", err)
			return
		}

		// Sync each repository.
		for _, repo := range repos {
			select {
			case <-ctx.Done():
				return
			default:
			}

			repoCursor := RepoCursor{}

			owner := repo.GetOwner().GetLogin()
			name := repo.GetName()

			// Fetch files if enabled. A full sync must report every
			// live document, so any repository failure aborts the run.
			if c.config.HasContentType(ContentFiles) {
				docs, treeSHA, err := FetchFiles(ctx, c.client, repo, c.config)
				if err != nil {
					errsChan <- fmt.Errorf("repo %s files: %w", RepoFullName(owner, name), err)
					return
				}
				repoCursor.FilesTreeSHA = treeSHA
				for _, doc := range docs {
					doc.SourceID = c.sourceID
					select {
					case <-ctx.Done():
						return
					case docsChan <- doc:
					}
				}
			}

			// Fetch wiki if enabled.
			if c.config.HasContentType(ContentWikis) {
				docs, wikiSHA, err := FetchWikiPages(ctx, c.client, repo)
				switch {
				case err == nil:
					repoCursor.WikiCommitSHA = wikiSHA
					for _, doc := range docs {
						doc.SourceID = c.sourceID
						select {
						case <-ctx.Done():
							return
						case docsChan <- doc:
						}
					}
				case errors.Is(err, ErrWikiDisabled):
					// No wiki to sync.
				default:
					errsChan <- fmt.Errorf("repo %s wiki: %w", RepoFullName(owner, name), err)
					return
				}
			}

			// Save repo cursor.
			cursor.SetRepoCursor(owner, name, &repoCursor)
		}

		// Send completion with cursor
		errsChan <- &driven.SyncComplete{
			NewCursor: cursor.Encode(),
		}
	}()

	return docsChan, errsChan
}

// IncrementalSync fetches only changes since the last sync.
// File changes are detected by comparing tree SHAs per repository.
// A changed tree refetches that repository's files; deletions upstream
// are only reconciled by the next full sync.
func (c *Connector) IncrementalSync(
	ctx context.Context, state domain.SyncState,
) (<-chan domain.RawDocumentChange, <-chan error) {
	changesChan := make(chan domain.RawDocumentChange)
	errsChan := make(chan error, 1)

	go func() {
		defer close(changesChan)
		defer close(errsChan)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			errsChan <- domain.ErrConnectorClosed
			return
		}
		c.mu.Unlock()

		// Decode cursor
		cursor, err := DecodeCursor(state.Cursor)
		if err != nil {
			errsChan <- fmt.Errorf("decode cursor: %w", err)
			return
		}

		repos, err := resolveRepos(ctx, c.client, c.config)
		if err != nil {
			errsChan <- fmt.Errorf("list repos: %w", err)
			return
		}

		// Sync each repository.
		for _, repo := range repos {
			select {
			case <-ctx.Done():
				return
			default:
			}

			owner := repo.GetOwner().GetLogin()
			name := repo.GetName()
			branch := repo.GetDefaultBranch()
			repoCursor := cursor.GetRepoCursor(owner, name)

			// Fetch updated files if enabled.
			if c.config.HasContentType(ContentFiles) {
				// For files, we compare tree SHAs.
				currentTree, err := c.client.GetTree(ctx, owner, name, branch)
				switch {
				case err == nil && currentTree.GetSHA() != repoCursor.FilesTreeSHA:
					docs, treeSHA, err := FetchFiles(ctx, c.client, repo, c.config)
					if err == nil {
						repoCursor.FilesTreeSHA = treeSHA
						for _, doc := range docs {
							doc.SourceID = c.sourceID
							select {
							case <-ctx.Done():
								return
							case changesChan <- domain.RawDocumentChange{
								Type:     domain.ChangeUpdated,
								Document: doc,
							}:
							}
						}
					}
				case IsRateLimited(err):
					errsChan <- err
					return
				}
			}

			// Fetch updated wiki if enabled.
			if c.config.HasContentType(ContentWikis) {
				docs, wikiSHA, err := FetchWikiPages(ctx, c.client, repo)
				switch {
				case err == nil && wikiSHA != repoCursor.WikiCommitSHA:
					repoCursor.WikiCommitSHA = wikiSHA
					for _, doc := range docs {
						doc.SourceID = c.sourceID
						select {
						case <-ctx.Done():
							return
						case changesChan <- domain.RawDocumentChange{
							Type:     domain.ChangeUpdated,
							Document: doc,
						}:
						}
					}
				case IsRateLimited(err):
					errsChan <- err
					return
				}
			}

			// Update repo cursor.
			cursor.SetRepoCursor(owner, name, &repoCursor)
		}

		// Send completion with updated cursor
		errsChan <- &driven.SyncComplete{
			NewCursor: cursor.Encode(),
		}
	}()

	return changesChan, errsChan
}

// Watch is not supported for GitHub (no webhooks in CLI).
func (c *Connector) Watch(_ context.Context) (<-chan domain.RawDocumentChange, error) {
	return nil, domain.ErrNotImplemented
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
