package git

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector syncs markdown documents from any git repository. The
// repository is cloned into a local cache directory and updated on
// each sync; document metadata carries the last commit touching each
// file. The cursor is the HEAD commit hash.
type Connector struct {
	sourceID string
	config   *Config
	creds    driven.Credentials

	mu     sync.Mutex
	closed bool
}

// New creates a new git connector.
func New(sourceID string, cfg *Config, creds driven.Credentials) *Connector {
	return &Connector{
		sourceID: sourceID,
		config:   cfg,
		creds:    creds,
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return domain.SourceTypeGit
}

// SourceID returns the source identifier.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Capabilities returns the connector's capabilities.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsIncremental:  true,
		SupportsWatch:        false,
		SupportsHierarchy:    true,
		RequiresAuth:         false,
		SupportsCursorReturn: true,
	}
}

// Validate checks the remote is reachable and the configured branch
// exists, without cloning anything.
func (c *Connector) Validate(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrConnectorClosed
	}
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	remote := gogit.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{c.config.URL},
	})

	refs, err := remote.ListContext(ctx, &gogit.ListOptions{Auth: c.auth()})
	if err != nil {
		if errors.Is(err, transport.ErrAuthenticationRequired) {
			return fmt.Errorf("%w: %s", domain.ErrAuthRequired, c.config.URL)
		}
		if errors.Is(err, transport.ErrAuthorizationFailed) {
			return fmt.Errorf("%w: %s", domain.ErrAuthInvalid, c.config.URL)
		}
		return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
	}

	if c.config.Branch == "" {
		return nil
	}
	want := plumbing.NewBranchReferenceName(c.config.Branch)
	for _, ref := range refs {
		if ref.Name() == want {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrBranchNotFound, c.config.Branch)
}

// FullSync clones or updates the repository and emits every markdown
// file under the docs path. A SyncComplete carrying the HEAD hash is
// sent on the error channel so the first sync establishes a cursor.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			errs <- domain.ErrConnectorClosed
			return
		}
		c.mu.Unlock()

		repo, err := c.ensureRepo(ctx)
		if err != nil {
			errs <- err
			return
		}

		head, err := repo.Head()
		if err != nil {
			errs <- fmt.Errorf("resolve HEAD: %w", err)
			return
		}

		err = c.walkDocs(func(relPath string) error {
			doc, err := c.readDocument(repo, head.Hash(), relPath)
			if err != nil {
				// Unreadable files are skipped, not fatal.
				return nil
			}
			select {
			case docs <- *doc:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				errs <- err
			}
			return
		}

		errs <- &driven.SyncComplete{NewCursor: head.Hash().String()}
	}()

	return docs, errs
}

// IncrementalSync updates the repository and emits the documents
// changed between the cursor commit and the new HEAD. An empty or
// unresolvable cursor (force push, pruned history) falls back to
// emitting every document.
func (c *Connector) IncrementalSync(ctx context.Context, state domain.SyncState) (<-chan domain.RawDocumentChange, <-chan error) {
	changes := make(chan domain.RawDocumentChange)
	errs := make(chan error, 1)

	go func() {
		defer close(changes)
		defer close(errs)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			errs <- domain.ErrConnectorClosed
			return
		}
		c.mu.Unlock()

		repo, err := c.ensureRepo(ctx)
		if err != nil {
			errs <- err
			return
		}

		head, err := repo.Head()
		if err != nil {
			errs <- fmt.Errorf("resolve HEAD: %w", err)
			return
		}
		newCursor := head.Hash().String()

		if state.Cursor == newCursor {
			errs <- &driven.SyncComplete{NewCursor: newCursor}
			return
		}

		emit := func(change domain.RawDocumentChange) error {
			select {
			case changes <- change:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = c.emitChanges(ctx, repo, head.Hash(), state.Cursor, emit)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				errs <- err
			}
			return
		}

		errs <- &driven.SyncComplete{NewCursor: newCursor}
	}()

	return changes, errs
}

// emitChanges diffs the cursor commit against head and emits one change
// per affected document. When the cursor commit cannot be resolved the
// whole docs tree is emitted as updates.
func (c *Connector) emitChanges(ctx context.Context, repo *gogit.Repository, head plumbing.Hash, cursor string, emit func(domain.RawDocumentChange) error) error {
	oldCommit, err := repo.CommitObject(plumbing.NewHash(cursor))
	if cursor == "" || err != nil {
		return c.walkDocs(func(relPath string) error {
			doc, err := c.readDocument(repo, head, relPath)
			if err != nil {
				return nil
			}
			return emit(domain.RawDocumentChange{
				Type:     domain.ChangeUpdated,
				Document: *doc,
			})
		})
	}

	newCommit, err := repo.CommitObject(head)
	if err != nil {
		return fmt.Errorf("resolve commit %s: %w", head, err)
	}
	oldTree, err := oldCommit.Tree()
	if err != nil {
		return fmt.Errorf("resolve tree: %w", err)
	}
	newTree, err := newCommit.Tree()
	if err != nil {
		return fmt.Errorf("resolve tree: %w", err)
	}

	diff, err := object.DiffTreeContext(ctx, oldTree, newTree)
	if err != nil {
		return fmt.Errorf("diff trees: %w", err)
	}

	for _, change := range diff {
		action, err := change.Action()
		if err != nil {
			continue
		}

		switch action {
		case merkletrie.Insert:
			if !c.isDocument(change.To.Name) {
				continue
			}
			doc, err := c.readDocument(repo, head, change.To.Name)
			if err != nil {
				continue
			}
			if err := emit(domain.RawDocumentChange{Type: domain.ChangeCreated, Document: *doc}); err != nil {
				return err
			}

		case merkletrie.Modify:
			// A path change shows up as a modify with differing names.
			if change.From.Name != change.To.Name && c.isDocument(change.From.Name) {
				if err := emit(c.deleteChange(change.From.Name)); err != nil {
					return err
				}
			}
			if !c.isDocument(change.To.Name) {
				continue
			}
			doc, err := c.readDocument(repo, head, change.To.Name)
			if err != nil {
				continue
			}
			if err := emit(domain.RawDocumentChange{Type: domain.ChangeUpdated, Document: *doc}); err != nil {
				return err
			}

		case merkletrie.Delete:
			if !c.isDocument(change.From.Name) {
				continue
			}
			if err := emit(c.deleteChange(change.From.Name)); err != nil {
				return err
			}
		}
	}

	return nil
}

// deleteChange builds a deletion event carrying only the identifiers.
func (c *Connector) deleteChange(relPath string) domain.RawDocumentChange {
	return domain.RawDocumentChange{
		Type: domain.ChangeDeleted,
		Document: domain.RawDocument{
			SourceID: c.sourceID,
			URI:      relPath,
		},
	}
}

// Watch is not supported for git sources; changes are picked up on the
// next scheduled sync.
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

// auth returns the transport credentials, or nil for anonymous access.
// Token-only credentials use the oauth2 username convention understood
// by GitHub, GitLab and Gitea.
func (c *Connector) auth() transport.AuthMethod {
	if c.creds.Token == "" {
		return nil
	}
	username := c.creds.Username
	if username == "" {
		username = "oauth2"
	}
	return &githttp.BasicAuth{
		Username: username,
		Password: c.creds.Token,
	}
}
