package confluence

import (
	"context"
	"fmt"
	"sync"

	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector syncs pages from Confluence spaces.
type Connector struct {
	sourceID string
	config   *Config
	creds    driven.Credentials
	client   *Client

	mu     sync.Mutex
	closed bool
}

// New creates a new Confluence connector for a source.
func New(sourceID string, cfg *Config, creds driven.Credentials) *Connector {
	return &Connector{
		sourceID: sourceID,
		config:   cfg,
		creds:    creds,
		client:   NewClient(cfg.BaseURL, creds.Username, creds.Token),
	}
}

// Type returns the connector type.
func (c *Connector) Type() string {
	return domain.SourceTypeConfluence
}

// SourceID returns the source this connector serves.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Capabilities describes what this connector supports.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsIncremental:  true,
		SupportsWatch:        false,
		SupportsHierarchy:    true,
		RequiresAuth:         true,
		SupportsCursorReturn: true,
		SupportsRateLimiting: true,
		SupportsPagination:   true,
	}
}

// Validate checks the credentials against the configured site.
func (c *Connector) Validate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrConnectorClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if c.creds.Username == "" || c.creds.Token == "" {
		return domain.ErrAuthRequired
	}

	if err := c.client.CurrentUser(ctx); err != nil {
		if IsUnauthorized(err) {
			return fmt.Errorf("%w: %w", domain.ErrAuthInvalid, err)
		}
		return fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
	}

	return nil
}

// FullSync walks every configured space and emits each page as a raw
// document. Pages without storage content are recorded in the cursor but
// not emitted.
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

		cursor := NewCursor()

		for _, space := range c.config.Spaces {
			err := c.walkSpacePages(ctx, space, expandFull, func(page *Page) error {
				cursor.SetPage(page.ID, space, page.Version.Number)

				if page.Body.Storage.Value == "" {
					return nil
				}

				doc := pageDocument(c.config.BaseURL, space, page)
				doc.SourceID = c.sourceID

				select {
				case <-ctx.Done():
					return ctx.Err()
				case docsChan <- doc:
					return nil
				}
			})
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				errsChan <- fmt.Errorf("space %s: %w", space, err)
				return
			}
		}

		errsChan <- &driven.SyncComplete{NewCursor: cursor.Encode()}
	}()

	return docsChan, errsChan
}

// IncrementalSync lists page versions in every configured space and
// fetches full content only for pages that are new or whose version
// changed. Pages recorded in the cursor but absent from the listings are
// reported as deleted.
func (c *Connector) IncrementalSync(ctx context.Context, state domain.SyncState) (<-chan domain.RawDocumentChange, <-chan error) {
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

		cursor, err := DecodeCursor(state.Cursor)
		if err != nil {
			errsChan <- fmt.Errorf("decode cursor: %w", err)
			return
		}

		emit := func(changeType domain.ChangeType, doc domain.RawDocument) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case changesChan <- domain.RawDocumentChange{Type: changeType, Document: doc}:
				return nil
			}
		}

		next := NewCursor()

		for _, space := range c.config.Spaces {
			err := c.walkSpacePages(ctx, space, expandVersion, func(page *Page) error {
				next.SetPage(page.ID, space, page.Version.Number)

				prev, known := cursor.GetPage(page.ID)
				if known && prev.Version == page.Version.Number {
					return nil
				}

				full, err := c.client.GetPage(ctx, page.ID, expandFull)
				if err != nil {
					return err
				}
				if full.Body.Storage.Value == "" {
					return nil
				}

				doc := pageDocument(c.config.BaseURL, space, full)
				doc.SourceID = c.sourceID

				changeType := domain.ChangeUpdated
				if !known {
					changeType = domain.ChangeCreated
				}
				return emit(changeType, doc)
			})
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				errsChan <- fmt.Errorf("space %s: %w", space, err)
				return
			}
		}

		// Pages that vanished from the listings were removed upstream
		for id, prev := range cursor.Pages {
			if _, ok := next.Pages[id]; ok {
				continue
			}
			doc := domain.RawDocument{
				SourceID: c.sourceID,
				URI:      buildPageURI(prev.SpaceKey, id),
			}
			if err := emit(domain.ChangeDeleted, doc); err != nil {
				return
			}
		}

		errsChan <- &driven.SyncComplete{NewCursor: next.Encode()}
	}()

	return changesChan, errsChan
}

// walkSpacePages pages through a space's content listing, calling fn for
// each page. The server echoes the effective limit, which may be lower
// than requested when body expansions are involved.
func (c *Connector) walkSpacePages(ctx context.Context, spaceKey, expand string, fn func(page *Page) error) error {
	start := 0
	for {
		list, err := c.client.ListSpacePages(ctx, spaceKey, expand, start, PageLimit)
		if err != nil {
			return err
		}

		for i := range list.Results {
			if err := fn(&list.Results[i]); err != nil {
				return err
			}
		}

		if list.Size == 0 || list.Size < list.Limit {
			return nil
		}
		start += list.Size
	}
}

// Watch is not supported. Confluence Cloud offers webhooks only through
// installed apps.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	return nil, domain.ErrNotImplemented
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}
