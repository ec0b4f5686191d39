package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector syncs documents from a local directory tree. Hidden files
// and directories (dot-prefixed) are ignored at every level.
type Connector struct {
	sourceID string
	rootPath string

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// New creates a new local filesystem connector rooted at rootPath.
func New(sourceID, rootPath string) *Connector {
	return &Connector{
		sourceID: sourceID,
		rootPath: rootPath,
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return domain.SourceTypeLocal
}

// SourceID returns the source identifier.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Capabilities returns the connector's capabilities.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsIncremental:  true,
		SupportsWatch:        true,
		SupportsHierarchy:    true,
		RequiresAuth:         false,
		SupportsCursorReturn: true,
	}
}

// Validate checks that the root path exists and is a readable directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(c.rootPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("root path %s does not exist", c.rootPath)
	}
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path %s is not a directory", c.rootPath)
	}
	return nil
}

// FullSync walks the directory tree and emits every visible file.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := c.Validate(ctx); err != nil {
			errs <- err
			return
		}

		err := c.walkFiles(ctx, func(path string, info os.FileInfo) error {
			doc, err := c.readDocument(path, info)
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
		if err != nil && !errors.Is(err, context.Canceled) {
			errs <- err
		}
	}()

	return docs, errs
}

// IncrementalSync emits files modified at or after the cursor timestamp.
// The cursor is a Unix nanosecond timestamp; an empty cursor behaves
// like a full sync. On success a SyncComplete carrying the new cursor
// is sent on the error channel.
func (c *Connector) IncrementalSync(ctx context.Context, state domain.SyncState) (<-chan domain.RawDocumentChange, <-chan error) {
	changes := make(chan domain.RawDocumentChange)
	errs := make(chan error, 1)

	go func() {
		defer close(changes)
		defer close(errs)

		if err := c.Validate(ctx); err != nil {
			errs <- err
			return
		}

		var since time.Time
		if state.Cursor != "" {
			nanos, err := strconv.ParseInt(state.Cursor, 10, 64)
			if err != nil {
				errs <- fmt.Errorf("invalid cursor format %q: %w", state.Cursor, err)
				return
			}
			since = time.Unix(0, nanos)
		}

		syncStart := time.Now()

		err := c.walkFiles(ctx, func(path string, info os.FileInfo) error {
			// Inclusive boundary so files modified at the exact
			// sync time are never missed.
			if info.ModTime().Before(since) {
				return nil
			}
			doc, err := c.readDocument(path, info)
			if err != nil {
				return nil
			}
			change := domain.RawDocumentChange{
				Type:     domain.ChangeUpdated,
				Document: *doc,
			}
			select {
			case changes <- change:
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

		errs <- &driven.SyncComplete{
			NewCursor: strconv.FormatInt(syncStart.UnixNano(), 10),
		}
	}()

	return changes, errs
}

// Watch emits change events for the directory tree until the context is
// cancelled. Subdirectories are watched recursively, including ones
// created while watching.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("connector is closed")
	}
	c.mu.Unlock()

	info, err := os.Stat(c.rootPath)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", c.rootPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.addWatches(watcher, c.rootPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", c.rootPath, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		watcher.Close()
		return nil, fmt.Errorf("connector is closed")
	}
	c.watcher = watcher
	c.mu.Unlock()

	changes := make(chan domain.RawDocumentChange)

	go func() {
		defer close(changes)

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Create != 0 {
					// New directories need their own watches.
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(c.relPath(event.Name)) {
						_ = c.addWatches(watcher, event.Name)
					}
				}
				change := c.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return changes, nil
}

// Close releases the watcher if one is active. Safe to call multiple
// times and from multiple goroutines.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.watcher != nil {
		watcher := c.watcher
		c.watcher = nil
		return watcher.Close()
	}
	return nil
}

// handleFsEvent converts a filesystem event into a document change.
// Returns nil for events that should be ignored (directories, hidden
// files, chmod).
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	if isHidden(c.relPath(event.Name)) {
		return nil
	}

	switch {
	case event.Op&fsnotify.Create != 0, event.Op&fsnotify.Write != 0:
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		doc, err := c.readDocument(event.Name, info)
		if err != nil {
			return nil
		}
		changeType := domain.ChangeUpdated
		if event.Op&fsnotify.Create != 0 {
			changeType = domain.ChangeCreated
		}
		return &domain.RawDocumentChange{Type: changeType, Document: *doc}

	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		return &domain.RawDocumentChange{
			Type: domain.ChangeDeleted,
			Document: domain.RawDocument{
				SourceID: c.sourceID,
				URI:      event.Name,
			},
		}

	default:
		return nil
	}
}

// walkFiles visits every visible regular file under the root.
func (c *Connector) walkFiles(ctx context.Context, fn func(path string, info os.FileInfo) error) error {
	return filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped.
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if isHidden(c.relPath(path)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		return fn(path, info)
	})
}

// addWatches registers the directory and all visible subdirectories
// with the watcher.
func (c *Connector) addWatches(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if isHidden(c.relPath(path)) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// readDocument builds a RawDocument from a file on disk.
func (c *Connector) readDocument(path string, info os.FileInfo) (*domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &domain.RawDocument{
		SourceID:   c.sourceID,
		URI:        path,
		MIMEType:   detectMIMEType(path),
		Content:    content,
		ParentURI:  c.parentURI(path),
		ModifiedAt: info.ModTime(),
		Metadata: map[string]any{
			"filename":  filepath.Base(path),
			"extension": strings.TrimPrefix(filepath.Ext(path), "."),
		},
	}, nil
}

// parentURI returns the containing directory, or nil for files directly
// under the root.
func (c *Connector) parentURI(path string) *string {
	parent := filepath.Dir(path)
	if parent == filepath.Clean(c.rootPath) {
		return nil
	}
	return &parent
}

// relPath returns the path relative to the root, or the path unchanged
// when it is not below the root.
func (c *Connector) relPath(path string) string {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return path
	}
	return rel
}

// mimeByExtension covers extensions the platform MIME database misses
// or reports inconsistently across systems.
var mimeByExtension = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".ts":       "text/typescript",
	".tsx":      "text/typescript-jsx",
	".jsx":      "text/javascript-jsx",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".sh":       "text/x-shellscript",
	".bash":     "text/x-shellscript",
	".sql":      "text/x-sql",
	".txt":      "text/plain",
	".xml":      "application/xml",
	".zip":      "application/zip",
}

// detectMIMEType determines the MIME type from the file extension.
// Extensionless files are treated as plain text. Parameters such as
// charset are stripped.
func detectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "text/plain"
	}

	if mimeType, ok := mimeByExtension[ext]; ok {
		return mimeType
	}

	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		if i := strings.Index(mimeType, ";"); i >= 0 {
			mimeType = mimeType[:i]
		}
		return strings.TrimSpace(mimeType)
	}

	return "application/octet-stream"
}

// isHidden reports whether any component of the path is dot-prefixed.
// The special entries "." and ".." do not count as hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
