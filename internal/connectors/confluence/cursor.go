package confluence

import (
	"encoding/base64"
	"encoding/json"
)

// CursorVersion is the current cursor schema version.
const CursorVersion = 1

// Cursor tracks the synced version of every page across the configured
// spaces. Serialized as base64-encoded JSON.
type Cursor struct {
	Version int `json:"v"`

	// Pages maps page id to its synced state.
	Pages map[string]PageCursor `json:"pages"`
}

// PageCursor is the synced state of a single page. The space key is
// kept so deletions can be reported with the page's original URI.
type PageCursor struct {
	Version  int    `json:"v"`
	SpaceKey string `json:"space"`
}

// NewCursor creates a new empty cursor.
func NewCursor() *Cursor {
	return &Cursor{
		Version: CursorVersion,
		Pages:   make(map[string]PageCursor),
	}
}

// Encode serializes the cursor to a base64 string.
func (c *Cursor) Encode() string {
	if c == nil {
		return ""
	}
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeCursor deserializes a cursor from a base64 string.
// An empty string returns a fresh cursor.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return NewCursor(), nil
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, ErrInvalidCursor
	}

	if cursor.Pages == nil {
		cursor.Pages = make(map[string]PageCursor)
	}
	return &cursor, nil
}

// GetPage returns the synced state for a page id.
func (c *Cursor) GetPage(id string) (PageCursor, bool) {
	pc, ok := c.Pages[id]
	return pc, ok
}

// SetPage records the synced state for a page id.
func (c *Cursor) SetPage(id, spaceKey string, version int) {
	if c.Pages == nil {
		c.Pages = make(map[string]PageCursor)
	}
	c.Pages[id] = PageCursor{Version: version, SpaceKey: spaceKey}
}
