package confluence

import (
	"fmt"
	"strings"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// pageDocument converts a Confluence page into a raw document. The
// storage-format body stays HTML after macro rewriting; the html
// normaliser extracts the text at normalise time.
func pageDocument(baseURL, spaceKey string, page *Page) domain.RawDocument {
	doc := domain.RawDocument{
		URI:        buildPageURI(spaceKey, page.ID),
		MIMEType:   "text/html",
		Content:    []byte(processMacros(page.Body.Storage.Value)),
		ParentURI:  parentURI(spaceKey, page.Ancestors),
		Author:     page.Version.By.DisplayName,
		ModifiedAt: page.Version.When,
		Metadata: map[string]any{
			"space":   spaceKey,
			"page_id": page.ID,
			"title":   page.Title,
			"version": page.Version.Number,
			"path":    pagePath(page),
		},
	}

	if page.Links.WebUI != "" {
		doc.Metadata["web_url"] = baseURL + page.Links.WebUI
	}

	return doc
}

// buildPageURI creates a URI for a page.
func buildPageURI(spaceKey, id string) string {
	return fmt.Sprintf("confluence://%s/%s", spaceKey, id)
}

// parentURI points at the immediate ancestor, when there is one.
// Confluence returns ancestors ordered root first.
func parentURI(spaceKey string, ancestors []Ancestor) *string {
	if len(ancestors) == 0 {
		return nil
	}
	parent := buildPageURI(spaceKey, ancestors[len(ancestors)-1].ID)
	return &parent
}

// pagePath joins the ancestor titles with the page title, giving the
// page's place in the space tree.
func pagePath(page *Page) string {
	parts := make([]string, 0, len(page.Ancestors)+1)
	for _, ancestor := range page.Ancestors {
		if ancestor.Title != "" {
			parts = append(parts, ancestor.Title)
		}
	}
	parts = append(parts, page.Title)
	return strings.Join(parts, "/")
}
