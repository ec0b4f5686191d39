package confluence

// ResolveWebURL returns the browser URL recorded for a page. Confluence
// URIs carry the space key and page id, not the site, so the web link is
// taken from the document metadata written at sync time.
func ResolveWebURL(_ string, metadata map[string]any) string {
	if link, ok := metadata["web_url"].(string); ok {
		return link
	}
	return ""
}
