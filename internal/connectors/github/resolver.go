package github

import (
	"net/url"
	"strings"
)

// ResolveWebURL converts a GitHub URI to a web URL.
// github://owner/repo/blob/branch/path -> https://github.com/owner/repo/blob/branch/path
// Path segments are escaped so file names with spaces or hashes survive
// as links.
func ResolveWebURL(uri string, _ map[string]any) string {
	if !strings.HasPrefix(uri, "github://") {
		return ""
	}
	segments := strings.Split(strings.TrimPrefix(uri, "github://"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "https://github.com/" + strings.Join(segments, "/")
}
