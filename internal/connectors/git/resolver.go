package git

import "strings"

// ResolveWebURL builds a browseable URL for a repository relative path
// from the repository and branch recorded in the document metadata.
// Only http(s) remotes resolve; ssh remotes return "".
func ResolveWebURL(uri string, metadata map[string]any) string {
	repoURL, _ := metadata["repository"].(string)
	if repoURL == "" {
		return ""
	}
	if !strings.HasPrefix(repoURL, "http://") && !strings.HasPrefix(repoURL, "https://") {
		return ""
	}

	branch, _ := metadata["branch"].(string)
	if branch == "" {
		branch = "HEAD"
	}

	base := strings.TrimSuffix(strings.TrimSuffix(repoURL, "/"), ".git")
	return base + "/blob/" + branch + "/" + strings.TrimPrefix(uri, "/")
}
