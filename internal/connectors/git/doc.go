// Package git implements a connector for plain git repositories.
//
// Unlike the github connector it speaks the git protocol directly and
// works against any host (GitLab, Gitea, Bitbucket, bare servers). The
// repository is cloned into a per-source cache directory and pulled on
// every sync; a cache that cannot be updated is wiped and cloned again.
//
// Only markdown files under the configured docs path are emitted. Each
// document carries the last commit that touched it: author name, commit
// time, full and abbreviated hashes.
//
// Source configuration accepts the following keys:
//
//   - url: clone URL, required. http(s) and ssh remotes are accepted,
//     though web links only resolve for http(s).
//   - branch: branch to sync. Default: the remote default branch.
//   - docs_path: subdirectory to scan, "." for the whole repository.
//     Default: "docs".
//   - cache_dir: local clone location. Default: the user cache dir.
//
// The incremental cursor is the HEAD commit hash. Syncs diff the cursor
// commit against the new HEAD and emit only changed documents; when the
// cursor no longer resolves (force push, history rewrite) the connector
// falls back to emitting everything.
package git
