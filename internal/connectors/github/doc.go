// Package github implements a connector for GitHub repositories.
//
// The connector indexes documentation content: repository files matching
// configurable patterns (markdown and friends by default) and wiki pages.
// It covers either an explicit repository list or every repository the
// authenticated token can access, including owned, collaborator, and
// organisation member repositories.
//
// # Architecture
//
// The connector follows the driven port pattern defined in [driven.Connector].
// It comprises the following components:
//
//   - Connector: orchestrates sync operations and manages lifecycle
//   - Client: handles GitHub API communication with rate limiting
//   - Config: parses and validates source configuration
//   - Cursor: tracks incremental sync state per repository
//
// # Authentication
//
// A personal access token is read from the source credentials. Classic or
// fine-grained tokens created at github.com/settings/tokens both work;
// private repositories require the 'repo' scope. Authenticated requests
// get 5,000 API calls per hour. Unauthenticated access is not supported.
//
// # Configuration
//
// Source configuration accepts the following keys:
//
//   - repos: comma-separated owner/name list limiting the sync scope.
//     Default: every accessible repository (minus archived, forked, and
//     disabled ones).
//
//   - content_types: comma-separated list of content to index.
//     Valid values: files, wikis. Default: both.
//
//   - file_patterns: comma-separated glob patterns for file filtering.
//     Example: "*.md,*.txt". Default: documentation files
//     (*.md, *.markdown, *.mdx, *.rst, *.adoc, *.txt).
//
// # Rate Limiting
//
// The connector implements a dual-strategy rate limiting approach:
//
//  1. Proactive throttling: a token bucket limits requests to roughly
//     1.2 per second, staying under the 5,000/hour quota.
//
//  2. Reactive handling: the connector tracks X-RateLimit-Remaining and
//     X-RateLimit-Reset headers and waits for the reset once the
//     remaining quota drops below a reserve buffer.
//
// # Sync Operations
//
// Full sync walks each repository's tree using the recursive Trees API,
// fetches blob content for matching files, and reads wiki pages through
// the {repo}.wiki git repository. The completion cursor records the tree
// SHA and wiki commit SHA per repository.
//
// Incremental sync compares the stored SHAs against the current ones and
// refetches only repositories that changed. Changed repositories emit all
// their current files as updates.
//
// A full sync aborts on the first repository failure so that its output is
// always a complete listing; incremental sync skips failed repositories
// and retries them on the next run.
//
// # Document Structure
//
// Documents are emitted with the following URI patterns:
//
//   - Files: github://{owner}/{repo}/blob/{branch}/{path}
//   - Wiki Pages: github://{owner}/{repo}/wiki/{page}
//
// Metadata includes the repository, branch, path or page title, blob SHA,
// and the html_url for browser access.
//
// # Limitations
//
//   - Binary files are not indexed (text content only)
//   - File size limit: 1MB per file (GitHub API constraint)
//   - Watch mode is not supported (no webhook integration in CLI)
//   - Upstream deletions are only reconciled by the next full sync,
//     since a changed tree is refetched wholesale rather than diffed
//   - ModifiedAt carries the repository's last push time, not the
//     per-file commit time, to avoid one commit lookup per file
//
// # Example Usage
//
//	cfg, _ := github.ParseConfig(source)
//	connector := github.New(source.ID, cfg, creds)
//
//	if err := connector.Validate(ctx); err != nil {
//	    return err
//	}
//
//	docs, errs := connector.FullSync(ctx)
//	for doc := range docs {
//	    // Process document
//	}
package github
