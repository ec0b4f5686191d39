// Package confluence implements a connector for Confluence wiki spaces.
//
// Pages are fetched through the Confluence Cloud REST API with basic
// auth (account email plus API token). The connector emits each page's
// storage-format body as HTML after rewriting the macros a plain HTML
// parser would otherwise drop: code macros carry their content in CDATA
// sections, so they become pre/code blocks, and info and warning panels
// become labelled blockquotes. Text extraction happens downstream in the
// html normaliser.
//
// Source configuration accepts the following keys:
//
//   - url: the Confluence site URL, e.g. "https://acme.atlassian.net/wiki".
//     Required; falls back to the global confluence.url setting.
//   - spaces: comma-separated space keys to sync, e.g. "ENG,OPS". Required.
//
// The incremental cursor records every synced page id with its version
// number and space key. Incremental syncs list page versions only,
// fetch full content for new or changed pages, and report pages missing
// from the listings as deletions. Requests are throttled client-side
// and retried on transient failures.
package confluence
