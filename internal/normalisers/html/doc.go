// Package html provides a Normaliser implementation for HTML documents,
// chiefly the page bodies the wiki connectors emit. It extracts readable
// text content from HTML, stripping tags, scripts, styles, and decoding
// entities for clean searchable content.
package html
