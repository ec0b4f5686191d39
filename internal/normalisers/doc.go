// Package normalisers provides implementations of the Normaliser interface
// for the formats connectors emit: markdown (with front matter), HTML
// (wiki page bodies), and plain text as the fallback. Each normaliser
// knows how to extract searchable text from a specific MIME type.
//
// Normalisers are registered with the NormaliserRegistry at startup.
package normalisers
