// Package examples serves the catalog of built-in example graphs.
//
// A catalog is a directory of *.json graph payloads. The file stem is the
// example's slug. An optional examples.toml refines titles, Wikipedia links
// and file names:
//
//	[[example]]
//	slug = "Marie_Curie"
//	title = "Marie Curie"
//	wiki_url = "https://en.wikipedia.org/wiki/Marie_Curie"
//	file = "curie.json"
//
// Entries without a title use the slug; entries without a link point to
// https://en.wikipedia.org/wiki/<slug>. Manifest entries whose file does not
// exist are reported by [Catalog.Missing] and left out of [Catalog.List].
package examples
