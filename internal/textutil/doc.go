// Package textutil provides the small text transforms shared by the catalog
// resolver, importer and CLI.
//
// The primary use cases are:
//   - Normalizing movie titles for exact-match comparison
//   - Deriving URL-safe list ids from display names
//   - Normalizing tabular header names to lower_snake keys
//   - Turning an import file name into a readable list name
package textutil
