// Package tmdb provides the minimal TMDB API client used to reconcile list
// rows against the movie catalog.
//
// It authenticates requests with an API key and exposes movie search (with an
// optional release-year hint) and movie detail retrieval with credits
// appended. Non-200 responses surface as *StatusError so callers can tell a
// rejected key from a missing record. Options allow tests to supply custom
// HTTP clients without modifying production code.
package tmdb
