// Package catalog reconciles free-text (title, year) pairs with TMDB ids.
//
// Resolver wraps the tmdb client with a search cache and request spacing,
// scores search results with ScoreCandidate, and maps detail payloads onto
// store.Movie. A missing API key is reported as ErrCredentialMissing so
// callers can count the row as unresolved instead of failing.
package catalog
