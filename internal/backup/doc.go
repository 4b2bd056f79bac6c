// Package backup exports and restores the local store as one JSON document
// holding movies, lists and list items.
package backup
