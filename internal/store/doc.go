// Package store persists movies, ranked lists and list memberships in SQLite.
//
// The Store owns every write. Multi-record changes run inside WithTx so a
// list's membership set and its denormalized item count always commit
// together; RecountList derives the count from live rows inside the same
// transaction. Callers observe committed changes through Subscribe rather
// than polling.
//
// Movie records are a cache of catalog data plus the user's own fields
// (seen, rating, watched date). Catalog merges never overwrite user fields.
//
// Schema changes bump the version in schema.go; users export a backup and
// recreate the database to adopt the new schema.
package store
