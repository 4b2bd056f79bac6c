// Package aggregate builds the cross-list view of every ranked list.
//
// Engine groups memberships by movie, scores each movie by the mean of its
// normalized positions (rank / item count) across contributing lists, and
// joins cached movie records, synthesizing "#<id>" placeholders for cache
// misses. Backfill fetches missing details in small batches and keeps an
// in-flight set so the same id is never fetched twice at once.
package aggregate
