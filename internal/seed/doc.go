// Package seed loads the bundled reference lists on first run.
//
// Seeding is gated by a persisted completion flag and by the store holding
// no lists. A file lock in the data directory serializes seeders across
// processes. Each reference list is built through the import pipeline, or
// has its memberships rebuilt when the list exists but is empty. Absent
// optional assets are skipped.
package seed
