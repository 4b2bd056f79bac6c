// Package importer turns tabular title lists into ranked list memberships.
//
// ParseCSV and ParseJSON normalize column names ("Film", "Pos", "TMDB ID")
// into Records. Pipeline resolves each record through the catalog, using a
// direct tmdb_id when present, counts unresolved rows by reason, and
// replaces the list's membership set in a single store transaction. Movie
// details are fetched after the commit on a best-effort basis.
package importer
