// Package cloudsync mirrors the local store to a Postgres database.
//
// Each record kind lives in its own table keyed by (user_id, id) with the
// record stored as a JSON document. Pull applies remote rows locally and
// Push upserts local rows in batches; conflicts resolve last-write-wins.
package cloudsync
