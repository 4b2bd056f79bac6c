// Package notifications pushes short status messages to an ntfy topic when
// imports, seeding or sync finish. Without a configured topic every call is
// a no-op, so callers never need to check whether pushes are enabled.
package notifications
