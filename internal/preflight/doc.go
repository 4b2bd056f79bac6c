// Package preflight provides readiness checks for the directories and
// external services cinefile depends on.
//
// The CLI "cinefile status" command runs RunAll and prints one line per
// check. Each check is gated by its config toggle; sync is skipped when
// disabled and the TMDB check reports a missing key rather than probing.
package preflight
