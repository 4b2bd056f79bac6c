// Package logs tails the cinefile log file with bounded memory.
//
// It supports "last N lines" reads, resuming from a byte offset and polling
// for new lines in follow mode. Substring filters let `cinefile logs --run`
// narrow output to one import or seed run.
package logs
