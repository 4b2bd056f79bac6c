// Package toplist maintains the auto-generated "Your Top N List" from the
// user's ratings.
package toplist
