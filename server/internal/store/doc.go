// Package store holds the single live network snapshot. Readers take the
// current *types.Snapshot under a shared lock and keep using it after the
// lock is released; Replace swaps in a new snapshot under the exclusive lock.
// Snapshots are immutable, so a reader never observes a half-applied refresh.
package store
