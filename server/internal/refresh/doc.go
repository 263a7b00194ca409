// Package refresh keeps the store current.
//
// A Trigger runs refresh cycles: fetch the remote data, load the cache file,
// build a new snapshot and swap it into the store. All I/O happens before the
// swap, so the store's exclusive section is a pointer assignment. A failed
// step aborts the cycle and leaves the previous snapshot in place.
//
// Cycles come from three places: the cron schedule started by Start, manual
// requests through RunOnce, and cache file changes through Reload. At most
// one cycle runs at a time; a request that finds another cycle in flight
// returns ErrBusy instead of queueing.
package refresh
