// Package types defines the Go types shared by every netviz component.
// These are the canonical in-memory representations of PeeringDB network
// records and of the immutable snapshots the store hands out to readers.
package types
