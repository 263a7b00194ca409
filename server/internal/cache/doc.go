// Package cache reads the on-disk PeeringDB dataset into network records and
// watches the file for out-of-band rewrites.
package cache
