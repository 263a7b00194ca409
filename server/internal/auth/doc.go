// Package auth provides HTTP middleware that guards admin endpoints with a
// shared API key.
//
// APIKey(mode, header, key) passes every request through when mode is not
// "apikey" or no key is configured, which keeps local development simple.
// Otherwise a missing or wrong key is rejected with 401 before the wrapped
// handler runs.
package auth
