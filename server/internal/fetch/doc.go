// Package fetch downloads PeeringDB endpoint payloads into the local cache
// directory.
//
// Client.Fetch reads the API index, then downloads every endpoint it lists
// (or the configured subset). Each payload is validated as JSON and written
// with a temp-file-and-rename so a failed or partial download never replaces
// a good file. Only a failed index or a failed dataset endpoint makes the
// whole fetch fail; other endpoint failures are logged and reported in Result.
package fetch
