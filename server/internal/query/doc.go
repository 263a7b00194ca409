// Package query answers list, search and aggregation requests against one
// snapshot.
//
// Every function takes a *types.Snapshot obtained from the store and treats it
// as read-only, so any number of goroutines may query the same snapshot at
// once. None of them fail: missing or malformed parameters fall back to the
// defaults documented on ListParams and SearchParams.
//
// Optional record fields are never coerced. A record without a category is
// left out of the category counts; a record missing either prefix count is
// left out of the prefix distribution.
package query
