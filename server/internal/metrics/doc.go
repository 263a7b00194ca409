// Package metrics exposes snapshot and refresh metrics in the Prometheus
// exposition format. Snapshot gauges are computed from the live store at
// scrape time; refresh counters are fed by the refresh.Observer hook.
package metrics
