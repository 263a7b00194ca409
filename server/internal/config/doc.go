// Package config loads the netviz server configuration from a YAML file.
//
// Config fields:
//   - Server.BindAddress    listen address for the HTTP API (default 0.0.0.0:8201, env BIND_ADDRESS)
//   - Server.Auth           API key protection for admin endpoints (mode apikey|none)
//   - Server.StreamInterval websocket broadcast period (default 30s)
//   - Refresh.Schedule      six-field cron expression, seconds first (default "0 0 0 * * *", env REFRESH_CRON)
//   - Fetch.*               PeeringDB API location, cache directory, timeout and credential
//   - Cache.Watch           reload when the dataset file changes on disk (default true)
//   - Notify.*              refresh failure webhooks
//   - Log.Level             debug|info|warn|error (default info)
//
// Load(path) applies defaults, unmarshals, applies environment overrides, then
// validates. A missing file is not an error: the defaults are used.
// The refresh schedule is not validated here; an unparseable
// schedule only disables auto-refresh.
package config
