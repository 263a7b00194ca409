// Package api implements the NetViz HTTP API.
//
// New returns a Handler that serves:
//
//	GET  /api/v1/stats                    dashboard aggregate plus the first networks
//	GET  /api/v1/networks                 filtered, paginated network list
//	GET  /api/v1/search                   lookup by ASN or name
//	GET  /api/v1/network-types            {labels, data} by info_type
//	GET  /api/v1/policy-types             {labels, data} by policy_general
//	GET  /api/v1/scopes                   {labels, data} by info_scope
//	GET  /api/v1/prefixes-distribution    first networks with both prefix counts
//	GET  /api/v1/ix-facility-correlation  IX count vs facility count points
//	GET  /api/v1/status                   snapshot generation and last refresh
//	GET  /api/v1/alerts                   firing and recently resolved alerts
//	POST /api/v1/refresh                  run a refresh cycle now (admin)
//	GET  /healthz                         liveness
//
// Every handler reads one snapshot handle from the store and computes its
// response from it alone. Responses are JSON.
package api
