// Package server hosts the clipstream REST API behind a single HTTP server.
//
// The server builds a consistent middleware chain of request IDs, auth, rate
// limiting, metrics, audit, CORS, security headers, and logging so handlers
// all share common protections and instrumentation.
package server
