// Package server provides the shared runtime state and HTTP transports for
// the Google Ads MCP server.
//
// ServerContext is the dependency container handed to every tool handler.
// It is assembled with functional options (user token store, credential
// resolver, secret writer, instrumentation) and caches Google Ads API
// clients keyed by a fingerprint of the resolved credentials, so repeated
// tool calls for the same identity reuse one HTTP client.
//
// OAuthHTTPServer exposes the MCP server over SSE or streamable HTTP behind
// a Google OAuth resource-server gate: it serves RFC 9728 Protected Resource
// Metadata, validates Bearer tokens against Google's userinfo endpoint, rate
// limits per client IP, and hosts the /register and /oauth/revoke endpoints
// for user onboarding and token revocation. MetricsServer serves the
// Prometheus scrape endpoint, and HealthChecker provides Kubernetes
// liveness and readiness probes including a token store ping.
package server
