// Package oauth implements the OAuth resource-server gate in front of the
// MCP endpoint.
//
// The server does not act as an OAuth provider: clients bring Google-issued
// Bearer tokens, which the middleware validates against Google's userinfo
// endpoint. Validated user identity and token are injected into the request
// context for tool handlers, and cached in an in-memory store so subsequent
// Google Ads calls can reuse them. The package also serves the RFC 9728
// protected-resource metadata that points clients at the authorization
// server, applies per-IP token-bucket rate limiting, and handles token
// revocation.
//
// Callback parsing and silent-authentication error classification are
// delegated to github.com/giantswarm/mcp-oauth (see silent_auth.go).
package oauth
