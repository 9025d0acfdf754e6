package oauth

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds the resource-server gate configuration.
type Config struct {
	// Resource is the MCP server resource identifier for RFC 8707; the base
	// URL of this server.
	Resource string

	// AuthorizationServers lists the authorization servers clients should
	// use to obtain Google tokens. Defaults to the resource itself.
	AuthorizationServers []string

	// SupportedScopes are the Google API scopes this resource understands.
	// Defaults to DefaultSupportedScopes.
	SupportedScopes []string

	// UserinfoEndpoint is where Bearer tokens are validated. Defaults to
	// Google's userinfo endpoint; tests point it at a local server.
	UserinfoEndpoint string

	// RevokeEndpoint is where tokens are revoked upstream. Defaults to
	// Google's revocation endpoint.
	RevokeEndpoint string

	// RateLimit configures per-IP token-bucket rate limiting.
	RateLimit RateLimitConfig

	// CleanupInterval is how often the token store drops expired entries.
	// Default: 1 minute.
	CleanupInterval time.Duration

	// Logger for structured logging (optional, uses default if not provided)
	Logger *slog.Logger

	// HTTPClient is used for outbound validation and revocation calls.
	// Defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	// Rate is the number of requests per second allowed per IP (0 = no limit)
	Rate int

	// Burst is the maximum burst size allowed per IP
	Burst int

	// CleanupInterval is how often to cleanup inactive rate limiters.
	// Default: 5 minutes.
	CleanupInterval time.Duration

	// TrustProxy indicates whether to trust X-Forwarded-For and X-Real-IP
	// headers. Only set behind a trusted proxy. Default: false.
	TrustProxy bool
}
