package oauth

import "time"

const (
	// DefaultCleanupInterval is how often the store removes expired tokens
	DefaultCleanupInterval = 1 * time.Minute

	// DefaultRateLimitCleanupInterval is how often to cleanup inactive rate limiters
	DefaultRateLimitCleanupInterval = 5 * time.Minute

	// InactiveLimiterCleanupWindow is the time after which inactive limiters are removed
	InactiveLimiterCleanupWindow = 10 * time.Minute

	// DefaultRateLimitRate is the default requests per second per IP
	DefaultRateLimitRate = 10

	// DefaultRateLimitBurst is the default burst size for rate limiting
	DefaultRateLimitBurst = 20
)

// GoogleUserinfoEndpoint validates Bearer tokens by resolving them to a user.
const GoogleUserinfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleRevokeEndpoint revokes tokens at Google.
const GoogleRevokeEndpoint = "https://oauth2.googleapis.com/revoke"

// DefaultSupportedScopes are the Google OAuth scopes this server needs: the
// Google Ads API plus basic identity.
var DefaultSupportedScopes = []string{
	"https://www.googleapis.com/auth/adwords",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"openid",
}
