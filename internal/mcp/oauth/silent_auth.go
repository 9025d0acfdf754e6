package oauth

import (
	oauth "github.com/giantswarm/mcp-oauth"
	"github.com/giantswarm/mcp-oauth/providers"
)

// AuthorizationURLOptions carries optional OIDC parameters for the
// authorization request, such as prompt=none for silent re-authentication
// or login_hint to pre-fill the account chooser.
type AuthorizationURLOptions = providers.AuthorizationURLOptions

// SilentAuthError indicates a silent authentication attempt (prompt=none)
// failed because the IdP requires user interaction. Callers should fall
// back to interactive login.
type SilentAuthError = oauth.SilentAuthError

// CallbackResult holds the parsed query parameters of an OAuth redirect.
// Use Err() to get a typed error, including *SilentAuthError for silent
// authentication failures.
type CallbackResult = oauth.CallbackResult

// IsSilentAuthError reports whether err (or a wrapped error) indicates that
// silent authentication failed and interactive login is required.
func IsSilentAuthError(err error) bool {
	return oauth.IsSilentAuthError(err)
}

// ParseOAuthError parses an OAuth error response. Silent auth failure codes
// produce a *SilentAuthError; other codes a generic error. Returns nil when
// errorCode is empty.
func ParseOAuthError(errorCode, errorDescription string) error {
	return oauth.ParseOAuthError(errorCode, errorDescription)
}

// ParseCallbackQuery builds a CallbackResult from the "code", "state",
// "error", "error_description" and "error_uri" query parameters of an OAuth
// redirect.
func ParseCallbackQuery(code, state, errorCode, errorDescription, errorURI string) *CallbackResult {
	return oauth.ParseCallbackQuery(code, state, errorCode, errorDescription, errorURI)
}

// OAuth error codes for silent authentication failures, per OIDC Core
// Section 3.1.2.6.
const (
	ErrorCodeLoginRequired            = oauth.ErrorCodeLoginRequired
	ErrorCodeConsentRequired          = oauth.ErrorCodeConsentRequired
	ErrorCodeInteractionRequired      = oauth.ErrorCodeInteractionRequired
	ErrorCodeAccountSelectionRequired = oauth.ErrorCodeAccountSelectionRequired
)

// OIDC prompt values for AuthorizationURLOptions.Prompt.
const (
	PromptNone          = "none"
	PromptLogin         = "login"
	PromptConsent       = "consent"
	PromptSelectAccount = "select_account"
)
