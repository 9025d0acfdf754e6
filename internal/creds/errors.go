package creds

import (
	"errors"
	"fmt"

	"github.com/ryzeagent/adsmcp/internal/secrets"
)

// Resolution failures are caller-facing and terminal: the request is
// rejected, nothing is retried.
var (
	// ErrMissingCredential reports an auth payload matching none of the
	// supported shapes.
	ErrMissingCredential = errors.New("auth payload carries no usable credential")

	// ErrMissingDeveloperToken reports that no developer token was found in
	// the payload, the resolved secret, or server configuration.
	ErrMissingDeveloperToken = errors.New("no developer token available")

	// ErrIncompleteOAuthClient reports a refresh-token flow without the
	// OAuth client id/secret needed to exchange it.
	ErrIncompleteOAuthClient = errors.New("refresh token flow requires oauth client id and secret")

	// ErrUserNotFound reports a user_id payload whose user has no stored
	// tokens.
	ErrUserNotFound = errors.New("no stored tokens for user")
)

// SecretResolutionError wraps a failed secret-store read, distinguishing a
// dangling reference from a generic fetch failure via NotFound.
type SecretResolutionError struct {
	Ref string
	Err error
}

func (e *SecretResolutionError) Error() string {
	return fmt.Sprintf("resolving secret %q: %v", e.Ref, e.Err)
}

func (e *SecretResolutionError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the underlying failure was a missing secret.
func (e *SecretResolutionError) NotFound() bool {
	return errors.Is(e.Err, secrets.ErrNotFound)
}
