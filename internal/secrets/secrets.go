// Package secrets abstracts the external secret store that holds per-user
// refresh tokens. Production use goes through Google Secret Manager; tests
// substitute the Resolver interface.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports that a secret reference resolved to nothing. Callers
// distinguish it from transient fetch failures via errors.Is.
var ErrNotFound = errors.New("secret not found")

// Resolver fetches the payload behind an opaque secret reference. A single
// call, no retries; any failure is terminal for the triggering request.
type Resolver interface {
	Resolve(ctx context.Context, name string) ([]byte, error)
}

// userSecretPrefix is the naming scheme for per-user refresh token secrets.
const userSecretPrefix = "user-refresh-token-"

// UserSecretID returns the secret id under which a user's refresh token is
// stored.
func UserSecretID(userID string) string {
	return userSecretPrefix + userID
}

// VersionName builds the fully qualified latest-version resource name for a
// secret id within a project. References that already look fully qualified
// pass through unchanged.
func VersionName(projectID, ref string) string {
	if strings.HasPrefix(ref, "projects/") {
		if strings.Contains(ref, "/versions/") {
			return ref
		}
		return ref + "/versions/latest"
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, ref)
}
