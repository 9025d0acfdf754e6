// Package creds normalizes the many ways a caller can authenticate a Google
// Ads request into one credential bundle.
//
// Tool calls may supply a refresh token, an access token, a secret-store
// reference, or a stored user id; DecodePayload picks exactly one shape in
// that precedence order, and Resolver merges it with secret-resolved fields
// and server defaults. Explicit fields always win. The resolver has a single
// optional side effect (the secret read) and never retries: every failure is
// terminal for the triggering request.
package creds
