package common

import (
	"context"
	"fmt"

	"github.com/ryzeagent/adsmcp/internal/ads"
	"github.com/ryzeagent/adsmcp/internal/creds"
	"github.com/ryzeagent/adsmcp/internal/mcp/oauth"
	"github.com/ryzeagent/adsmcp/internal/server"
)

// AuthPayload builds the credential payload for a tool call.
//
// Priority order:
//  1. Explicit "auth" object in the request arguments
//  2. OAuth-authenticated user from the request context (set by the Bearer
//     middleware); the Google user id keys the persistent token store
func AuthPayload(ctx context.Context, args map[string]any) (creds.Payload, error) {
	if raw, ok := args["auth"].(map[string]any); ok && len(raw) > 0 {
		return creds.DecodePayload(raw)
	}

	if userID, ok := UserIDFromContext(ctx); ok {
		return creds.Payload{Kind: creds.KindUserID, UserID: userID}, nil
	}

	return creds.Payload{}, fmt.Errorf("no auth argument and no authenticated user: %w", creds.ErrMissingCredential)
}

// UserIDFromContext returns the Google user id of the OAuth-authenticated
// caller, when the request came through the Bearer middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userInfo, ok := oauth.GetUserFromContext(ctx)
	if !ok || userInfo == nil || userInfo.Sub == "" {
		return "", false
	}
	return userInfo.Sub, true
}

// UserEmailFromContext returns the email of the OAuth-authenticated caller,
// used for audit logging only.
func UserEmailFromContext(ctx context.Context) string {
	if userInfo, ok := oauth.GetUserFromContext(ctx); ok && userInfo != nil {
		return userInfo.Email
	}
	return ""
}

// AdsClientForRequest resolves the request's credentials and returns a Google
// Ads client for them. The resolved bundle stays request-scoped; only the
// derived client is cached inside the server context.
func AdsClientForRequest(ctx context.Context, sc *server.ServerContext, args map[string]any) (*ads.Client, error) {
	resolver := sc.CredentialResolver()
	if resolver == nil {
		return nil, fmt.Errorf("credential resolver is not configured")
	}

	payload, err := AuthPayload(ctx, args)
	if err != nil {
		return nil, err
	}

	bundle, err := resolver.Resolve(ctx, payload)
	if err != nil {
		return nil, err
	}

	return sc.AdsClient(bundle)
}
