package creds

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ryzeagent/adsmcp/internal/logging"
	"github.com/ryzeagent/adsmcp/internal/secrets"
)

// Bundle is the normalized set of fields needed to authenticate one outbound
// Google Ads call. It is request-scoped: constructed fresh per call and never
// persisted.
type Bundle struct {
	DeveloperToken  string
	ClientID        string
	ClientSecret    string
	AccessToken     string
	RefreshToken    string
	LoginCustomerID string
}

// TokenReader is the resolver's view of the user token store. The read is
// fail-open: a missing user yields two empty tokens, never an error.
type TokenReader interface {
	GetTokens(ctx context.Context, userID string) (accessToken, refreshToken string)
}

// Defaults are server-level credentials from flags/environment, used where
// the payload and secret provide nothing.
type Defaults struct {
	DeveloperToken  string
	ClientID        string
	ClientSecret    string
	LoginCustomerID string
}

// secretFields is the JSON object shape a secret payload may carry. A secret
// that is not valid JSON is treated as a raw refresh token.
type secretFields struct {
	AccessToken    string `json:"access_token"`
	RefreshToken   string `json:"refresh_token"`
	ClientID       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
	DeveloperToken string `json:"developer_token"`
}

// Resolver turns a decoded auth Payload into a Bundle. There is exactly one
// resolution path for all callers; its only side effect is the optional
// secret-store read.
type Resolver struct {
	Secrets  secrets.Resolver
	Users    TokenReader
	Defaults Defaults
	Logger   *slog.Logger
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Resolve builds the credential bundle for one request. Explicit payload
// fields override secret-resolved fields, which override server defaults.
func (r *Resolver) Resolve(ctx context.Context, p Payload) (*Bundle, error) {
	b := &Bundle{
		DeveloperToken:  p.DeveloperToken,
		ClientID:        p.ClientID,
		ClientSecret:    p.ClientSecret,
		AccessToken:     p.AccessToken,
		RefreshToken:    p.RefreshToken,
		LoginCustomerID: p.LoginCustomerID,
	}

	switch p.Kind {
	case KindRefreshToken, KindAccessToken:
		// Tokens already copied from the payload.
	case KindSecretRef:
		if err := r.mergeSecret(ctx, p.SecretRef, b); err != nil {
			return nil, err
		}
	case KindUserID:
		access, refresh := r.Users.GetTokens(ctx, p.UserID)
		if access == "" && refresh == "" {
			return nil, fmt.Errorf("resolving user %q: %w", p.UserID, ErrUserNotFound)
		}
		b.AccessToken = access
		b.RefreshToken = refresh
	default:
		return nil, ErrMissingCredential
	}

	if b.DeveloperToken == "" {
		b.DeveloperToken = r.Defaults.DeveloperToken
	}
	if b.ClientID == "" {
		b.ClientID = r.Defaults.ClientID
	}
	if b.ClientSecret == "" {
		b.ClientSecret = r.Defaults.ClientSecret
	}
	if b.LoginCustomerID == "" {
		b.LoginCustomerID = r.Defaults.LoginCustomerID
	}

	if b.AccessToken == "" && b.RefreshToken == "" {
		return nil, fmt.Errorf("payload kind %s resolved to no tokens: %w", p.Kind, ErrMissingCredential)
	}
	if b.DeveloperToken == "" {
		return nil, ErrMissingDeveloperToken
	}
	// A bundle that will exchange its refresh token needs a complete OAuth
	// client. A bundle that already holds an access token does not.
	if b.AccessToken == "" && (b.ClientID == "" || b.ClientSecret == "") {
		return nil, ErrIncompleteOAuthClient
	}

	r.logger().Debug("credential bundle resolved",
		logging.Operation("creds.resolve"),
		slog.String("payload_kind", p.Kind.String()),
		slog.Bool("has_access_token", b.AccessToken != ""),
		slog.Bool("has_refresh_token", b.RefreshToken != ""))
	return b, nil
}

// mergeSecret resolves a secret reference and merges its fields into the
// bundle as defaults; fields already set from the payload are kept.
func (r *Resolver) mergeSecret(ctx context.Context, ref string, b *Bundle) error {
	if r.Secrets == nil {
		return &SecretResolutionError{Ref: ref, Err: secrets.ErrNotFound}
	}
	data, err := r.Secrets.Resolve(ctx, ref)
	if err != nil {
		resErr := &SecretResolutionError{Ref: ref, Err: err}
		r.logger().Error("secret resolution failed",
			logging.Operation("creds.resolve_secret"),
			slog.Bool("not_found", resErr.NotFound()),
			logging.Err(err))
		return resErr
	}

	var fields secretFields
	if json.Unmarshal(data, &fields) != nil {
		// Raw payloads are refresh tokens.
		fields = secretFields{RefreshToken: strings.TrimSpace(string(data))}
	}

	if b.AccessToken == "" {
		b.AccessToken = fields.AccessToken
	}
	if b.RefreshToken == "" {
		b.RefreshToken = fields.RefreshToken
	}
	if b.ClientID == "" {
		b.ClientID = fields.ClientID
	}
	if b.ClientSecret == "" {
		b.ClientSecret = fields.ClientSecret
	}
	if b.DeveloperToken == "" {
		b.DeveloperToken = fields.DeveloperToken
	}
	return nil
}
