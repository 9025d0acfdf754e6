package creds

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryzeagent/adsmcp/internal/secrets"
)

type fakeSecrets map[string][]byte

func (f fakeSecrets) Resolve(_ context.Context, name string) ([]byte, error) {
	data, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("accessing %s: %w", name, secrets.ErrNotFound)
	}
	return data, nil
}

type failingSecrets struct{}

func (failingSecrets) Resolve(context.Context, string) ([]byte, error) {
	return nil, errors.New("rpc deadline exceeded")
}

type fakeTokens map[string][2]string

func (f fakeTokens) GetTokens(_ context.Context, userID string) (string, string) {
	pair := f[userID]
	return pair[0], pair[1]
}

func testResolver() *Resolver {
	return &Resolver{
		Secrets: fakeSecrets{
			"raw-secret":  []byte("RT-from-secret"),
			"json-secret": []byte(`{"refresh_token":"RT-json","client_id":"CID-json","client_secret":"CSEC-json","developer_token":"DEV-json"}`),
		},
		Users: fakeTokens{
			"u1": {"AT-u1", "RT-u1"},
		},
		Defaults: Defaults{
			DeveloperToken: "DEV-default",
			ClientID:       "CID-default",
			ClientSecret:   "CSEC-default",
		},
	}
}

func TestResolveRefreshToken(t *testing.T) {
	b, err := testResolver().Resolve(context.Background(), Payload{Kind: KindRefreshToken, RefreshToken: "RT"})
	require.NoError(t, err)
	assert.Equal(t, "RT", b.RefreshToken)
	assert.Empty(t, b.AccessToken)
	assert.Equal(t, "DEV-default", b.DeveloperToken)
	assert.Equal(t, "CID-default", b.ClientID)
	assert.Equal(t, "CSEC-default", b.ClientSecret)
}

func TestResolveAccessToken(t *testing.T) {
	// An access-token flow needs no OAuth client, even with empty defaults.
	r := &Resolver{Defaults: Defaults{DeveloperToken: "DEV"}}
	b, err := r.Resolve(context.Background(), Payload{Kind: KindAccessToken, AccessToken: "AT"})
	require.NoError(t, err)
	assert.Equal(t, "AT", b.AccessToken)
	assert.Empty(t, b.RefreshToken)
}

func TestResolveRawSecret(t *testing.T) {
	b, err := testResolver().Resolve(context.Background(), Payload{Kind: KindSecretRef, SecretRef: "raw-secret"})
	require.NoError(t, err)
	assert.Equal(t, "RT-from-secret", b.RefreshToken)
	assert.Equal(t, "DEV-default", b.DeveloperToken)
}

func TestResolveJSONSecret(t *testing.T) {
	b, err := testResolver().Resolve(context.Background(), Payload{Kind: KindSecretRef, SecretRef: "json-secret"})
	require.NoError(t, err)
	assert.Equal(t, "RT-json", b.RefreshToken)
	// Secret-resolved fields beat server defaults.
	assert.Equal(t, "DEV-json", b.DeveloperToken)
	assert.Equal(t, "CID-json", b.ClientID)
	assert.Equal(t, "CSEC-json", b.ClientSecret)
}

func TestExplicitFieldsBeatSecretFields(t *testing.T) {
	b, err := testResolver().Resolve(context.Background(), Payload{
		Kind:           KindSecretRef,
		SecretRef:      "json-secret",
		DeveloperToken: "DEV-explicit",
		ClientID:       "CID-explicit",
	})
	require.NoError(t, err)
	assert.Equal(t, "DEV-explicit", b.DeveloperToken)
	assert.Equal(t, "CID-explicit", b.ClientID)
	// Fields without an explicit value still come from the secret.
	assert.Equal(t, "CSEC-json", b.ClientSecret)
	assert.Equal(t, "RT-json", b.RefreshToken)
}

func TestResolveUserID(t *testing.T) {
	b, err := testResolver().Resolve(context.Background(), Payload{Kind: KindUserID, UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "AT-u1", b.AccessToken)
	assert.Equal(t, "RT-u1", b.RefreshToken)
}

func TestResolveUnknownUser(t *testing.T) {
	_, err := testResolver().Resolve(context.Background(), Payload{Kind: KindUserID, UserID: "ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResolveSecretNotFound(t *testing.T) {
	_, err := testResolver().Resolve(context.Background(), Payload{Kind: KindSecretRef, SecretRef: "missing"})
	require.Error(t, err)

	var resErr *SecretResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.True(t, resErr.NotFound())
	assert.Equal(t, "missing", resErr.Ref)
}

func TestResolveSecretFetchFailure(t *testing.T) {
	r := testResolver()
	r.Secrets = failingSecrets{}

	_, err := r.Resolve(context.Background(), Payload{Kind: KindSecretRef, SecretRef: "any"})
	require.Error(t, err)

	var resErr *SecretResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.False(t, resErr.NotFound())
}

func TestResolveMissingDeveloperToken(t *testing.T) {
	r := &Resolver{}
	_, err := r.Resolve(context.Background(), Payload{Kind: KindAccessToken, AccessToken: "AT"})
	assert.ErrorIs(t, err, ErrMissingDeveloperToken)
}

func TestResolveIncompleteOAuthClient(t *testing.T) {
	r := &Resolver{Defaults: Defaults{DeveloperToken: "DEV"}}
	_, err := r.Resolve(context.Background(), Payload{Kind: KindRefreshToken, RefreshToken: "RT"})
	assert.ErrorIs(t, err, ErrIncompleteOAuthClient)
}

func TestResolveNoPayload(t *testing.T) {
	_, err := testResolver().Resolve(context.Background(), Payload{})
	assert.ErrorIs(t, err, ErrMissingCredential)
}
