package common

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/oauth2"

	"github.com/ryzeagent/adsmcp/internal/creds"
	"github.com/ryzeagent/adsmcp/internal/mcp/oauth"
)

func contextWithTestUser(sub, email string) context.Context {
	userInfo := &oauth.GoogleUserInfo{Sub: sub, Email: email}
	token := &oauth2.Token{AccessToken: "ya29.test"}
	return oauth.ContextWithUser(context.Background(), userInfo, token)
}

func TestAuthPayloadExplicitAuth(t *testing.T) {
	args := map[string]any{
		"auth": map[string]any{"refresh_token": "1//refresh"},
	}

	payload, err := AuthPayload(context.Background(), args)
	if err != nil {
		t.Fatalf("AuthPayload() error = %v", err)
	}
	if payload.Kind != creds.KindRefreshToken {
		t.Errorf("kind = %v, want %v", payload.Kind, creds.KindRefreshToken)
	}
	if payload.RefreshToken != "1//refresh" {
		t.Errorf("refresh token = %q", payload.RefreshToken)
	}
}

func TestAuthPayloadExplicitAuthWinsOverContext(t *testing.T) {
	ctx := contextWithTestUser("user-123", "alice@example.com")
	args := map[string]any{
		"auth": map[string]any{"access_token": "ya29.explicit"},
	}

	payload, err := AuthPayload(ctx, args)
	if err != nil {
		t.Fatalf("AuthPayload() error = %v", err)
	}
	if payload.Kind != creds.KindAccessToken {
		t.Errorf("kind = %v, want %v", payload.Kind, creds.KindAccessToken)
	}
}

func TestAuthPayloadOAuthFallback(t *testing.T) {
	ctx := contextWithTestUser("user-123", "alice@example.com")

	payload, err := AuthPayload(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("AuthPayload() error = %v", err)
	}
	if payload.Kind != creds.KindUserID {
		t.Errorf("kind = %v, want %v", payload.Kind, creds.KindUserID)
	}
	if payload.UserID != "user-123" {
		t.Errorf("user id = %q, want %q", payload.UserID, "user-123")
	}
}

func TestAuthPayloadMissing(t *testing.T) {
	_, err := AuthPayload(context.Background(), map[string]any{})
	if !errors.Is(err, creds.ErrMissingCredential) {
		t.Errorf("error = %v, want ErrMissingCredential", err)
	}
}

func TestAuthPayloadUnrecognizedAuthObject(t *testing.T) {
	args := map[string]any{
		"auth": map[string]any{"password": "hunter2"},
	}

	_, err := AuthPayload(context.Background(), args)
	if !errors.Is(err, creds.ErrMissingCredential) {
		t.Errorf("error = %v, want ErrMissingCredential", err)
	}
}

func TestUserIDFromContext(t *testing.T) {
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Error("expected no user id without OAuth context")
	}

	ctx := contextWithTestUser("user-456", "bob@example.com")
	userID, ok := UserIDFromContext(ctx)
	if !ok || userID != "user-456" {
		t.Errorf("user id = %q, ok = %v", userID, ok)
	}
}

func TestUserEmailFromContext(t *testing.T) {
	if email := UserEmailFromContext(context.Background()); email != "" {
		t.Errorf("email = %q, want empty", email)
	}

	ctx := contextWithTestUser("user-456", "bob@example.com")
	if email := UserEmailFromContext(ctx); email != "bob@example.com" {
		t.Errorf("email = %q", email)
	}
}
