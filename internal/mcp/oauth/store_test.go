package oauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStoreWithInterval(time.Hour)
	t.Cleanup(store.Close)
	return store
}

func TestStoreSaveAndGetToken(t *testing.T) {
	store := newTestStore(t)

	token := &oauth2.Token{
		AccessToken: "access-123",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}
	require.NoError(t, store.SaveToken("user-1", token))

	got, err := store.Token("user-1")
	require.NoError(t, err)
	assert.Equal(t, "access-123", got.AccessToken)
}

func TestStoreTokenMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Token("nobody")
	assert.Error(t, err)
}

func TestStoreTokenExpired(t *testing.T) {
	store := newTestStore(t)

	token := &oauth2.Token{
		AccessToken: "stale",
		Expiry:      time.Now().Add(-time.Minute),
	}
	require.NoError(t, store.SaveToken("user-1", token))

	_, err := store.Token("user-1")
	assert.Error(t, err)
}

func TestStoreSaveTokenValidation(t *testing.T) {
	store := newTestStore(t)

	assert.Error(t, store.SaveToken("", &oauth2.Token{AccessToken: "x"}))
	assert.Error(t, store.SaveToken("user-1", nil))
}

func TestStoreDeleteToken(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveToken("user-1", &oauth2.Token{AccessToken: "x"}))
	require.NoError(t, store.SaveUserInfo("user-1", &GoogleUserInfo{Sub: "user-1", Email: "a@example.com"}))

	store.DeleteToken("user-1")

	_, err := store.Token("user-1")
	assert.Error(t, err)
	_, ok := store.UserInfo("user-1")
	assert.False(t, ok)
}

func TestStoreUserInfo(t *testing.T) {
	store := newTestStore(t)

	info := &GoogleUserInfo{Sub: "user-1", Email: "a@example.com", Name: "A"}
	require.NoError(t, store.SaveUserInfo("user-1", info))

	got, ok := store.UserInfo("user-1")
	require.True(t, ok)
	assert.Equal(t, "a@example.com", got.Email)

	_, ok = store.UserInfo("other")
	assert.False(t, ok)
}

func TestStoreStats(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveToken("user-1", &oauth2.Token{AccessToken: "x"}))
	require.NoError(t, store.SaveToken("user-2", &oauth2.Token{AccessToken: "y"}))
	require.NoError(t, store.SaveUserInfo("user-1", &GoogleUserInfo{Sub: "user-1"}))

	stats := store.Stats()
	assert.Equal(t, 2, stats["tokens"])
	assert.Equal(t, 1, stats["user_info"])
}
