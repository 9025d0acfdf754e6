package userstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndGetTokens(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.Save(ctx, User{ID: "u1", Email: "a@x.com", AccessToken: "AT1", RefreshToken: "RT1"})
	require.NoError(t, err)

	access, refresh := store.GetTokens(ctx, "u1")
	assert.Equal(t, "AT1", access)
	assert.Equal(t, "RT1", refresh)
}

func TestGetTokensMissingUser(t *testing.T) {
	store := setupTestStore(t)

	access, refresh := store.GetTokens(context.Background(), "nonexistent")
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestSaveIsIdempotentUpsert(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	u := User{ID: "u1", Email: "a@x.com", Name: "Ada", AccessToken: "AT1", RefreshToken: "RT1"}
	require.NoError(t, store.Save(ctx, u))
	require.NoError(t, store.Save(ctx, u))

	users, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a@x.com", users[0].Email)
	assert.Equal(t, "Ada", users[0].Name)

	// A re-save with new values replaces the row wholesale.
	u.AccessToken = "AT2"
	u.RefreshToken = "RT2"
	require.NoError(t, store.Save(ctx, u))

	access, refresh := store.GetTokens(ctx, "u1")
	assert.Equal(t, "AT2", access)
	assert.Equal(t, "RT2", refresh)
}

func TestUpdateTokensPreservesRefresh(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, User{ID: "u1", Email: "a@x.com", AccessToken: "AT1", RefreshToken: "RT1"}))

	// Update without a refresh token keeps the stored one.
	require.NoError(t, store.UpdateTokens(ctx, "u1", "AT2", ""))
	access, refresh := store.GetTokens(ctx, "u1")
	assert.Equal(t, "AT2", access)
	assert.Equal(t, "RT1", refresh)

	// Update with a refresh token replaces both.
	require.NoError(t, store.UpdateTokens(ctx, "u1", "AT3", "RT2"))
	access, refresh = store.GetTokens(ctx, "u1")
	assert.Equal(t, "AT3", access)
	assert.Equal(t, "RT2", refresh)
}

func TestUpdateTokensUnknownUser(t *testing.T) {
	store := setupTestStore(t)

	err := store.UpdateTokens(context.Background(), "ghost", "AT1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, User{ID: "u1", Email: "a@x.com"}))

	existed, err := store.Delete(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.Delete(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, existed)
}

// TestTokenLifecycle walks the full save → read → partial update → delete
// sequence a user goes through.
func TestTokenLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, User{ID: "u1", Email: "a@x.com", AccessToken: "AT1", RefreshToken: "RT1"}))

	access, refresh := store.GetTokens(ctx, "u1")
	require.Equal(t, "AT1", access)
	require.Equal(t, "RT1", refresh)

	require.NoError(t, store.UpdateTokens(ctx, "u1", "AT2", ""))

	access, refresh = store.GetTokens(ctx, "u1")
	require.Equal(t, "AT2", access)
	require.Equal(t, "RT1", refresh)

	existed, err := store.Delete(ctx, "u1")
	require.NoError(t, err)
	require.True(t, existed)

	access, refresh = store.GetTokens(ctx, "u1")
	require.Empty(t, access)
	require.Empty(t, refresh)
}

func TestGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, store.Save(ctx, User{ID: "u1", Email: "a@x.com", Name: "Ada", AccessToken: "AT1", RefreshToken: "RT1"}))

	u, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "RT1", u.RefreshToken)
	assert.False(t, u.CreatedAt.IsZero())
	assert.False(t, u.UpdatedAt.IsZero())
}

func TestListNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, User{ID: "old", Email: "old@x.com"}))
	require.NoError(t, store.Save(ctx, User{ID: "new", Email: "new@x.com"}))

	// CURRENT_TIMESTAMP has second resolution, so force distinct timestamps.
	_, err := store.db.Writer.ExecContext(ctx,
		`UPDATE users SET created_at = datetime('now', '-1 hour') WHERE google_user_id = 'old'`)
	require.NoError(t, err)

	users, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "new", users[0].ID)
	assert.Equal(t, "old", users[1].ID)
}

func TestListEmpty(t *testing.T) {
	store := setupTestStore(t)

	users, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestDefaultCustomerID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// Unknown user reads as unset, never errors.
	assert.Empty(t, store.DefaultCustomerID(ctx, "ghost"))

	require.NoError(t, store.Save(ctx, User{ID: "u1", Email: "a@x.com"}))
	assert.Empty(t, store.DefaultCustomerID(ctx, "u1"))

	require.NoError(t, store.SetDefaultCustomerID(ctx, "u1", "1234567890"))
	assert.Equal(t, "1234567890", store.DefaultCustomerID(ctx, "u1"))

	err := store.SetDefaultCustomerID(ctx, "ghost", "1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetTokensFailOpenOnClosedDB(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, User{ID: "u1", Email: "a@x.com", AccessToken: "AT1"}))
	require.NoError(t, db.Reader.Close())

	// A broken reader degrades to "no tokens", it does not panic or error.
	access, refresh := store.GetTokens(ctx, "u1")
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}
