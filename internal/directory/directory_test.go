package directory_test

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/AbhaySolanki007/Insurance-helpdesk/internal/core/error"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/directory"
)

func openSeeded(t *testing.T) *directory.Store {
	t.Helper()
	store, err := directory.Open(filepath.Join(t.TempDir(), "helpdesk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Seed(context.Background()))
	return store
}

func TestGetUser(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	user, err := store.GetUser(ctx, "user123")
	require.NoError(t, err)
	assert.Equal(t, "Ravi Sharma", user.Name)
	assert.Equal(t, "ravi.sharma@example.com", user.Email)

	_, err = store.GetUser(ctx, "nobody")
	require.Error(t, err)
	var appErr *errx.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestUpdateUser(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	require.NoError(t, store.UpdateUser(ctx, "user123", map[string]any{
		"email": "ravi.new@example.com",
		"phone": "+91-98100-99999",
	}))

	user, err := store.GetUser(ctx, "user123")
	require.NoError(t, err)
	assert.Equal(t, "ravi.new@example.com", user.Email)
	assert.Equal(t, "+91-98100-99999", user.Phone)
	assert.Equal(t, "Ravi Sharma", user.Name)

	t.Run("rejects non-whitelisted fields", func(t *testing.T) {
		err := store.UpdateUser(ctx, "user123", map[string]any{"user_id": "evil"})
		assert.Error(t, err)
		err = store.UpdateUser(ctx, "user123", map[string]any{"premium": 0})
		assert.Error(t, err)
	})

	t.Run("rejects empty change set", func(t *testing.T) {
		assert.Error(t, store.UpdateUser(ctx, "user123", nil))
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		err := store.UpdateUser(ctx, "nobody", map[string]any{"email": "x@example.com"})
		var appErr *errx.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, http.StatusNotFound, appErr.Status)
	})
}

func TestGetPolicies(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	policies, err := store.GetPolicies(ctx, "user123")
	require.NoError(t, err)
	require.Len(t, policies, 2)
	for _, p := range policies {
		assert.Equal(t, "user123", p.UserID)
	}

	policies, err = store.GetPolicies(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, policies)
}

func TestSearchFAQ(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	entries, err := store.SearchFAQ(ctx, "claim", 3)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Contains(t, entries[0].Question, "claim")

	t.Run("case insensitive", func(t *testing.T) {
		entries, err := store.SearchFAQ(ctx, "CLAIM", 3)
		require.NoError(t, err)
		assert.NotEmpty(t, entries)
	})

	t.Run("no match", func(t *testing.T) {
		entries, err := store.SearchFAQ(ctx, "zeppelin", 3)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestSeedIsIdempotent(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx))

	policies, err := store.GetPolicies(ctx, "user123")
	require.NoError(t, err)
	assert.Len(t, policies, 2)
}
