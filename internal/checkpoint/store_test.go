package checkpoint_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/checkpoint"
)

// storeUnderTest runs the shared contract against every store implementation.
func storeUnderTest(t *testing.T, store checkpoint.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("load missing returns not found", func(t *testing.T) {
		_, err := store.Load(ctx, "missing")
		assert.ErrorIs(t, err, checkpoint.ErrNotFound)
	})

	t.Run("save then load round trips", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "thread-a", []byte(`{"v":1}`)))
		data, err := store.Load(ctx, "thread-a")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"v":1}`), data)
	})

	t.Run("save overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "thread-a", []byte(`{"v":2}`)))
		data, err := store.Load(ctx, "thread-a")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"v":2}`), data)
	})

	t.Run("list returns sorted thread ids", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "thread-c", []byte(`{}`)))
		require.NoError(t, store.Save(ctx, "thread-b", []byte(`{}`)))
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"thread-a", "thread-b", "thread-c"}, ids)
	})

	t.Run("delete removes and tolerates missing", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "thread-a"))
		_, err := store.Load(ctx, "thread-a")
		assert.ErrorIs(t, err, checkpoint.ErrNotFound)

		assert.NoError(t, store.Delete(ctx, "thread-a"))
	})
}

func TestMemoryStore(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()
	storeUnderTest(t, store)
}

func TestMemoryStore_CopiesData(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	payload := []byte(`{"v":1}`)
	require.NoError(t, store.Save(ctx, "thread-a", payload))
	assert.Equal(t, 1, store.Len())
	payload[0] = 'X'

	data, err := store.Load(ctx, "thread-a")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":1}`), data)

	// Mutating the loaded copy must not affect the stored value.
	data[0] = 'X'
	again, err := store.Load(ctx, "thread-a")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":1}`), again)
}

func TestSQLiteStore(t *testing.T) {
	store, err := checkpoint.NewSQLiteStore(filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	defer store.Close()
	storeUnderTest(t, store)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	ctx := context.Background()

	store, err := checkpoint.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "thread-a", []byte(`{"v":42}`)))
	require.NoError(t, store.Close())

	reopened, err := checkpoint.NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	data, err := reopened.Load(ctx, "thread-a")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":42}`), data)
}
