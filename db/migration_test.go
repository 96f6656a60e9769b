package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationBackfillsNewIndex(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	v1, err := Open(ctx, path, testSchema(1))
	require.NoError(t, err)
	err = v1.Update(ctx, func(tx *Tx) error {
		for _, it := range []item{{ID: "a", Group: "g1"}, {ID: "b", Group: "g2"}, {ID: "c"}} {
			if err := tx.Put("items", it); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, v1.Close())

	v2, err := Open(ctx, path, testSchema(2, On("group")))
	require.NoError(t, err)
	defer v2.Close()

	version, err := v2.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	err = v2.View(ctx, func(tx *Tx) error {
		g1, err := ByIndex[item](tx, "items", "group", "g1")
		require.NoError(t, err)
		require.Len(t, g1, 1)
		assert.Equal(t, "a", g1[0].ID)

		ungrouped, err := ByIndex[item](tx, "items", "group", "")
		require.NoError(t, err)
		require.Len(t, ungrouped, 1)
		assert.Equal(t, "c", ungrouped[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestMigrationAddsUniqueIndexOverDuplicatesFails(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	v1, err := Open(ctx, path, testSchema(1))
	require.NoError(t, err)
	require.NoError(t, v1.Put(ctx, "items", item{ID: "a", Owner: "x"}))
	require.NoError(t, v1.Put(ctx, "items", item{ID: "b", Owner: "x"}))
	require.NoError(t, v1.Close())

	_, err = Open(ctx, path, testSchema(2, UniqueOn("owner", "owner")))
	assert.ErrorIs(t, err, ErrConflict)

	// The failed upgrade left the stored version untouched.
	again, err := Open(ctx, path, testSchema(1))
	require.NoError(t, err)
	defer again.Close()
	version, err := again.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestMigrationRefusesDowngrade(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	newer, err := Open(ctx, path, testSchema(3))
	require.NoError(t, err)
	require.NoError(t, newer.Close())

	_, err = Open(ctx, path, testSchema(2))
	assert.ErrorIs(t, err, ErrSchemaDowngrade)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	first, err := Open(ctx, path, AppSchema())
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, Posts, map[string]interface{}{"id": "p1", "userId": "u1"}))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path, AppSchema())
	require.NoError(t, err)
	defer second.Close()

	raw, err := second.GetRaw(ctx, Posts, "p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p1","userId":"u1"}`, string(raw))
}
