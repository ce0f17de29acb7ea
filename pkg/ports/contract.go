package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/pathway/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunPositionStoreContract runs a suite of tests to verify that a PositionStore implementation
// adheres to the defined interface contract.
func RunPositionStoreContract(t *testing.T, store PositionStore) {
	ctx := context.Background()
	callID := "contract-test-call-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, callID, 3)
		require.NoError(t, err, "Save should not return error")

		index, err := store.Load(ctx, callID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, 3, index)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, callID, 1))
		require.NoError(t, store.Save(ctx, callID, 0))

		index, err := store.Load(ctx, callID)
		require.NoError(t, err)
		assert.Equal(t, 0, index, "Zero must be stored, not treated as absent")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+callID)
		assert.ErrorIs(t, err, domain.ErrCallNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, callID, 2))

		err := store.Delete(ctx, callID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, callID)
		assert.ErrorIs(t, err, domain.ErrCallNotFound, "Load after Delete should return ErrCallNotFound")

		assert.NoError(t, store.Delete(ctx, callID), "Deleting twice should not fail")
	})

	t.Run("Isolation", func(t *testing.T) {
		id1 := callID + "-a"
		id2 := callID + "-b"
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		require.NoError(t, store.Save(ctx, id1, 1))
		require.NoError(t, store.Save(ctx, id2, 4))

		i1, err := store.Load(ctx, id1)
		require.NoError(t, err)
		i2, err := store.Load(ctx, id2)
		require.NoError(t, err)
		assert.Equal(t, 1, i1)
		assert.Equal(t, 4, i2)
	})

	t.Run("List", func(t *testing.T) {
		id1 := callID + "-1"
		id2 := callID + "-2"
		_ = store.Save(ctx, id1, 0)
		_ = store.Save(ctx, id2, 1)

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		calls, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, calls, id1)
		assert.Contains(t, calls, id2)
	})

	if adv, ok := store.(Advancer); ok {
		t.Run("Advance", func(t *testing.T) {
			id := callID + "-adv"
			defer func() { _ = store.Delete(ctx, id) }()

			prev, err := adv.Advance(ctx, id, 2)
			require.NoError(t, err)
			assert.Equal(t, 0, prev, "Unseen call starts at 0")

			prev, err = adv.Advance(ctx, id, 2)
			require.NoError(t, err)
			assert.Equal(t, 1, prev)

			index, err := store.Load(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, 0, index, "Advance wraps around")
		})
	}
}
