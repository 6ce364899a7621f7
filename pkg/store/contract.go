package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/observe/pkg/observe"
)

// RunContract checks the behaviour every Store must provide. Store
// implementations call it from their tests.
func RunContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		doc := observe.NewObject().
			With("z", "last").
			With("list", observe.NewArray(1, observe.Hole, "x")).
			With("nested", observe.NewObject().With("ok", true))
		require.NoError(t, s.Save(ctx, "contract", doc))

		loaded, err := s.Load(ctx, "contract")
		require.NoError(t, err)
		assert.Equal(t, "last", loaded.Get("z"))
		assert.Equal(t, true, loaded.Get("nested").(*observe.Object).Get("ok"))

		native, err := observe.ToNative(loaded.Get("list"))
		require.NoError(t, err)
		assert.Equal(t, []any{1.0, nil, "x"}, native, "holes come back as null")

		keys := loaded.Keys()
		require.Len(t, keys, 3)
		assert.Equal(t, "z", keys[0].String(), "key order is preserved")
	})

	t.Run("Save replaces", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "replace", observe.NewObject().With("v", 1)))
		require.NoError(t, s.Save(ctx, "replace", observe.NewArray("a")))

		loaded, err := s.Load(ctx, "replace")
		require.NoError(t, err)
		assert.True(t, loaded.IsArray())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := s.Load(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "gone", observe.NewObject()))
		require.NoError(t, s.Delete(ctx, "gone"))

		_, err := s.Load(ctx, "gone")
		assert.ErrorIs(t, err, ErrNotFound, "Load after Delete should return ErrNotFound")

		assert.NoError(t, s.Delete(ctx, "gone"), "deleting twice is not an error")
	})

	t.Run("Invalid Names", func(t *testing.T) {
		for _, name := range []string{"", "..", "a/b", "white space"} {
			assert.ErrorIs(t, s.Save(ctx, name, observe.NewObject()), ErrInvalidName, name)
			_, err := s.Load(ctx, name)
			assert.ErrorIs(t, err, ErrInvalidName, name)
		}
	})
}
