// Package storagetest holds the behavioural contract every storage.Backend must satisfy.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vietddude/draftsync/internal/infra/storage"
)

// RunContract exercises get/set/delete/clear and namespace isolation against backend.
func RunContract(t *testing.T, backend storage.Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		s := backend.Namespace("contract-missing")
		v, found, err := s.Get(ctx, "nope")
		require.NoError(t, err)
		require.False(t, found)
		require.Nil(t, v)
	})

	t.Run("set overwrites", func(t *testing.T) {
		s := backend.Namespace("contract-overwrite")
		require.NoError(t, s.Set(ctx, "k", []byte("one")))
		require.NoError(t, s.Set(ctx, "k", []byte("two")))

		v, found, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "two", string(v))
	})

	t.Run("delete", func(t *testing.T) {
		s := backend.Namespace("contract-delete")
		require.NoError(t, s.Set(ctx, "k", []byte("v")))
		require.NoError(t, s.Delete(ctx, "k"))
		require.NoError(t, s.Delete(ctx, "k"), "deleting an absent key is not an error")

		_, found, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		a := backend.Namespace("contract-a")
		b := backend.Namespace("contract-b")
		require.NoError(t, a.Set(ctx, "shared", []byte("from-a")))
		require.NoError(t, b.Set(ctx, "shared", []byte("from-b")))

		require.NoError(t, a.Clear(ctx))

		_, found, err := a.Get(ctx, "shared")
		require.NoError(t, err)
		require.False(t, found)

		v, found, err := b.Get(ctx, "shared")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "from-b", string(v))
	})

	t.Run("json helpers", func(t *testing.T) {
		s := backend.Namespace("contract-json")
		type doc struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		}
		require.NoError(t, storage.SetJSON(ctx, s, "doc", doc{Name: "a", Count: 2}))

		var out doc
		found, err := storage.GetJSON(ctx, s, "doc", &out)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, doc{Name: "a", Count: 2}, out)
	})
}
