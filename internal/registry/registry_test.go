package registry_test

import (
	"testing"

	"github.com/junioryono/inject/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Add(t *testing.T) {
	t.Parallel()

	t.Run("last single record wins", func(t *testing.T) {
		t.Parallel()

		r := registry.New()
		require.NoError(t, r.Add(&registry.Record{Key: "k", Kind: registry.Value, Value: 1}))
		require.NoError(t, r.Add(&registry.Record{Key: "k", Kind: registry.Value, Value: 2}))

		entry, ok := r.Lookup("k")
		require.True(t, ok)
		assert.False(t, entry.Multi)
		assert.Len(t, entry.Records, 1)
		assert.Equal(t, 2, entry.Record().Value)
	})

	t.Run("multi records accumulate in order", func(t *testing.T) {
		t.Parallel()

		r := registry.New()
		for _, v := range []string{"a", "b", "c"} {
			require.NoError(t, r.Add(&registry.Record{Key: "k", Kind: registry.Value, Value: v, Multi: true}))
		}

		entry, ok := r.Lookup("k")
		require.True(t, ok)
		assert.True(t, entry.Multi)

		var got []any
		for _, rec := range entry.Records {
			got = append(got, rec.Value)
		}
		assert.Equal(t, []any{"a", "b", "c"}, got)
	})

	t.Run("mixing multi and single fails", func(t *testing.T) {
		t.Parallel()

		r := registry.New()
		require.NoError(t, r.Add(&registry.Record{Key: "k", Multi: true}))
		assert.ErrorIs(t, r.Add(&registry.Record{Key: "k"}), registry.ErrMultiMismatch)

		r = registry.New()
		require.NoError(t, r.Add(&registry.Record{Key: "k"}))
		assert.ErrorIs(t, r.Add(&registry.Record{Key: "k", Multi: true}), registry.ErrMultiMismatch)
	})
}

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	r := registry.New()
	require.NoError(t, r.Add(&registry.Record{Key: "b"}))
	require.NoError(t, r.Add(&registry.Record{Key: "a"}))
	require.NoError(t, r.Add(&registry.Record{Key: "b"}))

	_, ok := r.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []any{"b", "a"}, r.Keys())
	assert.Equal(t, 2, r.Len())

	empty := &registry.Entry{}
	assert.Nil(t, empty.Record())
}
