package inject_test

import (
	"encoding/json"
	"testing"

	"github.com/junioryono/inject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvidedIn(t *testing.T) {
	t.Parallel()

	t.Run("String", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			scope    inject.ProvidedIn
			expected string
		}{
			{inject.ProvidedInNone, "None"},
			{inject.ProvidedInRoot, "Root"},
			{inject.ProvidedInEnvironment, "Environment"},
			{inject.ProvidedIn(999), "Unknown(999)"},
		}

		for _, tt := range tests {
			assert.Equal(t, tt.expected, tt.scope.String())
		}
	})

	t.Run("IsValid", func(t *testing.T) {
		t.Parallel()

		assert.True(t, inject.ProvidedInNone.IsValid())
		assert.True(t, inject.ProvidedInEnvironment.IsValid())
		assert.False(t, inject.ProvidedIn(-1).IsValid())
		assert.False(t, inject.ProvidedIn(3).IsValid())
	})

	t.Run("text round trip", func(t *testing.T) {
		t.Parallel()

		for _, scope := range []inject.ProvidedIn{inject.ProvidedInNone, inject.ProvidedInRoot, inject.ProvidedInEnvironment} {
			text, err := scope.MarshalText()
			require.NoError(t, err)

			var got inject.ProvidedIn
			require.NoError(t, got.UnmarshalText(text))
			assert.Equal(t, scope, got)
		}

		var p inject.ProvidedIn
		require.NoError(t, p.UnmarshalText([]byte("environment")))
		assert.Equal(t, inject.ProvidedInEnvironment, p)

		err := p.UnmarshalText([]byte("platform"))
		var scopeErr inject.ProvidedInError
		require.ErrorAs(t, err, &scopeErr)
		assert.Equal(t, "platform", scopeErr.Value)
	})

	t.Run("JSON", func(t *testing.T) {
		t.Parallel()

		type tokenConfig struct {
			Scope inject.ProvidedIn `json:"scope"`
		}

		data, err := json.Marshal(tokenConfig{Scope: inject.ProvidedInRoot})
		require.NoError(t, err)
		assert.JSONEq(t, `{"scope":"Root"}`, string(data))

		var cfg tokenConfig
		require.NoError(t, json.Unmarshal([]byte(`{"scope":"Environment"}`), &cfg))
		assert.Equal(t, inject.ProvidedInEnvironment, cfg.Scope)

		assert.Error(t, json.Unmarshal([]byte(`{"scope":1}`), &cfg))
	})
}
