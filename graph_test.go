package inject_test

import (
	"strings"
	"testing"

	"github.com/junioryono/inject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphProviders() []inject.Provider {
	return []inject.Provider{
		inject.Value(NameToken, "app"),
		inject.Factory(inject.Type[*TService](), func(name string) *TService { return &TService{ID: name} }, NameToken),
		inject.Existing(inject.Type[TInterface](), inject.Type[*TService]()),
		inject.ClassOf[*TServiceWithDeps](),
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("acyclic", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, inject.Validate(graphProviders()))
	})

	t.Run("configuration errors", func(t *testing.T) {
		t.Parallel()

		err := inject.Validate([]inject.Provider{inject.Value(NameToken, 1)})
		assert.ErrorIs(t, err, inject.ErrConfiguration)
	})

	t.Run("cycle through an alias", func(t *testing.T) {
		t.Parallel()

		err := inject.Validate([]inject.Provider{
			inject.Factory(inject.Type[*TService](), func(i TInterface) *TService { return &TService{} }),
			inject.Existing(inject.Type[TInterface](), inject.Type[*TService]()),
		})
		assert.ErrorIs(t, err, inject.ErrCircularDependency)
		assert.Contains(t, err.Error(), "To resolve this:")
	})
}

func TestWriteDOT(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	require.NoError(t, inject.WriteDOT(&b, graphProviders()))

	out := b.String()
	assert.True(t, strings.HasPrefix(out, "digraph dependencies {"))
	assert.Contains(t, out, `label="Token(Name)"`)
	assert.Contains(t, out, `label="*TService"`)
	assert.Contains(t, out, "lightgray", "unregistered dependencies are drawn gray")
	assert.Contains(t, out, "->")
}

func TestWriteGraph(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	require.NoError(t, inject.WriteGraph(&b, graphProviders()))

	out := b.String()
	assert.Contains(t, out, "*TService -> [Token(Name)]")
	assert.Contains(t, out, "TInterface -> [*TService]")
	assert.Contains(t, out, "*TDependency (external) -> []")
	assert.Contains(t, out, "Cycles: None")

	err := inject.WriteGraph(&b, []inject.Provider{inject.Value(nil, 1)})
	assert.ErrorIs(t, err, inject.ErrConfiguration)
}
