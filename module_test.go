package inject_test

import (
	"testing"

	"github.com/junioryono/inject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModule(t *testing.T) {
	t.Parallel()

	t.Run("imports come first", func(t *testing.T) {
		t.Parallel()

		base := inject.NewModule("base", inject.Multi(inject.Value(PluginToken, "base")))
		feature := inject.NewModule("feature", inject.Multi(inject.Value(PluginToken, "feature"))).Import(base)
		app := inject.NewModule("app", inject.Multi(inject.Value(PluginToken, "app"))).Import(feature)

		assert.Equal(t, "app", app.Name())

		inj := newInjector(t, app.Providers(), nil)
		assert.Equal(t, []string{"base", "feature", "app"}, inject.MustGet(inj, PluginToken))
	})

	t.Run("shared imports contribute once", func(t *testing.T) {
		t.Parallel()

		shared := inject.NewModule("shared", inject.Multi(inject.Value(PluginToken, "shared")))
		a := inject.NewModule("a", inject.Multi(inject.Value(PluginToken, "a"))).Import(shared)
		b := inject.NewModule("b", inject.Multi(inject.Value(PluginToken, "b"))).Import(shared)
		app := inject.NewModule("app").Import(a, nil, b)

		inj := newInjector(t, app.Providers(), nil)
		assert.Equal(t, []string{"shared", "a", "b"}, inject.MustGet(inj, PluginToken))
	})

	t.Run("later modules override earlier ones", func(t *testing.T) {
		t.Parallel()

		defaults := inject.NewModule("defaults", inject.Value(NameToken, "default"))
		overrides := inject.NewModule("overrides", inject.Value(NameToken, "override")).Import(defaults)

		inj := newInjector(t, overrides.Providers(), nil)
		assert.Equal(t, "override", inject.MustGet(inj, NameToken))
	})

	t.Run("configuration errors name the module", func(t *testing.T) {
		t.Parallel()

		broken := inject.NewModule("database", inject.Value(NameToken, 42))
		app := inject.NewModule("app").Import(broken)

		_, err := inject.Create(app.Providers(), nil)
		cfgErr := requireErrorAs[inject.ConfigurationError](t, err)
		assert.Equal(t, "database", cfgErr.Module)
		assert.Contains(t, err.Error(), `module "database"`)
	})

	t.Run("providers can be combined with plain lists", func(t *testing.T) {
		t.Parallel()

		mod := inject.NewModule("names", inject.Value(NameToken, "module"))
		providers := append(mod.Providers(), inject.ClassOf[*TService]())

		inj, err := inject.Create(providers, nil)
		require.NoError(t, err)
		defer inj.Destroy()

		assert.NotNil(t, inject.MustResolve[*TService](inj))
	})
}
