package fiber

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/junioryono/inject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testService struct {
	ID string
}

type testController struct {
	Service *testService `inject:""`
}

func (c *testController) GetValue(ctx *fiber.Ctx) error {
	return ctx.SendString(c.Service.ID + ":" + ctx.Params("id"))
}

func (c *testController) Panic(ctx *fiber.Ctx) error {
	panic("test panic")
}

func newApp(t *testing.T, opts ...Option) (*fiber.App, inject.Injector) {
	t.Helper()

	root, err := inject.Create([]inject.Provider{
		inject.Value(inject.Type[*testService](), &testService{ID: "svc"}),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { root.Destroy() })

	opts = append([]Option{WithProviders(inject.ClassOf[*testController]())}, opts...)

	app := fiber.New()
	app.Use(ScopeMiddleware(root, opts...))
	return app, root
}

func body(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestScopeMiddleware(t *testing.T) {
	t.Run("stores the request injector", func(t *testing.T) {
		app, root := newApp(t)

		var reqInjector inject.Injector
		app.Get("/test", func(c *fiber.Ctx) error {
			inj, err := FromContext(c)
			require.NoError(t, err)
			reqInjector = inj

			fromUser, err := inject.FromContext(c.UserContext())
			require.NoError(t, err)
			assert.Same(t, inj, fromUser)

			ctx, err := inject.Get(inj, CtxToken)
			require.NoError(t, err)
			assert.Same(t, c, ctx)

			return c.SendStatus(fiber.StatusOK)
		})

		code, _ := body(t, app, "/test")

		assert.Equal(t, fiber.StatusOK, code)
		require.NotNil(t, reqInjector)
		assert.Same(t, root, reqInjector.Parent())
		assert.True(t, reqInjector.IsDestroyed())
	})

	t.Run("creation failure uses error handler", func(t *testing.T) {
		root, err := inject.Create(nil, nil)
		require.NoError(t, err)
		require.NoError(t, root.Destroy())

		var gotErr error
		app := fiber.New()
		app.Use(ScopeMiddleware(root, WithErrorHandler(func(c *fiber.Ctx, err error) error {
			gotErr = err
			return c.SendStatus(fiber.StatusServiceUnavailable)
		})))
		app.Get("/", func(c *fiber.Ctx) error {
			t.Fatal("handler should not be called")
			return nil
		})

		code, _ := body(t, app, "/")
		assert.Equal(t, fiber.StatusServiceUnavailable, code)
		assert.ErrorIs(t, gotErr, inject.ErrInjectorDestroyed)
	})

	t.Run("middleware error uses default handler", func(t *testing.T) {
		app, _ := newApp(t, WithMiddleware(func(inject.Injector, *fiber.Ctx) error {
			return errors.New("denied")
		}))
		app.Get("/", func(c *fiber.Ctx) error {
			t.Fatal("handler should not be called")
			return nil
		})

		code, text := body(t, app, "/")
		assert.Equal(t, fiber.StatusInternalServerError, code)
		assert.Contains(t, text, "Internal Server Error")
	})

	t.Run("reports destroy errors", func(t *testing.T) {
		var destroyErr error
		app, _ := newApp(t, WithDestroyErrorHandler(func(err error) { destroyErr = err }))
		app.Get("/", func(c *fiber.Ctx) error {
			inj, _ := FromContext(c)
			inj.OnDestroy(func() { panic("boom") })
			return nil
		})

		body(t, app, "/")
		assert.Error(t, destroyErr)
	})
}

func TestHandle(t *testing.T) {
	t.Run("resolves the controller", func(t *testing.T) {
		app, _ := newApp(t)
		app.Get("/users/:id", Handle((*testController).GetValue))

		code, text := body(t, app, "/users/5")
		assert.Equal(t, fiber.StatusOK, code)
		assert.Equal(t, "svc:5", text)
	})

	t.Run("fails without an injector", func(t *testing.T) {
		var gotErr error
		app := fiber.New()
		app.Get("/", Handle((*testController).GetValue,
			WithInjectorErrorHandler(func(c *fiber.Ctx, err error) error {
				gotErr = err
				return c.SendStatus(fiber.StatusBadGateway)
			}),
		))

		code, _ := body(t, app, "/")
		assert.Equal(t, fiber.StatusBadGateway, code)
		assert.ErrorIs(t, gotErr, inject.ErrNoInjectorInContext)
	})

	t.Run("reports resolution errors", func(t *testing.T) {
		root, err := inject.Create(nil, nil)
		require.NoError(t, err)
		defer root.Destroy()

		var gotErr error
		app := fiber.New()
		app.Use(ScopeMiddleware(root))
		app.Get("/", Handle((*testController).GetValue,
			WithResolutionErrorHandler(func(c *fiber.Ctx, err error) error {
				gotErr = err
				return c.SendStatus(fiber.StatusNotImplemented)
			}),
		))

		code, _ := body(t, app, "/")
		assert.Equal(t, fiber.StatusNotImplemented, code)
		assert.ErrorIs(t, gotErr, inject.ErrNotFound)
	})

	t.Run("recovers panics", func(t *testing.T) {
		app, _ := newApp(t)
		app.Get("/panic", Handle((*testController).Panic, WithPanicRecovery(true)))

		code, _ := body(t, app, "/panic")
		assert.Equal(t, fiber.StatusInternalServerError, code)
	})
}
