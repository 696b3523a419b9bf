package inject_test

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/junioryono/inject"
)

// Example types
type Logger struct {
	prefix string
}

func (l *Logger) Log(msg string) {
	fmt.Println(l.prefix + msg)
}

type Database struct {
	DSN    string
	Logger *Logger
}

func (d *Database) Close() error {
	fmt.Println("closing database")
	return nil
}

type UserService struct {
	DB     *Database `inject:""`
	Logger *Logger   `inject:""`
}

func (s *UserService) GetUser(id int) string {
	s.Logger.Log(fmt.Sprintf("loading user %d", id))
	return "John Doe"
}

var DSN = inject.NewToken[string]("DSN")

// Example demonstrates basic provider registration and resolution.
func Example() {
	root, err := inject.Create([]inject.Provider{
		inject.Value(DSN, "postgres://localhost/app"),
		inject.Factory(inject.Type[*Logger](), func() *Logger { return &Logger{prefix: "[app] "} }),
		inject.Factory(inject.Type[*Database](), func(dsn string, logger *Logger) *Database {
			return &Database{DSN: dsn, Logger: logger}
		}, DSN, inject.Type[*Logger]()),
		inject.ClassOf[*UserService](),
	}, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer root.Destroy()

	users, err := inject.Resolve[*UserService](root)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(users.GetUser(1))
	// Output:
	// [app] loading user 1
	// John Doe
	// closing database
}

// ExampleCreate_child demonstrates shadowing in a child injector.
func ExampleCreate_child() {
	root, _ := inject.Create([]inject.Provider{inject.Value(DSN, "root")}, nil)
	defer root.Destroy()

	child, _ := inject.Create([]inject.Provider{inject.Value(DSN, "child")}, root)
	defer child.Destroy()

	sibling, _ := inject.Create(nil, root)
	defer sibling.Destroy()

	fmt.Println(inject.MustGet(child, DSN))
	fmt.Println(inject.MustGet(sibling, DSN))
	// Output:
	// child
	// root
}

// ExampleMulti demonstrates aggregating multi providers.
func ExampleMulti() {
	Middlewares := inject.NewToken[[]string]("Middlewares")

	inj, _ := inject.Create([]inject.Provider{
		inject.Multi(inject.Value(Middlewares, "recover")),
		inject.Multi(inject.Value(Middlewares, "logging")),
		inject.Multi(inject.Value(Middlewares, "auth")),
	}, nil)
	defer inj.Destroy()

	fmt.Println(strings.Join(inject.MustGet(inj, Middlewares), ","))
	// Output: recover,logging,auth
}

// ExampleExisting demonstrates aliasing a key.
func ExampleExisting() {
	LegacyDSN := inject.NewToken[string]("LegacyDSN")

	inj, _ := inject.Create([]inject.Provider{
		inject.Value(DSN, "postgres://localhost/app"),
		inject.Existing(LegacyDSN, DSN),
	}, nil)
	defer inj.Destroy()

	fmt.Println(inject.MustGet(inj, LegacyDSN))
	// Output: postgres://localhost/app
}

// ExampleNewToken_default demonstrates a token with a default factory.
func ExampleNewToken_default() {
	Hostname := inject.NewToken[string]("Hostname",
		inject.WithFactory(func() string { return "localhost" }),
		inject.WithProvidedIn(inject.ProvidedInEnvironment),
	)

	env, _ := inject.Create(nil, nil)
	defer env.Destroy()

	plain, _ := inject.Create(nil, nil, inject.WithoutEnvironment())
	defer plain.Destroy()

	v, _ := env.GetOr(Hostname, "unknown")
	fmt.Println(v)

	v, _ = plain.GetOr(Hostname, "unknown")
	fmt.Println(v)
	// Output:
	// localhost
	// unknown
}

// ExampleInitializer demonstrates work run while an injector is created.
func ExampleInitializer() {
	inj, err := inject.Create([]inject.Provider{
		inject.Initializer(func() error {
			fmt.Println("running migrations")
			return nil
		}),
	}, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer inj.Destroy()

	fmt.Println("created")
	// Output:
	// running migrations
	// created
}

// ExampleInjector_OnDestroy demonstrates destroy hooks.
func ExampleInjector_OnDestroy() {
	inj, _ := inject.Create(nil, nil)

	inj.OnDestroy(func() { fmt.Println("first") })
	inj.OnDestroy(func() { fmt.Println("second") })

	inj.Destroy()
	inj.Destroy()

	_, err := inj.Get(DSN)
	fmt.Println(errors.Is(err, inject.ErrInjectorDestroyed))
	// Output:
	// first
	// second
	// true
}

// ExampleNotFoundError demonstrates matching errors.
func ExampleNotFoundError() {
	inj, _ := inject.Create(nil, nil, inject.WithName("app"))
	defer inj.Destroy()

	_, err := inj.Get(DSN)

	var nf inject.NotFoundError
	if errors.As(err, &nf) {
		fmt.Println(nf.Key)
	}
	fmt.Println(err)
	// Output:
	// Token(DSN)
	// no provider for Token(DSN) in injector "app"
}

// ExampleWriteGraph demonstrates inspecting a provider list.
func ExampleWriteGraph() {
	err := inject.WriteGraph(os.Stdout, []inject.Provider{
		inject.Value(DSN, "postgres://localhost/app"),
		inject.Factory(inject.Type[*Database](), func(dsn string) *Database {
			return &Database{DSN: dsn}
		}, DSN),
	})
	if err != nil {
		log.Fatal(err)
	}
	// Output:
	// Dependency Graph:
	// =================
	//
	// Token(DSN) -> []
	// *Database -> [Token(DSN)]
	//
	// Cycles: None (graph is acyclic)
}
