package inject

// Module groups related providers under a name. Modules can import other
// modules; Providers flattens the tree with imports first.
//
// Example:
//
//	var DatabaseModule = inject.NewModule("database",
//	    inject.Factory(DB, OpenDatabase, DSN),
//	    inject.ClassOf[*UserRepository](),
//	)
//
//	var AppModule = inject.NewModule("app",
//	    inject.ClassOf[*UserService](),
//	).Import(DatabaseModule, LoggingModule)
//
//	injector, err := inject.Create(AppModule.Providers(), nil)
type Module struct {
	name      string
	imports   []*Module
	providers []Provider
}

// NewModule creates a module with the given name and providers.
func NewModule(name string, providers ...Provider) *Module {
	return &Module{name: name, providers: providers}
}

// Import adds modules whose providers come before this module's own.
func (m *Module) Import(modules ...*Module) *Module {
	for _, mod := range modules {
		if mod != nil {
			m.imports = append(m.imports, mod)
		}
	}
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Providers returns the providers of the module and everything it imports,
// depth first. A module imported more than once contributes only at its
// first position. Configuration errors name the contributing module.
func (m *Module) Providers() []Provider {
	var out []Provider
	seen := make(map[*Module]bool)

	var walk func(mod *Module)
	walk = func(mod *Module) {
		if seen[mod] {
			return
		}
		seen[mod] = true

		for _, imp := range mod.imports {
			walk(imp)
		}
		for _, p := range mod.providers {
			p.module = mod.name
			out = append(out, p)
		}
	}
	walk(m)

	return out
}
