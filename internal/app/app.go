// Package app provides the application context for jail.
// It allows dependency injection for testing.
package app

import (
	"context"
	"os"

	"github.com/firefly-engineering/jail/internal/attach"
	"github.com/firefly-engineering/jail/internal/audit"
	"github.com/firefly-engineering/jail/internal/boundary"
	"github.com/firefly-engineering/jail/internal/config"
	"github.com/firefly-engineering/jail/internal/registry"
	"github.com/firefly-engineering/jail/internal/runtime"
	"github.com/firefly-engineering/jail/internal/sandbox"
	"github.com/firefly-engineering/jail/internal/system"
	"github.com/firefly-engineering/jail/internal/workspace"
)

// App holds the application dependencies
type App struct {
	// Paths holds the configured paths
	Paths *config.Paths

	// Config is the loaded user configuration
	Config *config.Config

	// Executor runs external commands (engines, git, the editor)
	Executor system.CommandExecutor

	// Engines returns the engine driver for a kind
	Engines runtime.Factory

	// Resolver picks the engine for new sandboxes
	Resolver *runtime.Resolver

	Registry *registry.Registry
	Audit    *audit.Logger
	Cloner   workspace.Cloner
	Editor   *attach.Editor

	HomeDir   string
	Platform  string
	LookupEnv func(string) (string, bool)

	controller *sandbox.Controller
}

// Option is a function that configures the App
type Option func(*App)

// WithPaths sets custom paths
func WithPaths(paths *config.Paths) Option {
	return func(a *App) {
		a.Paths = paths
	}
}

// WithConfig sets the configuration instead of reading config.toml
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithExecutor sets the command executor
func WithExecutor(exec system.CommandExecutor) Option {
	return func(a *App) {
		a.Executor = exec
	}
}

// WithEngines sets the engine factory
func WithEngines(f runtime.Factory) Option {
	return func(a *App) {
		a.Engines = f
	}
}

// WithCloner sets the workspace cloner
func WithCloner(c workspace.Cloner) Option {
	return func(a *App) {
		a.Cloner = c
	}
}

// WithHost sets the host facts the boundary is built from
func WithHost(homeDir, platform string, lookupEnv func(string) (string, bool)) Option {
	return func(a *App) {
		a.HomeDir = homeDir
		a.Platform = platform
		a.LookupEnv = lookupEnv
	}
}

// New creates a new App with the given options. Anything not provided is
// built from the user's environment.
func New(opts ...Option) (*App, error) {
	a := &App{}
	for _, opt := range opts {
		opt(a)
	}

	if a.Paths == nil {
		paths, err := config.DefaultPaths()
		if err != nil {
			return nil, err
		}
		a.Paths = paths
	}
	if a.Config == nil {
		cfg, err := config.Load(a.Paths.ConfigDir)
		if err != nil {
			return nil, err
		}
		a.Config = cfg
	}
	if a.Executor == nil {
		a.Executor = system.DefaultExecutor()
	}
	if a.Engines == nil {
		a.Engines = runtime.NewFactory(a.Executor, runtime.DefaultTimeout)
	}
	if a.HomeDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			a.HomeDir = home
		}
	}
	if a.Cloner == nil {
		a.Cloner = workspace.NewProvider(a.Executor, a.HomeDir)
	}
	if a.Platform == "" {
		a.Platform = boundary.HostPlatform()
	}
	if a.LookupEnv == nil {
		a.LookupEnv = os.LookupEnv
	}

	override, source := a.Config.RuntimeOverride()
	a.Resolver = runtime.NewResolver(override, source, a.Engines)
	a.Registry = registry.New(a.Paths.JailsDir)
	a.Audit = audit.NewLogger(a.Registry.Dir)
	a.Editor = attach.NewEditor(a.Config.EditorCommand(), a.Executor)

	return a, nil
}

// Controller returns the lifecycle controller wired to the app's
// dependencies.
func (a *App) Controller() *sandbox.Controller {
	if a.controller == nil {
		a.controller = sandbox.New(sandbox.Options{
			Registry:   a.Registry,
			Engines:    a.Engines,
			Cloner:     a.Cloner,
			Audit:      a.Audit,
			Editor:     a.Editor,
			Platform:   a.Platform,
			HomeDir:    a.HomeDir,
			LookupEnv:  a.LookupEnv,
			AgentRelay: a.Config.PodmanAgentRelay,
		})
	}
	return a.controller
}

// Engine returns the engine selected for new sandboxes.
func (a *App) Engine(ctx context.Context) (runtime.Engine, error) {
	return a.Resolver.Engine(ctx)
}

// Default is the application instance used by commands. It is built on
// first use.
var Default *App

// Current returns Default, creating it if needed.
func Current() (*App, error) {
	if Default != nil {
		return Default, nil
	}
	a, err := New()
	if err != nil {
		return nil, err
	}
	Default = a
	return a, nil
}

// SetDefault sets the default application instance (used for testing)
func SetDefault(app *App) {
	Default = app
}

// ResetDefault drops the default instance; the next Current builds a new one.
func ResetDefault() {
	Default = nil
}
