// Package app provides the application context for jail.
//
// This package wires the command layer to its dependencies using the
// functional options pattern, so tests can swap in mock engines, a mock
// executor and temporary directories.
//
// # Creating an App
//
//	// Production usage
//	a, err := app.New()
//
//	// Testing with custom dependencies
//	a, err := app.New(
//	    app.WithPaths(config.NewPaths(tmp+"/config", tmp+"/data")),
//	    app.WithConfig(&config.Config{}),
//	    app.WithEngines(runtime.MockFactory(podman)),
//	    app.WithCloner(fakeCloner),
//	)
//
// # Default Instance
//
// Commands use app.Current, which builds the default App on first use.
// Tests install their own with SetDefault and undo it with ResetDefault.
package app
