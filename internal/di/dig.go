// Package di provides a lightweight wrapper around uber's dig
// dependency injection framework. It wires the configuration store,
// the Docker Engine client, the cluster patcher, and the pipeline.
package di

import (
	"go.uber.org/dig"
)

// ConfigPath is the location of the project configuration file,
// registered in the container so providers can depend on it.
type ConfigPath string

// Container defines a dependency injection container based on uber's
// dig. The interface keeps command code testable against fakes.
type Container interface {
	// Invoke executes a function, injecting its dependencies from the container.
	Invoke(function any, opts ...dig.InvokeOption) error

	// Provide registers a constructor function in the container.
	Provide(constructor any, opts ...dig.ProvideOption) error
}

// MustGet returns an instance constructed via dependency injection or
// panics. Convenience for command actions that cannot proceed without
// the dependency anyway.
//
// Example:
//
//	pipe := MustGet[*pipeline.Pipeline](container)
func MustGet[T any](container Container) (want T) {
	callback := func(got T) {
		want = got
	}
	if err := container.Invoke(callback); err != nil {
		panic(err)
	}
	return want
}

// New creates a dependency injection container rooted at the given
// configuration file path. Core providers cover the logger, config
// store, Docker client, patcher, and pipeline; extra providers come in
// through WithProviders.
func New(configPath string, opts ...Option) (Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	container := dig.New()
	if err := container.Provide(func() ConfigPath { return ConfigPath(configPath) }); err != nil {
		return nil, err
	}

	for _, provider := range core {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	for _, provider := range o.providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}

var core = []any{
	ProvideLogger,
	ProvideContext,
	ProvideConfigStore,
	ProvideConfig,
	ProvideDockerClient,
	ProvideBuilder,
	ProvidePatcher,
	ProvidePipeline,
}
