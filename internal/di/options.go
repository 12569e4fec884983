package di

// Option is a function that configures the dependency injection container.
type Option func(*options)

// WithProviders adds constructor functions to the dependency injection
// container. Each provider is a constructor that returns one or more
// values; dependencies declared as parameters are resolved by the
// container.
//
// Example:
//
//	WithProviders(
//	    func(cfg *config.Config) *hook.Handler { ... },
//	)
func WithProviders(providers ...any) Option {
	return func(opts *options) {
		opts.providers = append(opts.providers, providers...)
	}
}

type options struct {
	providers []any
}
