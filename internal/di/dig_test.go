package di

import (
	"context"
	"errors"
	"testing"
)

// Test types for dependency injection
type fakeRegistry struct {
	Host string
}

type fakeCluster struct {
	Endpoint string
}

type fakeReleaser struct {
	Registry *fakeRegistry
	Cluster  *fakeCluster
	Path     ConfigPath
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		opts    []Option
		wantErr bool
	}{
		{
			name: "creates container with no extra providers",
			path: ".kubeship.yaml",
		},
		{
			name: "creates container with a single provider",
			path: "",
			opts: []Option{
				WithProviders(func() *fakeRegistry {
					return &fakeRegistry{Host: "registry.example.com"}
				}),
			},
		},
		{
			name: "creates container with dependent providers",
			path: "custom.yaml",
			opts: []Option{
				WithProviders(
					func() *fakeRegistry { return &fakeRegistry{} },
					func() *fakeCluster { return &fakeCluster{} },
					func(r *fakeRegistry, c *fakeCluster, path ConfigPath) *fakeReleaser {
						return &fakeReleaser{Registry: r, Cluster: c, Path: path}
					},
				),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			container, err := New(tt.path, tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if container == nil && !tt.wantErr {
				t.Error("New() returned nil container without error")
			}
		})
	}
}

func TestNewDuplicateProvider(t *testing.T) {
	// Providing the same type twice must fail
	_, err := New("",
		WithProviders(
			func() *fakeRegistry { return &fakeRegistry{Host: "first"} },
			func() *fakeRegistry { return &fakeRegistry{Host: "second"} },
		),
	)
	if err == nil {
		t.Fatal("expected error for duplicate provider")
	}
}

func TestConfigPathIsInjected(t *testing.T) {
	container, err := New("custom.yaml")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := MustGet[ConfigPath](container)
	if got != ConfigPath("custom.yaml") {
		t.Errorf("ConfigPath = %q, want %q", got, "custom.yaml")
	}
}

func TestMustGetResolvesGraph(t *testing.T) {
	container, err := New("",
		WithProviders(
			func() *fakeRegistry { return &fakeRegistry{Host: "registry.example.com"} },
			func() *fakeCluster { return &fakeCluster{Endpoint: "https://cluster.example.com:6443"} },
			func(r *fakeRegistry, c *fakeCluster) *fakeReleaser {
				return &fakeReleaser{Registry: r, Cluster: c}
			},
		),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	releaser := MustGet[*fakeReleaser](container)
	if releaser.Registry.Host != "registry.example.com" {
		t.Errorf("Registry.Host = %q", releaser.Registry.Host)
	}
	if releaser.Cluster.Endpoint != "https://cluster.example.com:6443" {
		t.Errorf("Cluster.Endpoint = %q", releaser.Cluster.Endpoint)
	}
}

func TestMustGetPanicsOnMissingDependency(t *testing.T) {
	container, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected MustGet to panic for an unregistered type")
		}
	}()
	_ = MustGet[*fakeReleaser](container)
}

func TestProvideConfigStore(t *testing.T) {
	container, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// With an empty path the env store is selected and loading succeeds
	// even with nothing configured.
	err = container.Invoke(func(ctx context.Context) error {
		if ctx == nil {
			return errors.New("nil context")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Invoke() error = %v", err)
	}
}
