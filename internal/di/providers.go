package di

import (
	"context"
	"fmt"

	"github.com/docker/docker/client"

	"github.com/kubeship/kubeship/internal/builder"
	"github.com/kubeship/kubeship/internal/config"
	"github.com/kubeship/kubeship/internal/hook"
	"github.com/kubeship/kubeship/internal/kube"
	"github.com/kubeship/kubeship/internal/pipeline"
	"github.com/kubeship/kubeship/internal/registry"
)

// ProvideConfigStore selects the configuration source: the project
// file when a path is known, the environment otherwise.
func ProvideConfigStore(path ConfigPath) config.Store {
	if path == "" {
		return config.NewEnvStore()
	}
	return config.NewFileStore(string(path))
}

// ProvideConfig loads the tool configuration.
func ProvideConfig(ctx context.Context, store config.Store) (*config.Config, error) {
	cfg, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// ProvideDockerClient connects to the Docker Engine using the standard
// environment (DOCKER_HOST et al) with API version negotiation.
func ProvideDockerClient() (builder.APIClient, error) {
	docker, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return docker, nil
}

// ProvideBuilder creates the image builder.
func ProvideBuilder(docker builder.APIClient) *builder.Builder {
	return builder.New(docker)
}

// ProvidePatcher creates the deployment patcher from the cluster
// configuration.
func ProvidePatcher(cfg *config.Config) (*kube.Patcher, error) {
	if err := cfg.ValidateDeploy(); err != nil {
		return nil, err
	}
	return kube.NewForEndpoint(cfg.Cluster.Endpoint, cfg.Cluster.Token, cfg.Cluster.InsecureSkipTLSVerify)
}

// ProvidePipeline assembles the release pipeline: registry auth is
// resolved per run so that short-lived ECR tokens stay fresh.
func ProvidePipeline(cfg *config.Config, b *builder.Builder, patcher *kube.Patcher) (*pipeline.Pipeline, error) {
	if err := cfg.ValidateRelease(); err != nil {
		return nil, err
	}

	publish := func(ctx context.Context, tag string) (string, error) {
		auth, err := registry.ResolveAuth(ctx, cfg.Registry.Host, registry.Credentials{
			Username: cfg.Registry.Username,
			Password: cfg.Registry.Password,
		})
		if err != nil {
			return "", err
		}
		return b.Publish(ctx, builder.Input{
			ContextDir: cfg.Image.ContextDir,
			Dockerfile: cfg.Image.Dockerfile,
			Image: registry.Ref{
				Host:      cfg.Registry.Host,
				Namespace: cfg.Registry.Namespace,
				Name:      cfg.Image.Name,
				Tag:       tag,
			},
			Auth: auth,
		})
	}

	deploy := func(ctx context.Context, image string) error {
		return patcher.SetImage(ctx, kube.Target{
			Namespace:  cfg.Cluster.Namespace,
			Deployment: cfg.Cluster.Deployment,
			Container:  cfg.Cluster.Container,
		}, image)
	}

	return pipeline.New(pipeline.PublisherFunc(publish), pipeline.DeployerFunc(deploy)), nil
}

// ProvideHookHandler creates the webhook handler on top of the
// pipeline.
func ProvideHookHandler(cfg *config.Config, pipe *pipeline.Pipeline) (*hook.Handler, error) {
	if err := cfg.ValidateServe(); err != nil {
		return nil, err
	}
	return hook.New(cfg.Hook.Secret, pipe), nil
}
