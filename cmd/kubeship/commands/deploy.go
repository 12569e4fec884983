package commands

import (
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/kubeship/kubeship/internal/config"
	"github.com/kubeship/kubeship/internal/di"
	"github.com/kubeship/kubeship/internal/kube"
	"github.com/kubeship/kubeship/internal/registry"
)

// DeployCommand returns the deploy command: patch the deployment to an
// already published image without building anything.
func DeployCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "deploy",
		Usage: "Point the deployment at an already published image",
		Description: `Issues the deployment patch for an image that is already in the
registry. Useful for re-deploying a previous release.

Examples:
  kubeship deploy --image user/steem-api:v1.2.2`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "image",
				Usage:    "Fully tagged image reference",
				EnvVars:  []string{"KUBESHIP_IMAGE"},
				Required: true,
			},
			configFlag(),
		},
		Action: func(c *cli.Context) error {
			return deployAction(c, logger)
		},
	}
}

func deployAction(c *cli.Context, logger *zerolog.Logger) error {
	ctx := logger.WithContext(c.Context)

	// Validate the reference before touching the cluster
	ref, err := registry.ParseRef(c.String("image"))
	if err != nil {
		return err
	}
	if err := ref.Validate(); err != nil {
		return err
	}

	container, err := di.New(c.String("config"))
	if err != nil {
		return err
	}

	return container.Invoke(func(cfg *config.Config, patcher *kube.Patcher) error {
		return patcher.SetImage(ctx, kube.Target{
			Namespace:  cfg.Cluster.Namespace,
			Deployment: cfg.Cluster.Deployment,
			Container:  cfg.Cluster.Container,
		}, ref.String())
	})
}
