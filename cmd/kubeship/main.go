package main

import (
	"context"
	"os"

	"github.com/kubeship/kubeship/cmd/kubeship/commands"
	"github.com/kubeship/kubeship/internal/di"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := di.ProvideLogger()
	ctx := logger.WithContext(context.Background())

	app := &cli.App{
		Name:  "kubeship",
		Usage: "Tag-triggered container release automation",
		Description: `kubeship turns a version tag into a running deployment.

Given a reference like refs/tags/v1.2.3 it:
  - checks that the reference names a release tag (vX.Y.Z)
  - builds the container image and pushes it as <namespace>/<name>:<tag>
  - patches the target Kubernetes Deployment to run the new image

Each step depends on the previous one; any failure stops the run with
no retry and no rollback.`,
		Commands: []*cli.Command{
			commands.ReleaseCommand(&logger),
			commands.DeployCommand(&logger),
			commands.ServeCommand(&logger),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
