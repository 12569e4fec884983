// Package commands holds the kubeship CLI commands.
package commands

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/kubeship/kubeship/internal/config"
	"github.com/kubeship/kubeship/internal/di"
	"github.com/kubeship/kubeship/internal/pipeline"
)

// ReleaseCommand returns the release command: run the full pipeline
// once for a version-control reference.
func ReleaseCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "release",
		Usage: "Run the release pipeline for a version-control ref",
		Description: `Runs the full release sequence for a single reference.

References that do not name a release tag are ignored; the run reports
skipped and exits successfully. For a matching tag the image is built,
pushed, and the target deployment patched, in that order.

Examples:
  # Release from a CI tag push
  kubeship release --ref refs/tags/v1.2.3

  # Bare tags work too
  kubeship release --ref v1.2.3`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ref",
				Usage:    "Version-control reference (e.g. refs/tags/v1.2.3)",
				EnvVars:  []string{"KUBESHIP_REF", "GITHUB_REF"},
				Required: true,
			},
			configFlag(),
		},
		Action: func(c *cli.Context) error {
			return releaseAction(c, logger)
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the project configuration file",
		EnvVars: []string{"KUBESHIP_CONFIG"},
		Value:   config.DefaultPath,
	}
}

func releaseAction(c *cli.Context, logger *zerolog.Logger) error {
	ctx := logger.WithContext(c.Context)

	container, err := di.New(c.String("config"))
	if err != nil {
		return err
	}

	var pipe *pipeline.Pipeline
	if err := container.Invoke(func(p *pipeline.Pipeline) { pipe = p }); err != nil {
		return err
	}

	result, err := pipe.Run(ctx, c.String("ref"))
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
