package commands

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/kubeship/kubeship/internal/config"
	"github.com/kubeship/kubeship/internal/di"
	"github.com/kubeship/kubeship/internal/hook"
)

// ServeCommand returns the serve command: listen for push-event
// webhooks and run the pipeline for each release tag.
func ServeCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Listen for push-event webhooks and release on tag pushes",
		Description: `Starts an HTTP listener that accepts push-event webhooks, verifies
their HMAC-SHA256 signatures against the shared secret, and runs the
release pipeline for references that name a release tag.

The webhook secret comes from KUBESHIP_HOOK_SECRET.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address (overrides configuration)",
				EnvVars: []string{"KUBESHIP_HOOK_ADDR"},
			},
			configFlag(),
		},
		Action: func(c *cli.Context) error {
			return serveAction(c, logger)
		},
	}
}

func serveAction(c *cli.Context, logger *zerolog.Logger) error {
	ctx := logger.WithContext(c.Context)

	container, err := di.New(c.String("config"),
		di.WithProviders(di.ProvideHookHandler),
	)
	if err != nil {
		return err
	}

	return container.Invoke(func(cfg *config.Config, handler *hook.Handler) error {
		addr := c.String("addr")
		if addr == "" {
			addr = cfg.Hook.Addr
		}

		mux := http.NewServeMux()
		mux.Handle("/hooks/push", handler)

		server := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			BaseContext: func(net.Listener) context.Context {
				return ctx
			},
		}

		logger.Info().Str("addr", addr).Msg("Listening for webhooks")
		return server.ListenAndServe()
	})
}
