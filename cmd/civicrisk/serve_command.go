package main

import (
	"strings"

	"github.com/spf13/cobra"

	"civicrisk/internal/notifications"
	"civicrisk/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the classification HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			// Build the analyzer up front so a missing key fails at startup.
			if _, err := ctx.analyzer(); err != nil {
				return err
			}

			opts := server.Options{
				Bind:     cfg.API.Bind,
				Token:    cfg.API.Token,
				LockPath: cfg.LockPath(),
				Provider: ctx.provider,
				Notifier: notifications.NewService(cfg),
				Metrics:  ctx.metrics.Handler(),
				Logger:   logger,
			}
			if strings.TrimSpace(bind) != "" {
				opts.Bind = bind
			}
			store, err := ctx.openStore(false)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
				opts.Store = store
			}

			srv, err := server.New(opts)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides api.bind)")
	return cmd
}
