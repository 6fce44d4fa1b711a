package main

import (
	"github.com/joeydtaylor/contentops/pkg/serverfx"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []serverfx.Option
			if c.manifest != "" {
				// the flag wins over $APP_MANIFEST
				opts = append(opts, serverfx.WithManifestEnv(""), serverfx.WithDefaultManifest(c.manifest))
			}
			app := fx.New(serverfx.Module(opts...))
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}
