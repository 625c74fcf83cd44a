package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zeptools/legalgram/conf"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the admin socket",
		Long:  "Reads <root>/config/*.json, prepares every configured component and serves until SIGINT or SIGTERM.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			core := &conf.Core{}
			if err := core.BaseInit(opts.appRoot, ctx, cancel, opts.logger); err != nil {
				return err
			}
			if listen != "" {
				core.Listen = listen
			}
			defer core.ResourceCleanUp()
			if err := core.PrepareAll(); err != nil {
				return err
			}
			if err := core.StartServices(); err != nil {
				core.StopServices()
				return err
			}
			opts.logger.Info("serving", zap.String("listen", core.WebService.Addr()), zap.String("admin", core.UDSService.SocketPath))
			err := core.WaitServicesDone()
			core.StopServices()
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "override the listen address of .core.json")
	return cmd
}
