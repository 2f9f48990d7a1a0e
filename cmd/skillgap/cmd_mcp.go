package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/skillgap/internal/app"
	mcpserver "github.com/felixgeelhaar/skillgap/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Serves the skillgap_analyze, skillgap_report and skillgap_roles tools over
stdio using the configured catalog and report storage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Setup context with signal handling
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		services, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer services.Close(context.Background())
		services.Refresher.Start(ctx)

		srv := mcpserver.NewServer(mcpserver.Config{
			Analysis: services.Analysis,
			Version:  Version,
		})
		return srv.ServeStdio(ctx)
	},
}
