package main

import (
	"context"

	"github.com/aretw0/vsm/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve <graph>...",
	Short: "Host graphs behind an HTTP API",
	Long: `Loads one machine per graph file, ticks them at the configured rate and
exposes them over HTTP, and as MCP tools with --mcp. Machine positions are
checkpointed on shutdown when a snapshot store (Redis or --state-dir) is
configured.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		configPath, _ := cmd.Flags().GetString("config")
		listen, _ := cmd.Flags().GetString("listen")
		stateDir, _ := cmd.Flags().GetString("state-dir")
		watch, _ := cmd.Flags().GetBool("watch")
		mcpAddr, _ := cmd.Flags().GetString("mcp")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		return cli.Serve(sigCtx, cli.ServeOptions{
			Paths:      args,
			ConfigPath: configPath,
			Listen:     listen,
			StateDir:   stateDir,
			Watch:      watch,
			Debug:      debug,
			MCP:        mcpAddr,
			In:         cmd.InOrStdin(),
			Out:        cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "Path to a YAML config file")
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (overrides config)")
	serveCmd.Flags().String("state-dir", "", "Directory for file snapshots when Redis is not configured")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload machines when their graph files change")
	serveCmd.Flags().String("mcp", "", `Also serve MCP tools: "stdio" or an address for SSE (e.g. :8081)`)
}
