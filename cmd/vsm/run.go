package main

import (
	"context"
	"os"

	"github.com/aretw0/vsm/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <graph>",
	Short: "Run a graph interactively",
	Long: `Loads a graph file and drives it from line commands on stdin.
Type 'help' at the prompt for the list of commands.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		headless, _ := cmd.Flags().GetBool("headless")
		locked, _ := cmd.Flags().GetBool("locked")
		step, _ := cmd.Flags().GetDuration("step")
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		configPath, _ := cmd.Flags().GetString("config")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		return cli.Execute(sigCtx, cli.RunOptions{
			Path:       args[0],
			ConfigPath: configPath,
			Headless:   headless,
			Debug:      debug,
			Locked:     locked,
			Step:       step,
			SessionID:  sessionID,
			Fresh:      fresh,
			In:         os.Stdin,
			Out:        os.Stdout,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "Config file (transition mode)")
	runCmd.Flags().Bool("headless", false, "Run in headless mode (no prompts, no banner)")
	runCmd.Flags().Bool("locked", false, "Reject triggers while a timed transition runs (overrides config)")
	runCmd.Flags().Duration("step", 0, "Time advanced by each tick (default 1/60s)")
	runCmd.Flags().StringP("session", "s", "", "Session ID to persist the machine position")
	runCmd.Flags().Bool("fresh", false, "Discard the saved session before running")
}
