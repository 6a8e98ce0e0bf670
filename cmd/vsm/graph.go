package main

import (
	"context"
	"fmt"

	"github.com/aretw0/vsm/internal/presentation/graph"
	"github.com/aretw0/vsm/pkg/adapters/file"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <graph>",
	Short: "Export the graph visualization",
	Long:  `Loads a graph file and outputs a Mermaid diagram (graph TD) of its states and transitions.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := file.NewLoader(args[0]).LoadGraph(context.Background())
		if err != nil {
			return err
		}

		current, _ := cmd.Flags().GetString("current")
		var overlay *graph.GraphOverlay
		if current != "" {
			overlay = &graph.GraphOverlay{CurrentState: current}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("current", "", "Highlight a state as current")
}
