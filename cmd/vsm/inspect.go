package main

import (
	"context"
	"fmt"

	"github.com/aretw0/vsm/internal/presentation/tui"
	"github.com/aretw0/vsm/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <graph>",
	Short: "Print a readable report of a graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := file.NewLoader(args[0])
		def, err := loader.LoadDefinition(context.Background())
		if err != nil {
			return err
		}
		g, err := file.Build(def)
		if err != nil {
			return err
		}

		plain, _ := cmd.Flags().GetBool("plain")
		render, err := tui.NewRenderer(plain)
		if err != nil {
			return err
		}
		out, err := render(tui.Report(def.Name, g))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("plain", false, "Disable colors and styling")
}
