package main

import (
	"context"
	"fmt"

	"github.com/aretw0/vsm/internal/validator"
	"github.com/aretw0/vsm/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <graph>...",
	Short: "Check graphs for consistency",
	Long: `Loads each graph file and reports missing entry states and transitions with dangling endpoints,
then warns about unreachable states and shadowed labels.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			warnings, err := runValidate(path)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
				failed++
				continue
			}
			for _, w := range warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: warning: %s\n", path, w)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: graph is valid! ✅\n", path)
		}
		if failed > 0 {
			return fmt.Errorf("validation failed for %d graph(s)", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) ([]string, error) {
	g, err := file.NewLoader(path).LoadGraph(context.Background())
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return validator.Lint(g), nil
}
