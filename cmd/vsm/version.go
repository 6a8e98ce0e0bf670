package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/vsm"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of vsm",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vsm version %s\n", strings.TrimSpace(vsm.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
