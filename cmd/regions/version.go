package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/regions"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of regions",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "regions version %s\n", strings.TrimSpace(regions.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
