package main

import (
	"fmt"

	"github.com/aretw0/pathway"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pathway",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pathway version %s\n", pathway.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
