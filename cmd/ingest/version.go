package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ingest"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ingest",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ingest version %s\n", ingest.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
