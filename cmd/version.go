package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"educonnect/placement-service/internal/app"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s\n", appName, app.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
