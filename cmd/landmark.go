package cmd

import (
	"github.com/spf13/cobra"
)

var landmarkCmd = &cobra.Command{
	Use:   "landmark",
	Short: "Landmark storage and similarity operations",
	Long:  `Commands for querying and indexing stored pseudo-landmarks.`,
}

func init() {
	rootCmd.AddCommand(landmarkCmd)
}
